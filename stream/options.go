package stream

import (
	"errors"
	"fmt"
	"math"

	"github.com/matt-g-everett/iconanim/util"
)

// Direction is the playback direction shared by every animation of a group.
type Direction string

const (
	DirectionNormal           Direction = "normal"
	DirectionReverse          Direction = "reverse"
	DirectionAlternate        Direction = "alternate"
	DirectionAlternateReverse Direction = "alternate-reverse"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionNormal, DirectionReverse, DirectionAlternate, DirectionAlternateReverse:
		return d, nil
	case "":
		return DirectionNormal, nil
	}
	return "", fmt.Errorf("%w: unknown direction %q", ErrInvalidOptions, s)
}

// ErrInvalidOptions wraps every options validation failure.
var ErrInvalidOptions = errors.New("invalid animation options")

// Infinite is the iteration count meaning repeat forever.
const Infinite = -1

// Options is the timing policy applied to every animation of a group.
type Options struct {
	Duration   float64   `json:"duration"`
	Iterations int       `json:"iterations"`
	Direction  Direction `json:"direction"`
	Easing     string    `json:"easing"`
}

// DefaultOptions plays once, forwards, over one second.
func DefaultOptions() Options {
	return Options{
		Duration:   1,
		Iterations: 1,
		Direction:  DirectionNormal,
		Easing:     "linear",
	}
}

// Validate checks the options are usable for a build.
func (o Options) Validate() error {
	if !(o.Duration > 0) || math.IsInf(o.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidOptions, o.Duration)
	}
	if o.Iterations != Infinite && o.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be positive or %d, got %d", ErrInvalidOptions, Infinite, o.Iterations)
	}
	if _, err := ParseDirection(string(o.Direction)); err != nil {
		return err
	}
	if _, err := util.Easing(o.Easing); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

// DurationMs is the length of one iteration in milliseconds.
func (o Options) DurationMs() float64 {
	return o.Duration * 1000
}

// IterationCount returns the iteration count with Infinite mapped to +Inf.
func (o Options) IterationCount() float64 {
	if o.Iterations == Infinite {
		return math.Inf(1)
	}
	return float64(o.Iterations)
}
