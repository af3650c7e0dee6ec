package stream

import "time"

// An Animation renders the current poses of an icon.
type Animation interface {
	CalculateFrame() *Frame
}

// PlayState is the playback state of a Handle.
type PlayState int

const (
	PlayStateIdle PlayState = iota
	PlayStateRunning
	PlayStatePaused
	PlayStateFinished
)

func (s PlayState) String() string {
	switch s {
	case PlayStateIdle:
		return "idle"
	case PlayStateRunning:
		return "running"
	case PlayStatePaused:
		return "paused"
	case PlayStateFinished:
		return "finished"
	}
	return "unknown"
}

// A Handle controls the timeline of one animated group. Times are in
// milliseconds from the start of the first iteration.
type Handle interface {
	Play()
	Pause()
	Cancel()
	SetCurrentTime(ms float64)
	CurrentTime() float64
	PlayState() PlayState
}

// A Sampler reports the pose of its group at the current time.
type Sampler interface {
	Sample() Pose
}

// Clock returns the current time.
type Clock func() time.Time
