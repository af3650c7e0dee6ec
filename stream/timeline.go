package stream

import (
	"math"
	"time"

	"github.com/matt-g-everett/iconanim/util"
)

// Timeline is a software Handle driving one Track. The current time is
// derived from the clock while running and held while paused, so nothing
// needs to tick it.
type Timeline struct {
	track Track
	opts  Options
	ease  util.EasingFunc
	now   Clock

	state PlayState
	start time.Time
	hold  float64
}

// NewTimeline creates a Timeline paused at 0.
func NewTimeline(track Track, opts Options, now Clock) *Timeline {
	t := new(Timeline)
	t.track = track
	t.opts = opts
	t.now = now
	t.state = PlayStatePaused

	t.ease, _ = util.Easing(opts.Easing)
	if t.ease == nil {
		t.ease, _ = util.Easing("linear")
	}

	return t
}

// Track returns the track the timeline plays.
func (t *Timeline) Track() Track {
	return t.track
}

func (t *Timeline) activeDuration() float64 {
	return t.opts.DurationMs() * t.opts.IterationCount()
}

func (t *Timeline) elapsed() float64 {
	return float64(t.now().Sub(t.start)) / float64(time.Millisecond)
}

// settle moves a running timeline past its active duration to finished.
func (t *Timeline) settle() {
	if t.state != PlayStateRunning {
		return
	}
	if end := t.activeDuration(); t.elapsed() >= end {
		t.state = PlayStateFinished
		t.hold = end
	}
}

// Play starts or resumes playback. A finished or cancelled timeline starts
// again from 0.
func (t *Timeline) Play() {
	t.settle()
	switch t.state {
	case PlayStateRunning:
		return
	case PlayStateIdle, PlayStateFinished:
		t.hold = 0
	}
	if t.hold >= t.activeDuration() {
		t.hold = 0
	}
	t.start = t.now().Add(-msDuration(t.hold))
	t.state = PlayStateRunning
}

// Pause freezes the timeline at its current time.
func (t *Timeline) Pause() {
	t.hold = t.CurrentTime()
	t.state = PlayStatePaused
}

// Cancel drops the timeline back to idle at 0.
func (t *Timeline) Cancel() {
	t.state = PlayStateIdle
	t.hold = 0
}

// SetCurrentTime seeks to ms. A running timeline keeps running from there;
// an idle one becomes paused.
func (t *Timeline) SetCurrentTime(ms float64) {
	if ms < 0 {
		ms = 0
	}
	t.settle()
	switch t.state {
	case PlayStateRunning, PlayStateFinished:
		if ms < t.activeDuration() {
			t.start = t.now().Add(-msDuration(ms))
			t.state = PlayStateRunning
			return
		}
		t.hold = t.activeDuration()
		t.state = PlayStateFinished
	default:
		t.hold = ms
		t.state = PlayStatePaused
	}
}

// CurrentTime returns the time into the animation in milliseconds.
func (t *Timeline) CurrentTime() float64 {
	t.settle()
	if t.state == PlayStateRunning {
		return t.elapsed()
	}
	return t.hold
}

// PlayState returns the playback state.
func (t *Timeline) PlayState() PlayState {
	t.settle()
	return t.state
}

// Progress returns the directed progress through the current iteration, in
// [0, 1].
func (t *Timeline) Progress() float64 {
	dur := t.opts.DurationMs()
	current := math.Max(t.CurrentTime(), 0)

	var iteration, p float64
	if active := t.activeDuration(); current >= active {
		iteration = t.opts.IterationCount() - 1
		p = 1
	} else {
		iteration = math.Floor(current / dur)
		p = math.Mod(current, dur) / dur
	}

	odd := math.Mod(iteration, 2) == 1
	switch t.opts.Direction {
	case DirectionReverse:
		p = 1 - p
	case DirectionAlternate:
		if odd {
			p = 1 - p
		}
	case DirectionAlternateReverse:
		if !odd {
			p = 1 - p
		}
	}
	return p
}

// Sample interpolates the track's keyframes at the current progress.
func (t *Timeline) Sample() Pose {
	pose := Pose{ID: t.track.ID, Origin: TransformOrigin}
	frames := t.track.Keyframes
	if t.state == PlayStateIdle || len(frames) == 0 {
		return pose
	}

	p := t.Progress()
	first, last := frames[0], frames[len(frames)-1]
	switch {
	case p <= first.Offset:
		pose.Transform = first.Transform
	case p >= last.Offset:
		pose.Transform = last.Transform
	default:
		for i := 0; i < len(frames)-1; i++ {
			a, b := frames[i], frames[i+1]
			if p < a.Offset || p >= b.Offset {
				continue
			}
			local := t.ease((p - a.Offset) / (b.Offset - a.Offset))
			values := make([]float64, len(a.Values))
			for j := range values {
				values[j] = util.Lerp(a.Values[j], b.Values[j], local)
			}
			pose.Transform = t.track.Kind.Transform(values)
			break
		}
		if pose.Transform == "" {
			pose.Transform = last.Transform
		}
	}
	return pose
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
