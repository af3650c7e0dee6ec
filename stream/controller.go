package stream

import (
	"math"
)

// MaxPosition is the furthest a seek goes. A seek to exactly 1.0 lands on
// the iteration boundary and would show the first frame again.
const MaxPosition = 0.999

// ClampPosition limits a normalised seek position to [0, MaxPosition].
func ClampPosition(position float64) float64 {
	switch {
	case math.IsNaN(position) || position < 0:
		return 0
	case position >= 1:
		return MaxPosition
	}
	return position
}

// Group is the set of animation handles of one icon, controlled as a unit.
// Its state is read from the first handle since all of them are always
// driven together.
type Group struct {
	handles []Handle
	opts    Options
}

// NewGroup creates a Group over handles sharing opts.
func NewGroup(handles []Handle, opts Options) *Group {
	g := new(Group)
	g.handles = handles
	g.opts = opts
	return g
}

// Len returns the number of handles.
func (g *Group) Len() int {
	return len(g.handles)
}

// Handles returns the handles in declaration order.
func (g *Group) Handles() []Handle {
	return append([]Handle(nil), g.handles...)
}

// Options returns the timing the group was built with.
func (g *Group) Options() Options {
	return g.opts
}

// Play starts or resumes every handle from its current position.
func (g *Group) Play() {
	for _, h := range g.handles {
		h.Play()
	}
}

// Pause freezes every handle where it is.
func (g *Group) Pause() {
	for _, h := range g.handles {
		h.Pause()
	}
}

// Cancel releases every handle. A cancelled group is never reused.
func (g *Group) Cancel() {
	for _, h := range g.handles {
		h.Cancel()
	}
}

// Seek moves every handle to a normalised position of one iteration and
// leaves the group paused there. Handles that are not paused are played
// and paused first so the new time is taken as a held position.
func (g *Group) Seek(position float64) {
	position = ClampPosition(position)
	paused := g.IsPaused()
	ms := position * g.opts.DurationMs()
	for _, h := range g.handles {
		if !paused {
			h.Play()
			h.Pause()
		}
		h.SetCurrentTime(ms)
	}
}

// Trigger plays every handle from the start.
func (g *Group) Trigger() {
	for _, h := range g.handles {
		h.SetCurrentTime(0)
		h.Play()
	}
}

// State returns the play state of the first handle, idle for an empty group.
func (g *Group) State() PlayState {
	if len(g.handles) == 0 {
		return PlayStateIdle
	}
	return g.handles[0].PlayState()
}

// IsRunning reports whether the group is playing.
func (g *Group) IsRunning() bool {
	return g.State() == PlayStateRunning
}

// IsPaused reports whether the group is paused.
func (g *Group) IsPaused() bool {
	return g.State() == PlayStatePaused
}

// Position returns the normalised position of the first handle within its
// current iteration.
func (g *Group) Position() float64 {
	switch g.State() {
	case PlayStateIdle:
		return 0
	case PlayStateFinished:
		return 1
	}
	dur := g.opts.DurationMs()
	return math.Mod(g.handles[0].CurrentTime(), dur) / dur
}

// CalculateFrame samples every handle that can report a pose.
func (g *Group) CalculateFrame() *Frame {
	f := NewFrame()
	f.Running = g.IsRunning()
	for _, h := range g.handles {
		if s, ok := h.(Sampler); ok {
			f.Poses = append(f.Poses, s.Sample())
		}
	}
	return f
}
