package stream

import (
	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/metrics"
)

// Builder turns decoded tracks into the animation Group of an icon. It owns
// the current group and cancels it before installing a replacement.
type Builder struct {
	now   Clock
	log   *logger.Logger
	group *Group
}

// NewBuilder creates a Builder whose timelines read time from now.
func NewBuilder(now Clock, log *logger.Logger) *Builder {
	b := new(Builder)
	b.now = now
	b.log = log
	b.group = NewGroup(nil, DefaultOptions())
	return b
}

// Build cancels the current group and replaces it with one paused timeline
// per track. Invalid options leave the current group untouched.
func (b *Builder) Build(tracks []Track, opts Options) (*Group, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b.group.Cancel()

	handles := make([]Handle, len(tracks))
	for i, track := range tracks {
		handles[i] = NewTimeline(track, opts, b.now)
	}
	b.group = NewGroup(handles, opts)

	metrics.Rebuilds.Inc()
	metrics.AnimationHandles.Set(float64(len(handles)))
	b.log.WithFields(map[string]any{
		"handles":    len(handles),
		"duration":   opts.Duration,
		"iterations": opts.Iterations,
		"direction":  string(opts.Direction),
	}).Debug("animations built")

	return b.group, nil
}

// Group returns the current group. It is empty before the first build.
func (b *Builder) Group() *Group {
	return b.group
}
