package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/svg"
)

func TestBuildCreatesPausedHandlePerTrack(t *testing.T) {
	g, err := svg.ParseString(animatedIcon)
	require.NoError(t, err)
	tracks := Decode(g, logger.Nop())

	b := NewBuilder(newFakeClock().Now, logger.Nop())
	require.Zero(t, b.Group().Len())

	group, err := b.Build(tracks, DefaultOptions())
	require.NoError(t, err)
	require.Same(t, group, b.Group())
	require.Equal(t, len(tracks), group.Len())
	for _, h := range group.Handles() {
		require.Equal(t, PlayStatePaused, h.PlayState())
		require.Zero(t, h.CurrentTime())
	}
}

func TestRebuildCancelsPreviousGroup(t *testing.T) {
	g, err := svg.ParseString(animatedIcon)
	require.NoError(t, err)
	tracks := Decode(g, logger.Nop())

	b := NewBuilder(newFakeClock().Now, logger.Nop())
	first, err := b.Build(tracks, DefaultOptions())
	require.NoError(t, err)
	first.Play()

	opts := DefaultOptions()
	opts.Duration = 3
	opts.Direction = DirectionAlternate
	second, err := b.Build(tracks, opts)
	require.NoError(t, err)

	for _, h := range first.Handles() {
		require.Equal(t, PlayStateIdle, h.PlayState())
	}
	live := 0
	for _, h := range append(first.Handles(), second.Handles()...) {
		if h.PlayState() != PlayStateIdle {
			live++
		}
	}
	require.Equal(t, len(tracks), live)
	require.Equal(t, opts, second.Options())
}

func TestBuildRejectsInvalidOptions(t *testing.T) {
	b := NewBuilder(newFakeClock().Now, logger.Nop())
	track := rotateTrack(t, "rotate_0_0_100_90")
	first, err := b.Build([]Track{track}, DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Duration = 0
	_, err = b.Build([]Track{track}, opts)
	require.ErrorIs(t, err, ErrInvalidOptions)
	require.Same(t, first, b.Group())
	require.Equal(t, PlayStatePaused, first.State())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		ok     bool
	}{
		{"defaults", func(o *Options) {}, true},
		{"infinite", func(o *Options) { o.Iterations = Infinite }, true},
		{"empty direction", func(o *Options) { o.Direction = "" }, true},
		{"zero duration", func(o *Options) { o.Duration = 0 }, false},
		{"zero iterations", func(o *Options) { o.Iterations = 0 }, false},
		{"negative iterations", func(o *Options) { o.Iterations = -2 }, false},
		{"bad direction", func(o *Options) { o.Direction = "sideways" }, false},
		{"bad easing", func(o *Options) { o.Easing = "bounce" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrInvalidOptions)
			}
		})
	}
}
