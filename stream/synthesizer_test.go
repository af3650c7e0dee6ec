package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/svg"
)

const blindIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
  <g id="color_accent"><path fill="#fff" stroke="#000"/></g>
  <g id="translate_0_0_0_100_0_-12"><rect width="20" height="2"/></g>
  <g id="rotate_0_0_100_90"><rect width="2" height="2"/></g>
</svg>`

func newTestSynth(t *testing.T, autoplay bool) (*Synthesizer, *fakeClock, *int) {
	t.Helper()
	clock := newFakeClock()
	s, err := NewSynthesizer(DefaultOptions(), autoplay, clock.Now, logger.Nop())
	require.NoError(t, err)
	updates := new(int)
	s.OnUpdate(func() { *updates++ })
	return s, clock, updates
}

func loadBlind(t *testing.T, s *Synthesizer) *svg.Graphic {
	t.Helper()
	g, err := svg.ParseString(blindIcon)
	require.NoError(t, err)
	s.OnGraphicChanged(g)
	return g
}

func TestNewSynthesizerRejectsInvalidOptions(t *testing.T) {
	_, err := NewSynthesizer(Options{Duration: -1, Iterations: 1}, true, newFakeClock().Now, logger.Nop())
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestGraphicChangeBindsDecodesAndAutoplays(t *testing.T) {
	s, _, updates := newTestSynth(t, true)
	g := loadBlind(t, s)

	require.Equal(t, 1, *updates)
	require.Len(t, s.Tracks(), 2)

	state := s.State()
	require.Equal(t, 2, state.Handles)
	require.True(t, state.Running)

	path := g.QueryByIDContains("color_")[0].Descendants("fill")[0]
	fill, _ := path.GetAttr("fill")
	require.Equal(t, "var(--accent, #fff)", fill)
}

func TestGraphicChangeWithoutAutoplayStaysPaused(t *testing.T) {
	s, clock, _ := newTestSynth(t, false)
	loadBlind(t, s)

	clock.Advance(500)
	state := s.State()
	require.True(t, state.Paused)
	require.Zero(t, state.Position)

	s.Animate()
	clock.Advance(500)
	require.True(t, s.State().Running)
	require.InDelta(t, 0.5, s.State().Position, 1e-9)

	s.Pause()
	require.False(t, s.State().Running)
}

func TestOptionChangeRebuildsFromCachedTracks(t *testing.T) {
	s, _, updates := newTestSynth(t, true)
	loadBlind(t, s)
	first := s.Group()

	require.NoError(t, s.SetDuration(2))
	second := s.Group()
	require.NotSame(t, first, second)
	require.Equal(t, PlayStateIdle, first.State())
	require.Equal(t, 2, second.Len())
	require.Equal(t, 2.0, second.Options().Duration)

	require.NoError(t, s.SetIterations(Infinite))
	require.NoError(t, s.SetDirection(DirectionReverse))
	require.NoError(t, s.SetEasing("ease-in-out-cubic"))
	require.Equal(t, 5, *updates)

	// Unchanged options do not rebuild.
	current := s.Group()
	require.NoError(t, s.SetDuration(2))
	require.Same(t, current, s.Group())
}

func TestInvalidOptionKeepsCurrentGroup(t *testing.T) {
	s, _, updates := newTestSynth(t, true)
	loadBlind(t, s)
	current := s.Group()

	require.ErrorIs(t, s.SetIterations(0), ErrInvalidOptions)
	require.ErrorIs(t, s.SetDirection("sideways"), ErrInvalidOptions)
	require.Same(t, current, s.Group())
	require.Equal(t, 1, *updates)
	require.Equal(t, DefaultOptions(), s.Options())
}

func TestProgressSeeksAndPauses(t *testing.T) {
	s, clock, _ := newTestSynth(t, true)
	loadBlind(t, s)
	clock.Advance(200)

	s.SetProgress(1.0)
	state := s.State()
	require.True(t, state.Paused)
	require.InDelta(t, MaxPosition, state.Position, 1e-9)
	require.Equal(t, 1.0, state.Progress)

	s.SetAnimationPosition(0.25)
	require.InDelta(t, 0.25, s.State().Position, 1e-9)

	frame := s.CalculateFrame()
	require.Len(t, frame.Poses, 2)
	require.Equal(t, "translate3D(0px, -3px, 0)", frame.Poses[0].Transform)
}

func TestTriggerPlaysOnRisingEdge(t *testing.T) {
	s, clock, _ := newTestSynth(t, false)
	loadBlind(t, s)
	s.SetProgress(0.5)

	s.SetTrigger(true)
	require.True(t, s.State().Running)
	require.Zero(t, s.State().Position)

	clock.Advance(300)
	s.Pause()
	s.SetTrigger(true)
	require.True(t, s.State().Paused)

	s.SetTrigger(false)
	s.SetTrigger(true)
	require.True(t, s.State().Running)
}

func TestSetAutoplayPlays(t *testing.T) {
	s, _, _ := newTestSynth(t, false)
	loadBlind(t, s)

	s.SetAutoplay(true)
	require.True(t, s.State().Running)
	require.True(t, s.State().Autoplay)

	require.NoError(t, s.SetDuration(4))
	require.True(t, s.State().Running)
}

func TestPrepareAnimationsRedecodes(t *testing.T) {
	s, _, _ := newTestSynth(t, false)
	g := loadBlind(t, s)

	g.QueryByIDContains("rotate_")[0].SetAttr("id", "static")
	require.NoError(t, s.PrepareAnimations())
	require.Len(t, s.Tracks(), 1)
	require.Equal(t, 1, s.State().Handles)
}

func TestPrepareAnimationsBeforeGraphic(t *testing.T) {
	s, _, _ := newTestSynth(t, true)
	require.NoError(t, s.PrepareAnimations())
	require.Zero(t, s.State().Handles)

	var b strings.Builder
	require.NoError(t, s.WriteGraphic(&b))
	require.Empty(t, b.String())
}

func TestWriteGraphicAndCSS(t *testing.T) {
	s, _, _ := newTestSynth(t, true)
	loadBlind(t, s)

	var b strings.Builder
	require.NoError(t, s.WriteGraphic(&b))
	require.Contains(t, b.String(), `fill="var(--accent, #fff)"`)
	require.Contains(t, s.KeyframesCSS(), "@keyframes iconanim-1")
}

func TestListenersMayReadState(t *testing.T) {
	s, _, _ := newTestSynth(t, true)
	var seen []int
	s.OnUpdate(func() { seen = append(seen, s.State().Handles) })
	loadBlind(t, s)
	require.Equal(t, []int{2}, seen)
}
