package stream

import (
	"io"
	"sync"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/theme"
)

// State is a snapshot of the synthesizer for status reporting.
type State struct {
	Handles  int     `json:"handles"`
	Running  bool    `json:"running"`
	Paused   bool    `json:"paused"`
	Position float64 `json:"position"`
	Autoplay bool    `json:"autoplay"`
	Progress float64 `json:"progress"`
	Options  Options `json:"options"`
}

// Synthesizer owns the animations of one icon. It binds theme colours and
// decodes tracks whenever the graphic changes, rebuilds the group when the
// timing changes, and maps the remaining settings onto transport calls.
// All methods are safe for concurrent use.
type Synthesizer struct {
	mu        sync.Mutex
	log       *logger.Logger
	builder   *Builder
	graphic   *svg.Graphic
	tracks    []Track
	opts      Options
	autoplay  bool
	trigger   bool
	progress  float64
	listeners []func()
}

// NewSynthesizer creates a Synthesizer with the given timing and autoplay
// policy. Nothing is built until the first graphic arrives.
func NewSynthesizer(opts Options, autoplay bool, now Clock, log *logger.Logger) (*Synthesizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := new(Synthesizer)
	s.log = log
	s.builder = NewBuilder(now, log)
	s.opts = opts
	s.autoplay = autoplay
	return s, nil
}

// OnUpdate registers fn to run after every rebuild or transport change.
func (s *Synthesizer) OnUpdate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Synthesizer) do(fn func() error) error {
	s.mu.Lock()
	err := fn()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if err == nil {
		for _, l := range listeners {
			l()
		}
	}
	return err
}

// OnGraphicChanged binds theme colours, decodes the tagged groups of the new
// graphic and rebuilds every animation.
func (s *Synthesizer) OnGraphicChanged(g *svg.Graphic) {
	err := s.do(func() error {
		s.graphic = g
		bound := theme.Bind(g)
		s.tracks = Decode(g, s.log)
		s.log.WithFields(map[string]any{
			"colors": bound,
			"tracks": len(s.tracks),
		}).Info("icon changed")
		return s.rebuild()
	})
	if err != nil {
		s.log.Error(err, "rebuild after icon change failed")
	}
}

// rebuild replaces the group from the cached tracks. Callers hold mu.
func (s *Synthesizer) rebuild() error {
	group, err := s.builder.Build(s.tracks, s.opts)
	if err != nil {
		return err
	}
	if s.autoplay {
		group.Play()
	}
	return nil
}

func (s *Synthesizer) setOptions(opts Options) error {
	return s.do(func() error {
		if err := opts.Validate(); err != nil {
			return err
		}
		if opts == s.opts {
			return nil
		}
		s.opts = opts
		return s.rebuild()
	})
}

// Options returns the current timing.
func (s *Synthesizer) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SetOptions replaces the whole timing with a single rebuild.
func (s *Synthesizer) SetOptions(opts Options) error {
	return s.setOptions(opts)
}

// SetDuration changes the iteration length in seconds.
func (s *Synthesizer) SetDuration(seconds float64) error {
	opts := s.Options()
	opts.Duration = seconds
	return s.setOptions(opts)
}

// SetIterations changes the iteration count; Infinite repeats forever.
func (s *Synthesizer) SetIterations(n int) error {
	opts := s.Options()
	opts.Iterations = n
	return s.setOptions(opts)
}

// SetDirection changes the playback direction.
func (s *Synthesizer) SetDirection(d Direction) error {
	opts := s.Options()
	opts.Direction = d
	return s.setOptions(opts)
}

// SetEasing changes the easing between keyframes.
func (s *Synthesizer) SetEasing(name string) error {
	opts := s.Options()
	opts.Easing = name
	return s.setOptions(opts)
}

// SetAutoplay changes whether builds start playing; turning it on plays the
// current group.
func (s *Synthesizer) SetAutoplay(on bool) {
	s.do(func() error {
		s.autoplay = on
		if on {
			s.builder.Group().Play()
		}
		return nil
	})
}

// SetTrigger plays the animations from the start when the signal goes from
// false to true.
func (s *Synthesizer) SetTrigger(on bool) {
	s.do(func() error {
		if on && !s.trigger {
			s.builder.Group().Trigger()
		}
		s.trigger = on
		return nil
	})
}

// SetProgress seeks every animation to a normalised position.
func (s *Synthesizer) SetProgress(position float64) {
	s.do(func() error {
		s.progress = position
		s.builder.Group().Seek(position)
		return nil
	})
}

// SetAnimationPosition is SetProgress, for widgets mapping a level to a pose.
func (s *Synthesizer) SetAnimationPosition(position float64) {
	s.SetProgress(position)
}

// Animate plays every animation.
func (s *Synthesizer) Animate() {
	s.do(func() error {
		s.builder.Group().Play()
		return nil
	})
}

// Pause pauses every animation.
func (s *Synthesizer) Pause() {
	s.do(func() error {
		s.builder.Group().Pause()
		return nil
	})
}

// PrepareAnimations decodes the current graphic again and rebuilds.
func (s *Synthesizer) PrepareAnimations() error {
	return s.do(func() error {
		if s.graphic != nil {
			s.tracks = Decode(s.graphic, s.log)
		}
		return s.rebuild()
	})
}

// Tracks returns the decoded tracks of the current graphic.
func (s *Synthesizer) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Track(nil), s.tracks...)
}

// Group returns the current animation group.
func (s *Synthesizer) Group() *Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Group()
}

// State returns a snapshot for status reporting.
func (s *Synthesizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := s.builder.Group()
	return State{
		Handles:  group.Len(),
		Running:  group.IsRunning(),
		Paused:   group.IsPaused(),
		Position: group.Position(),
		Autoplay: s.autoplay,
		Progress: s.progress,
		Options:  s.opts,
	}
}

// CalculateFrame samples the current group.
func (s *Synthesizer) CalculateFrame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Group().CalculateFrame()
}

// WriteGraphic writes the bound graphic, or nothing before the first icon.
func (s *Synthesizer) WriteGraphic(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graphic == nil {
		return nil
	}
	_, err := s.graphic.WriteTo(w)
	return err
}

// KeyframesCSS renders the current tracks as CSS animations.
func (s *Synthesizer) KeyframesCSS() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return KeyframesCSS(s.tracks, s.opts)
}
