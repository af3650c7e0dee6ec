package svg

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
)

var (
	ErrInvalidName  = errors.New("invalid icon name")
	ErrIconNotFound = errors.New("icon not found")
)

// Loader loads named icons from a directory and tells listeners whenever
// the current graphic is replaced.
type Loader struct {
	mu        sync.Mutex
	path      string
	name      string
	graphic   *Graphic
	listeners []func(*Graphic)
}

// NewLoader creates a Loader reading <path>/<name>.svg files.
func NewLoader(path string) *Loader {
	l := new(Loader)
	l.path = path
	return l
}

// OnChange registers fn to run after every graphic replacement.
func (l *Loader) OnChange(fn func(*Graphic)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Load reads the named icon and installs it as the current graphic.
func (l *Loader) Load(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w %q", ErrInvalidName, name)
	}

	g, err := ReadFile(filepath.Join(l.path, name+".svg"))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load icon %s: %w: %w", name, ErrIconNotFound, err)
	}
	if err != nil {
		return fmt.Errorf("load icon %s: %w", name, err)
	}
	l.replace(name, g)
	return nil
}

// Replace installs an already parsed graphic.
func (l *Loader) Replace(name string, g *Graphic) {
	l.replace(name, g)
}

func (l *Loader) replace(name string, g *Graphic) {
	l.mu.Lock()
	l.name = name
	l.graphic = g
	listeners := append([]func(*Graphic){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(g)
	}
}

// Name returns the name of the current icon.
func (l *Loader) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// Graphic returns the current graphic, nil before the first load.
func (l *Loader) Graphic() *Graphic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.graphic
}
