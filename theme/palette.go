package theme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/iconanim/svg"
)

// Palette maps theme colour names (without the leading --) to colours.
type Palette map[string]colorful.Color

// NewPalette parses a name to hex colour table.
func NewPalette(hex map[string]string) (Palette, error) {
	p := make(Palette, len(hex))
	for name, value := range hex {
		c, err := colorful.Hex(value)
		if err != nil {
			return nil, fmt.Errorf("theme colour %s: %w", name, err)
		}
		p[strings.TrimPrefix(name, "--")] = c
	}
	return p, nil
}

// Resolve turns a var(--name, fallback) paint into a concrete value: the
// palette colour when known, otherwise the resolved fallback. Anything else
// is returned unchanged.
func (p Palette) Resolve(paint string) string {
	v := strings.TrimSpace(paint)
	if !strings.HasPrefix(v, "var(") || !strings.HasSuffix(v, ")") {
		return paint
	}

	name, fallback, hasFallback := strings.Cut(v[len("var("):len(v)-1], ",")
	name = strings.TrimPrefix(strings.TrimSpace(name), "--")
	if c, ok := p[name]; ok {
		return c.Hex()
	}
	if hasFallback {
		return p.Resolve(strings.TrimSpace(fallback))
	}
	return paint
}

// Inline replaces every var() paint in the graphic by its resolved value and
// returns how many attributes changed.
func (p Palette) Inline(g *svg.Graphic) int {
	count := 0
	for _, n := range g.Query(func(*svg.Node) bool { return true }) {
		for _, attr := range paintAttrs {
			value, ok := n.GetAttr(attr)
			if !ok || !strings.Contains(value, "var(") {
				continue
			}
			if resolved := p.Resolve(value); resolved != value {
				n.SetAttr(attr, resolved)
				count++
			}
		}
	}
	return count
}

// CSS renders the palette as custom properties on :root.
func (p Palette) CSS() string {
	if len(p) == 0 {
		return ""
	}

	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", Variable(name), p[name].Hex())
	}
	b.WriteString("}\n")
	return b.String()
}
