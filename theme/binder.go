// Package theme ties icon paint to dashboard theme variables.
package theme

import (
	"strings"

	"github.com/matt-g-everett/iconanim/svg"
)

// Marker is the identifier prefix of colour-tagged groups.
const Marker = "color_"

var paintAttrs = []string{"fill", "stroke"}

// Bind rewrites the fill and stroke of everything below a colour-tagged
// group to var(--<name>, <original>) and returns the number of attributes
// changed. Groups are tagged by id, or by their first class in older icons.
// Values already bound to the same variable are left alone, so binding a
// graphic twice changes nothing. A group tagged both ways takes its id tag.
func Bind(g *svg.Graphic) int {
	count := 0
	bound := make(map[*svg.Node]bool)
	for _, n := range g.QueryByIDContains(Marker) {
		if name, ok := ColorName(n.ID()); ok {
			count += bindNode(n, name)
			bound[n] = true
		}
	}
	for _, n := range g.QueryByClassContains(Marker) {
		if bound[n] {
			continue
		}
		classes := n.Classes()
		if len(classes) == 0 || !strings.HasPrefix(classes[0], Marker) {
			continue
		}
		if name, ok := ColorName(classes[0]); ok {
			count += bindNode(n, name)
		}
	}
	return count
}

// ColorName extracts <name> from an identifier carrying color_<name>.
func ColorName(ident string) (string, bool) {
	i := strings.Index(ident, Marker)
	if i < 0 {
		return "", false
	}
	name, _, _ := strings.Cut(ident[i+len(Marker):], "_")
	return name, name != ""
}

// Variable returns the CSS custom property for a theme colour name.
func Variable(name string) string {
	return "--" + name
}

func bindNode(n *svg.Node, name string) int {
	ref := "var(" + Variable(name) + ","
	count := 0
	for _, attr := range paintAttrs {
		for _, d := range n.Descendants(attr) {
			value, _ := d.GetAttr(attr)
			if strings.Contains(value, ref) {
				continue
			}
			d.SetAttr(attr, ref+" "+value+")")
			count++
		}
	}
	return count
}
