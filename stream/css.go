package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-g-everett/iconanim/util"
)

// KeyframesCSS renders tracks as CSS @keyframes plus one animation rule per
// group, for renderers that animate the SVG themselves.
func KeyframesCSS(tracks []Track, opts Options) string {
	iterations := "infinite"
	if opts.Iterations != Infinite {
		iterations = strconv.Itoa(opts.Iterations)
	}
	direction := opts.Direction
	if direction == "" {
		direction = DirectionNormal
	}

	var b strings.Builder
	for i, t := range tracks {
		name := fmt.Sprintf("iconanim-%d", i)

		fmt.Fprintf(&b, "@keyframes %s {\n", name)
		for _, kf := range t.Keyframes {
			fmt.Fprintf(&b, "  %s%% { transform: %s; }\n", util.FormatNumber(kf.Offset*100), kf.Transform)
		}
		b.WriteString("}\n")

		fmt.Fprintf(&b, "[id=%q] {\n", t.ID)
		b.WriteString("  transform-box: fill-box;\n")
		fmt.Fprintf(&b, "  transform-origin: %s;\n", TransformOrigin)
		fmt.Fprintf(&b, "  animation: %s %ss %s %s %s;\n",
			name, util.FormatNumber(opts.Duration), util.CSSTimingFunction(opts.Easing), iterations, direction)
		b.WriteString("}\n")
	}
	return b.String()
}
