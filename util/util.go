package util

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/fogleman/ease"
)

// EasingFunc maps linear progress between two keyframes onto eased progress.
type EasingFunc func(t float64) float64

type easing struct {
	fn  EasingFunc
	css string
}

// CSS timing functions are the usual cubic-bezier approximations of the
// Penner curves.
var easings = map[string]easing{
	"linear":            {ease.Linear, "linear"},
	"ease-in-quad":      {ease.InQuad, "cubic-bezier(0.55, 0.085, 0.68, 0.53)"},
	"ease-out-quad":     {ease.OutQuad, "cubic-bezier(0.25, 0.46, 0.45, 0.94)"},
	"ease-in-out-quad":  {ease.InOutQuad, "cubic-bezier(0.455, 0.03, 0.515, 0.955)"},
	"ease-in-cubic":     {ease.InCubic, "cubic-bezier(0.55, 0.055, 0.675, 0.19)"},
	"ease-out-cubic":    {ease.OutCubic, "cubic-bezier(0.215, 0.61, 0.355, 1)"},
	"ease-in-out-cubic": {ease.InOutCubic, "cubic-bezier(0.645, 0.045, 0.355, 1)"},
	"ease-in-sine":      {ease.InSine, "cubic-bezier(0.47, 0, 0.745, 0.715)"},
	"ease-out-sine":     {ease.OutSine, "cubic-bezier(0.39, 0.575, 0.565, 1)"},
	"ease-in-out-sine":  {ease.InOutSine, "cubic-bezier(0.445, 0.05, 0.55, 0.95)"},
}

// Easing looks up an easing function by name.
func Easing(name string) (EasingFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	e, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return e.fn, nil
}

// CSSTimingFunction returns the CSS animation-timing-function matching an easing.
func CSSTimingFunction(name string) string {
	if e, ok := easings[name]; ok {
		return e.css
	}
	return "linear"
}

// EasingNames lists the supported easings in sorted order.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatNumber renders v without trailing zeros, rounded to four decimals.
func FormatNumber(v float64) string {
	v = math.Round(v*1e4) / 1e4
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
