package stream

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/metrics"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/util"
)

// Kind is the transform a tagged group animates.
type Kind string

const (
	KindRotate    Kind = "rotate"
	KindTranslate Kind = "translate"
)

// Kinds are the markers recognised in group ids.
var Kinds = []Kind{KindRotate, KindTranslate}

// Arity is the number of tokens per encoded keyframe: the offset followed by
// the transform values.
func (k Kind) Arity() int {
	switch k {
	case KindRotate:
		return 2
	case KindTranslate:
		return 3
	}
	return 0
}

// Marker is the id substring tagging a group with this kind.
func (k Kind) Marker() string {
	return string(k) + "_"
}

// Transform renders the CSS transform for the kind's values.
func (k Kind) Transform(values []float64) string {
	switch k {
	case KindRotate:
		return fmt.Sprintf("rotate(%sdeg)", util.FormatNumber(values[0]))
	case KindTranslate:
		return fmt.Sprintf("translate3D(%spx, %spx, 0)", util.FormatNumber(values[0]), util.FormatNumber(values[1]))
	}
	return ""
}

// TransformOrigin is applied to every keyframe so groups pivot around their
// own centre.
const TransformOrigin = "50% 50%"

// Keyframe is one sample of a group's transform curve.
type Keyframe struct {
	Offset          float64   `json:"offset"`
	Transform       string    `json:"transform"`
	TransformOrigin string    `json:"transformOrigin"`
	Values          []float64 `json:"-"`
}

func newKeyframe(kind Kind, tuple []float64) Keyframe {
	values := slices.Clone(tuple[1:])
	return Keyframe{
		Offset:          tuple[0] / 100,
		Transform:       kind.Transform(values),
		TransformOrigin: TransformOrigin,
		Values:          values,
	}
}

var (
	ErrUnknownKind = errors.New("unknown transform kind")
	ErrNotFinite   = errors.New("value is not a finite number")
	ErrOffsetRange = errors.New("offset outside 0..100")
)

// DecodeError reports a tagged id that could not be turned into keyframes.
type DecodeError struct {
	ID    string
	Token string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: token %q: %v", e.ID, e.Token, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeID parses an id such as rotate_0_0_25_-5_100_0 into its keyframes.
// The first token picks the kind and the rest are read as tuples of Arity
// tokens; a trailing partial tuple is ignored, since authoring tools append
// suffixes to duplicate names. The returned sequence builds its keyframes
// afresh on every iteration.
func DecodeID(id string) (Kind, iter.Seq[Keyframe], error) {
	tokens := strings.Split(id, "_")
	kind := Kind(tokens[0])
	arity := kind.Arity()
	if arity == 0 {
		return "", nil, &DecodeError{ID: id, Token: tokens[0], Err: ErrUnknownKind}
	}

	args := tokens[1:]
	count := len(args) / arity
	values := make([]float64, count*arity)
	for i := range values {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return "", nil, &DecodeError{ID: id, Token: args[i], Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", nil, &DecodeError{ID: id, Token: args[i], Err: ErrNotFinite}
		}
		if i%arity == 0 && (v < 0 || v > 100) {
			return "", nil, &DecodeError{ID: id, Token: args[i], Err: ErrOffsetRange}
		}
		values[i] = v
	}

	frames := func(yield func(Keyframe) bool) {
		for i := 0; i < count; i++ {
			if !yield(newKeyframe(kind, values[i*arity:(i+1)*arity])) {
				return
			}
		}
	}
	return kind, frames, nil
}

// Track is the decoded animation of one tagged group.
type Track struct {
	ID        string
	Kind      Kind
	Node      *svg.Node
	Keyframes []Keyframe
}

// Decode collects a Track for every rotate_ or translate_ tagged group, in
// document order. Groups whose id fails to decode are logged and skipped.
func Decode(g *svg.Graphic, log *logger.Logger) []Track {
	nodes := g.Query(func(n *svg.Node) bool {
		id := n.ID()
		for _, k := range Kinds {
			if strings.Contains(id, k.Marker()) {
				return true
			}
		}
		return false
	})

	tracks := make([]Track, 0, len(nodes))
	for _, n := range nodes {
		kind, frames, err := DecodeID(n.ID())
		if err != nil {
			metrics.DecodeErrors.Inc()
			log.WithFields(map[string]any{"id": n.ID()}).Warn(err, "dropping animation for group")
			continue
		}
		tracks = append(tracks, Track{
			ID:        n.ID(),
			Kind:      kind,
			Node:      n,
			Keyframes: slices.Collect(frames),
		})
	}
	return tracks
}
