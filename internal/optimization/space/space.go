// Package space compiles declarative parameter descriptions into the
// normalized search space shared by all strategies. Every parameter maps a
// slice of the encoded point, whose coordinates live in [-3, 3], to a concrete
// value and back.
package space

import (
	"fmt"
	"math"
	"strings"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Space is an immutable, name-ordered set of parameters.
type Space struct {
	names     []string
	params    map[string]Param
	offsets   map[string]int
	dimension int
}

func newSpace(names []string, params map[string]Param) *Space {
	s := &Space{
		names:   names,
		params:  params,
		offsets: make(map[string]int, len(names)),
	}
	for _, name := range names {
		s.offsets[name] = s.dimension
		s.dimension += params[name].Dimension()
	}
	return s
}

// Dimension returns the length of encoded points.
func (s *Space) Dimension() int {
	return s.dimension
}

// Names returns parameter names in encoding order.
func (s *Space) Names() []string {
	return append([]string(nil), s.names...)
}

// Param returns the named parameter.
func (s *Space) Param(name string) (Param, bool) {
	p, ok := s.params[name]
	return p, ok
}

// Decode maps an encoded point to parameter values. Coordinates outside
// [-3, 3] are truncated. It returns nil if encoded has the wrong length.
func (s *Space) Decode(encoded []float64) map[string]any {
	if len(encoded) != s.dimension {
		return nil
	}
	out := make(map[string]any, len(s.names))
	for _, name := range s.names {
		p := s.params[name]
		off := s.offsets[name]
		out[name] = p.Decode(encoded[off : off+p.Dimension()])
	}
	return out
}

// Encode maps parameter values to an encoded point. decoded must name every
// parameter exactly once.
func (s *Space) Encode(decoded map[string]any) ([]float64, error) {
	if len(decoded) != len(s.names) {
		for name := range decoded {
			if _, ok := s.params[name]; !ok {
				return nil, malformedPoint("unknown parameter %q", name)
			}
		}
	}

	encoded := make([]float64, s.dimension)
	for _, name := range s.names {
		v, ok := decoded[name]
		if !ok {
			return nil, malformedPoint("missing parameter %q", name)
		}
		p := s.params[name]
		e, err := p.Encode(v)
		if err != nil {
			return nil, optimization.WrapError(err, optimization.KindMalformedPoint,
				fmt.Sprintf("parameter %q", name)).WithComponent("space").WithOperation("Encode")
		}
		copy(encoded[s.offsets[name]:], e)
	}
	return encoded, nil
}

// Validate checks that encoded is shape-compatible with the space.
func (s *Space) Validate(encoded []float64) error {
	if len(encoded) != s.dimension {
		return malformedPoint("expected %d coordinates, got %d", s.dimension, len(encoded))
	}
	for i, v := range encoded {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return malformedPoint("coordinate %d is not finite", i)
		}
	}
	return nil
}

// Spec returns the canonical declarative form of the space, accepted by Parse.
func (s *Space) Spec() map[string]any {
	out := make(map[string]any, len(s.names))
	for _, name := range s.names {
		p := s.params[name]
		out[name] = map[string]any{
			"type":       string(p.Kind()),
			"parameters": p.Attributes(),
		}
	}
	return out
}

func (s *Space) String() string {
	parts := make([]string, len(s.names))
	for i, name := range s.names {
		parts[i] = fmt.Sprintf("%s:%s%v", name, s.params[name].Kind(), s.params[name].Attributes())
	}
	return fmt.Sprintf("Space{%s}", strings.Join(parts, ", "))
}

func malformedPoint(format string, args ...interface{}) error {
	return optimization.NewErrorf(optimization.KindMalformedPoint, format, args...).
		WithComponent("space")
}
