package space

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Kind names a parameter variant.
type Kind string

const (
	KindLog    Kind = "log"
	KindChoice Kind = "choice"
	KindScalar Kind = "scalar"
)

// Param is one search dimension. Implementations are immutable.
type Param interface {
	Kind() Kind
	// Dimension is the number of encoded coordinates the parameter uses.
	Dimension() int
	// Decode maps Dimension() encoded coordinates to a concrete value.
	Decode(encoded []float64) any
	// Encode is the inverse of Decode for values Decode can produce.
	Encode(value any) ([]float64, error)
	// Attributes returns the canonical constructor arguments.
	Attributes() map[string]any
}

type constructor func(attrs map[string]any) (Param, error)

var constructors = map[Kind]constructor{
	KindLog:    newLog,
	KindChoice: newChoice,
	KindScalar: newScalar,
}

// Kinds lists the known parameter kinds.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// unit maps an encoded coordinate to [0,1], truncating to the canonical box.
func unit(e float64) float64 {
	e = math.Max(optimization.LowerBound, math.Min(e, optimization.UpperBound))
	return (e - optimization.LowerBound) / (optimization.UpperBound - optimization.LowerBound)
}

// encodeUnit is the inverse of unit.
func encodeUnit(t float64) float64 {
	return optimization.LowerBound + t*(optimization.UpperBound-optimization.LowerBound)
}

// Scalar is a real (optionally integer) value interpolated linearly between
// its bounds.
type Scalar struct {
	lower, upper float64
	integer      bool

	// integral range for integer scalars
	first, last float64
}

func newScalar(attrs map[string]any) (Param, error) {
	if err := checkKeys(attrs, "lower", "upper", "integer"); err != nil {
		return nil, err
	}
	lower, upper, err := bounds(attrs)
	if err != nil {
		return nil, err
	}
	p := &Scalar{lower: lower, upper: upper}
	if v, ok := attrs["integer"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("integer must be a boolean, got %T", v)
		}
		p.integer = b
	}
	if p.integer {
		p.first, p.last = math.Ceil(lower), math.Floor(upper)
		if p.first > p.last {
			return nil, fmt.Errorf("no integer between lower (%v) and upper (%v)", lower, upper)
		}
	}
	return p, nil
}

// Kind returns KindScalar.
func (p *Scalar) Kind() Kind { return KindScalar }

// Dimension returns 1.
func (p *Scalar) Dimension() int { return 1 }

// Decode interpolates linearly between the bounds. Integer scalars round to
// the nearest integer inside the bounds.
func (p *Scalar) Decode(encoded []float64) any {
	v := p.lower + unit(encoded[0])*(p.upper-p.lower)
	if p.integer {
		return int64(math.Max(p.first, math.Min(math.Round(v), p.last)))
	}
	return v
}

// Encode is the inverse of Decode. Integer scalars only accept integral
// values.
func (p *Scalar) Encode(value any) ([]float64, error) {
	v, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("expected a number, got %T", value)
	}
	if err := inRange(v, p.lower, p.upper); err != nil {
		return nil, err
	}
	if p.integer {
		n := math.Round(v)
		if math.Abs(v-n) > integralSlack {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		if n < p.first || n > p.last {
			return nil, fmt.Errorf("value %v outside [%v, %v]", n, p.first, p.last)
		}
		v = n
	}
	t := (v - p.lower) / (p.upper - p.lower)
	return []float64{encodeUnit(clamp01(t))}, nil
}

// Attributes returns the declared bounds and integer flag.
func (p *Scalar) Attributes() map[string]any {
	attrs := map[string]any{"lower": p.lower, "upper": p.upper}
	if p.integer {
		attrs["integer"] = true
	}
	return attrs
}

// Log is a positive real value interpolated on a logarithmic scale.
type Log struct {
	lower, upper float64
}

func newLog(attrs map[string]any) (Param, error) {
	if err := checkKeys(attrs, "lower", "upper"); err != nil {
		return nil, err
	}
	lower, upper, err := bounds(attrs)
	if err != nil {
		return nil, err
	}
	if lower <= 0 {
		return nil, fmt.Errorf("log bounds must be positive, got lower=%v", lower)
	}
	return &Log{lower: lower, upper: upper}, nil
}

// Kind returns KindLog.
func (p *Log) Kind() Kind { return KindLog }

// Dimension returns 1.
func (p *Log) Dimension() int { return 1 }

// Decode interpolates between the bounds on a logarithmic scale.
func (p *Log) Decode(encoded []float64) any {
	lo, hi := math.Log(p.lower), math.Log(p.upper)
	return math.Exp(lo + unit(encoded[0])*(hi-lo))
}

// Encode is the inverse of Decode.
func (p *Log) Encode(value any) ([]float64, error) {
	v, ok := toFloat(value)
	if !ok {
		return nil, fmt.Errorf("expected a number, got %T", value)
	}
	if err := inRange(v, p.lower, p.upper); err != nil {
		return nil, err
	}
	lo, hi := math.Log(p.lower), math.Log(p.upper)
	t := (math.Log(math.Max(v, p.lower)) - lo) / (hi - lo)
	return []float64{encodeUnit(clamp01(t))}, nil
}

// Attributes returns the declared bounds.
func (p *Log) Attributes() map[string]any {
	return map[string]any{"lower": p.lower, "upper": p.upper}
}

// Choice picks one of an ordered list of values. The encoded axis is split
// into len(choices) equal buckets.
type Choice struct {
	choices []any
}

func newChoice(attrs map[string]any) (Param, error) {
	if err := checkKeys(attrs, "choices"); err != nil {
		return nil, err
	}
	raw, ok := attrs["choices"]
	if !ok {
		return nil, fmt.Errorf("missing attribute %q", "choices")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("choices must be a list, got %T", raw)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("choices must not be empty")
	}
	choices := make([]any, len(list))
	for i, c := range list {
		choices[i] = normalize(c)
	}
	return &Choice{choices: choices}, nil
}

// Kind returns KindChoice.
func (p *Choice) Kind() Kind { return KindChoice }

// Dimension returns 1.
func (p *Choice) Dimension() int { return 1 }

// Decode returns the choice whose bucket contains the coordinate.
func (p *Choice) Decode(encoded []float64) any {
	return p.choices[p.index(encoded[0])]
}

func (p *Choice) index(e float64) int {
	n := len(p.choices)
	i := int(math.Floor(unit(e) * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// Encode maps a choice to the centre of its bucket.
func (p *Choice) Encode(value any) ([]float64, error) {
	v := normalize(value)
	for i, c := range p.choices {
		if reflect.DeepEqual(c, v) {
			t := (float64(i) + 0.5) / float64(len(p.choices))
			return []float64{encodeUnit(t)}, nil
		}
	}
	return nil, fmt.Errorf("%v is not one of the choices", value)
}

// Attributes returns the declared choices.
func (p *Choice) Attributes() map[string]any {
	return map[string]any{"choices": append([]any(nil), p.choices...)}
}

func checkKeys(attrs map[string]any, allowed ...string) error {
	for k := range attrs {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unexpected attribute %q", k)
		}
	}
	return nil
}

func bounds(attrs map[string]any) (float64, float64, error) {
	var vals [2]float64
	for i, key := range []string{"lower", "upper"} {
		raw, ok := attrs[key]
		if !ok {
			return 0, 0, fmt.Errorf("missing attribute %q", key)
		}
		v, ok := toFloat(raw)
		if !ok {
			return 0, 0, fmt.Errorf("%s must be a number, got %T", key, raw)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%s must be finite, got %v", key, v)
		}
		vals[i] = v
	}
	if vals[0] >= vals[1] {
		return 0, 0, fmt.Errorf("lower (%v) must be below upper (%v)", vals[0], vals[1])
	}
	return vals[0], vals[1], nil
}

// integralSlack is how far an integer scalar value may sit from an integer.
const integralSlack = 1e-9

// inRange accepts v within [lower, upper] up to a relative rounding slack.
func inRange(v, lower, upper float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("value must be finite, got %v", v)
	}
	slack := 1e-9 * (upper - lower)
	if v < lower-slack || v > upper+slack {
		return fmt.Errorf("value %v outside [%v, %v]", v, lower, upper)
	}
	return nil
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(t, 1))
}
