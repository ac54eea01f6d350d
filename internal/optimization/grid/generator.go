// Package grid implements the deterministic grid-refinement strategy.
//
// The generator walks the unit box [0,1]^n from coarse to fine: first the 2^n
// corners, then for every power p >= 1 the points of the uniform grid with
// 2^p intervals per axis that did not already appear at a coarser power.
// Every dyadic-rational point is produced exactly once.
package grid

type phase int

const (
	phaseCorners phase = iota
	phaseRefine
)

// Generator is a resumable cursor over the refinement sequence. It is not
// safe for concurrent use.
type Generator struct {
	dim   int
	phase phase
	power int
	k     int
	idx   []int
	done  bool // current phase exhausted, advance on next call
}

// NewGenerator creates a generator over [0,1]^dim.
func NewGenerator(dim int) *Generator {
	if dim < 0 {
		dim = 0
	}
	return &Generator{
		dim:   dim,
		phase: phaseCorners,
		k:     1,
		idx:   make([]int, dim),
	}
}

// Dimension returns the length of produced points.
func (g *Generator) Dimension() int {
	return g.dim
}

// Power returns the current refinement power; zero during the corner phase.
func (g *Generator) Power() int {
	return g.power
}

// Next returns the next point of the sequence. It never runs out.
func (g *Generator) Next() []float64 {
	if g.dim == 0 {
		return []float64{}
	}

	for {
		if g.done {
			g.advancePhase()
		}

		point := g.current()
		skip := g.phase == phaseRefine && g.allEven()
		g.done = !g.increment()
		if !skip {
			return point
		}
	}
}

func (g *Generator) current() []float64 {
	point := make([]float64, g.dim)
	for i, v := range g.idx {
		point[i] = float64(v) / float64(g.k)
	}
	return point
}

// increment advances idx as an odometer over {0..k}^dim, last axis fastest.
// It reports false when the odometer wraps around.
func (g *Generator) increment() bool {
	for i := g.dim - 1; i >= 0; i-- {
		g.idx[i]++
		if g.idx[i] <= g.k {
			return true
		}
		g.idx[i] = 0
	}
	return false
}

func (g *Generator) allEven() bool {
	for _, v := range g.idx {
		if v%2 != 0 {
			return false
		}
	}
	return true
}

func (g *Generator) advancePhase() {
	g.phase = phaseRefine
	g.power++
	g.k = 1 << g.power
	for i := range g.idx {
		g.idx[i] = 0
	}
	g.done = false
}
