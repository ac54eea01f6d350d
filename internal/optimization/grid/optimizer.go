package grid

import (
	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Name is the registry title of the grid strategy.
const Name = "GridSearch"

// Optimizer asks the refinement sequence mapped onto the encoded box. Its
// trajectory does not depend on told values.
type Optimizer struct {
	space     optimization.Space
	archive   *optimization.Archive
	generator *Generator
}

var _ optimization.Optimizer = (*Optimizer)(nil)

// New is the optimization.Constructor for the grid strategy.
func New(space optimization.Space, archive *optimization.Archive, _ optimization.Options) (optimization.Optimizer, error) {
	return NewOptimizer(space, archive), nil
}

// NewOptimizer creates a grid optimizer over space. Recommend reads archive.
func NewOptimizer(space optimization.Space, archive *optimization.Archive) *Optimizer {
	if archive == nil {
		archive = optimization.NewArchive()
	}
	return &Optimizer{
		space:     space,
		archive:   archive,
		generator: NewGenerator(space.Dimension()),
	}
}

// Ask maps the next unit-box point u to u*6-3.
func (o *Optimizer) Ask() optimization.Candidate {
	u := o.generator.Next()
	encoded := make([]float64, len(u))
	for i, v := range u {
		encoded[i] = v*(optimization.UpperBound-optimization.LowerBound) + optimization.LowerBound
	}
	return optimization.NewCandidate(o.space, encoded)
}

// Tell is a no-op for the trajectory; the experiment archive holds the value.
func (o *Optimizer) Tell(point []float64, value float64) {}

// Recommend returns the decoded archive entry with the lowest mean, or the
// centre of the box before anything was told.
func (o *Optimizer) Recommend() map[string]any {
	best, ok := o.archive.Best()
	if !ok {
		return o.space.Decode(optimization.Center(o.space.Dimension()))
	}
	return o.space.Decode(best.Point)
}
