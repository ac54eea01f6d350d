// Package strategies is the external registry of numeric search strategies.
// Each strategy treats the encoded box [-3,3]^n as its search domain and
// truncates anything it proposes back into it.
package strategies

import (
	"math"
	"math/rand"
	"time"

	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/bayesian"
)

const (
	RandomSearchName = "RandomSearch"
	OnePlusOneName   = "OnePlusOne"
)

// Registry returns the external strategy table.
func Registry() optimization.Registry {
	return optimization.Registry{
		RandomSearchName: NewRandomSearch,
		OnePlusOneName:   NewOnePlusOne,
		bayesian.Name:    bayesian.New,
	}
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// recommend decodes the lowest-mean archive entry, or the centre of the box.
func recommend(space optimization.Space, archive *optimization.Archive) map[string]any {
	best, ok := archive.Best()
	if !ok {
		return space.Decode(optimization.Center(space.Dimension()))
	}
	return space.Decode(best.Point)
}

// RandomSearch samples the encoded box uniformly.
type RandomSearch struct {
	space   optimization.Space
	archive *optimization.Archive
	rng     *rand.Rand
}

// NewRandomSearch is the optimization.Constructor for RandomSearch.
func NewRandomSearch(space optimization.Space, archive *optimization.Archive, opts optimization.Options) (optimization.Optimizer, error) {
	if archive == nil {
		archive = optimization.NewArchive()
	}
	return &RandomSearch{space: space, archive: archive, rng: newRand(opts.Seed)}, nil
}

func (r *RandomSearch) Ask() optimization.Candidate {
	x := make([]float64, r.space.Dimension())
	for i := range x {
		x[i] = optimization.LowerBound + r.rng.Float64()*(optimization.UpperBound-optimization.LowerBound)
	}
	return optimization.NewCandidate(r.space, x)
}

func (r *RandomSearch) Tell(point []float64, value float64) {}

func (r *RandomSearch) Recommend() map[string]any {
	return recommend(r.space, r.archive)
}

const (
	initialSigma = 1.0
	minSigma     = 1e-6
	maxSigma     = 6.0
)

// OnePlusOne is a (1+1) evolution strategy with the one-fifth success rule:
// the step size doubles when a child is at least as good as the parent and
// shrinks by 2^(-1/4) otherwise.
type OnePlusOne struct {
	space   optimization.Space
	archive *optimization.Archive
	rng     *rand.Rand

	parent      []float64
	parentValue float64
	sigma       float64
}

// NewOnePlusOne is the optimization.Constructor for OnePlusOne.
func NewOnePlusOne(space optimization.Space, archive *optimization.Archive, opts optimization.Options) (optimization.Optimizer, error) {
	if archive == nil {
		archive = optimization.NewArchive()
	}
	return &OnePlusOne{
		space:   space,
		archive: archive,
		rng:     newRand(opts.Seed),
		sigma:   initialSigma,
	}, nil
}

// Ask returns the centre first, then Gaussian mutations of the parent.
func (o *OnePlusOne) Ask() optimization.Candidate {
	dim := o.space.Dimension()
	if o.parent == nil {
		return optimization.NewCandidate(o.space, optimization.Center(dim))
	}
	x := make([]float64, dim)
	for i := range x {
		x[i] = o.parent[i] + o.sigma*o.rng.NormFloat64()
	}
	return optimization.NewCandidate(o.space, optimization.Truncate(x))
}

// Tell replaces the parent when value is no worse and adapts the step size.
func (o *OnePlusOne) Tell(point []float64, value float64) {
	if o.parent == nil || value <= o.parentValue {
		if o.parent != nil {
			o.sigma = math.Min(o.sigma*2, maxSigma)
		}
		o.parent = append([]float64(nil), point...)
		o.parentValue = value
		return
	}
	o.sigma = math.Max(o.sigma*math.Pow(2, -0.25), minSigma)
}

func (o *OnePlusOne) Recommend() map[string]any {
	return recommend(o.space, o.archive)
}

// Sigma returns the current mutation step size.
func (o *OnePlusOne) Sigma() float64 {
	return o.sigma
}
