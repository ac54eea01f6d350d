// Package bayesian provides a Gaussian-process Bayesian optimization strategy
// speaking the ask/tell protocol. Observations are read from the experiment
// archive, so repeated tells at one point are fitted as their running mean.
package bayesian

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Name is the registry title of the Bayesian strategy.
const Name = "BO"

const (
	defaultInitialPoints = 5
	defaultLengthScale   = 1.5
	defaultNoiseVar      = 1e-6
	defaultXi            = 0.01
)

// BayesianOptimizer asks random warm-up points, then maximizes Expected
// Improvement under a GP fitted to the archive.
type BayesianOptimizer struct {
	space         optimization.Space
	archive       *optimization.Archive
	initialPoints int

	// Gaussian Process model
	gp *GP

	// Acquisition function
	acquisition *ExpectedImprovement

	// Random number generator
	rng *rand.Rand

	logger *zap.Logger
}

var _ optimization.Optimizer = (*BayesianOptimizer)(nil)

// New is the optimization.Constructor for the Bayesian strategy.
func New(space optimization.Space, archive *optimization.Archive, opts optimization.Options) (optimization.Optimizer, error) {
	return NewBayesianOptimizer(space, archive, opts)
}

// NewBayesianOptimizer creates a new Bayesian Optimizer
func NewBayesianOptimizer(space optimization.Space, archive *optimization.Archive, opts optimization.Options) (*BayesianOptimizer, error) {
	if opts.InitialPoints < 1 {
		opts.InitialPoints = defaultInitialPoints
	}

	// Initialize random number generator
	rng := rand.New(rand.NewSource(opts.Seed))
	if opts.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("bayesian")

	// Matérn 5/2 over the encoded box, unit variance on standardized targets
	kernel, err := NewMatern52Kernel(defaultLengthScale, 1.0)
	if err != nil {
		return nil, err
	}

	if archive == nil {
		archive = optimization.NewArchive()
	}

	return &BayesianOptimizer{
		space:         space,
		archive:       archive,
		initialPoints: opts.InitialPoints,
		gp:            NewGP(kernel, defaultNoiseVar, logger),
		acquisition:   NewExpectedImprovement(math.Inf(1), defaultXi),
		rng:           rng,
		logger:        logger,
	}, nil
}

// Ask returns a random point during warm-up and the EI maximizer afterwards.
// Numerical failures fall back to a random point.
func (bo *BayesianOptimizer) Ask() optimization.Candidate {
	dim := bo.space.Dimension()
	if dim == 0 || bo.archive.Len() < bo.initialPoints {
		return optimization.NewCandidate(bo.space, bo.randomPoint(dim))
	}

	next, err := bo.suggest(dim)
	if err != nil {
		bo.logger.Warn("falling back to random point", zap.Error(err))
		next = bo.randomPoint(dim)
	}
	return optimization.NewCandidate(bo.space, next)
}

// Tell is a no-op; the model is refitted from the archive on every Ask.
func (bo *BayesianOptimizer) Tell(point []float64, value float64) {
	bo.logger.Debug("observation",
		zap.Float64s("point", point),
		zap.Float64("value", value),
	)
}

// Recommend returns the decoded archive entry with the lowest mean.
func (bo *BayesianOptimizer) Recommend() map[string]any {
	best, ok := bo.archive.Best()
	if !ok {
		return bo.space.Decode(optimization.Center(bo.space.Dimension()))
	}
	return bo.space.Decode(best.Point)
}

func (bo *BayesianOptimizer) suggest(dim int) ([]float64, error) {
	entries := bo.archive.Entries()
	X := make([][]float64, len(entries))
	y := make([]float64, len(entries))
	for i, e := range entries {
		X[i] = e.Point
		y[i] = e.Mean
	}

	if err := bo.gp.Fit(X, y); err != nil {
		return nil, err
	}

	best, _ := bo.archive.Best()
	bo.acquisition.UpdateBest(best.Mean)
	bo.acquisition.SetXi(defaultXi * math.Max(bo.gp.yStd, 1e-12))

	return bo.maximizeAcquisition(dim, best.Point), nil
}

// maximizeAcquisition runs Nelder-Mead from the incumbent and several random
// starts and keeps the point with the highest EI.
func (bo *BayesianOptimizer) maximizeAcquisition(dim int, incumbent []float64) []float64 {
	negEI := func(x []float64) float64 {
		xc := optimization.Truncate(append([]float64(nil), x...))
		mu, variance, err := bo.gp.Predict(xc)
		if err != nil {
			return math.Inf(1)
		}
		return -bo.acquisition.Compute(mu, math.Sqrt(variance))
	}

	nStarts := 5 + int(5*math.Sqrt(float64(dim)))
	starts := make([][]float64, 0, nStarts)
	starts = append(starts, append([]float64(nil), incumbent...))
	for len(starts) < nStarts {
		starts = append(starts, bo.randomPoint(dim))
	}

	problem := optimize.Problem{Func: negEI}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Relative:   1e-6,
			Iterations: 100,
		},
		FuncEvaluations: 2000,
	}

	bestX := bo.randomPoint(dim)
	bestVal := negEI(bestX)
	for _, start := range starts {
		if v := negEI(start); v < bestVal {
			bestVal = v
			copy(bestX, start)
		}

		method := &optimize.NelderMead{
			Reflection:  1.0,
			Expansion:   2.0,
			Contraction: 0.5,
			Shrink:      0.5,
			SimplexSize: 0.5,
		}
		result, err := optimize.Minimize(problem, start, settings, method)
		if err != nil || result == nil {
			continue
		}
		if result.F < bestVal {
			bestVal = result.F
			copy(bestX, result.X)
		}
	}

	return optimization.Truncate(bestX)
}

func (bo *BayesianOptimizer) randomPoint(dim int) []float64 {
	x := make([]float64, dim)
	for i := range x {
		x[i] = optimization.LowerBound + bo.rng.Float64()*(optimization.UpperBound-optimization.LowerBound)
	}
	return x
}
