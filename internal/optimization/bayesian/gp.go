package bayesian

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/hypertune/internal/optimization"
)

// maxJitterTries bounds the diagonal jitter escalation in Fit.
const maxJitterTries = 5

// GP implements a Gaussian Process regression model over standardized targets
type GP struct {
	kernel   Kernel
	noiseVar float64

	// Training inputs, one row per sample
	X [][]float64

	// Target standardization
	yMean, yStd float64

	alpha *mat.VecDense
	chol  mat.Cholesky

	logger *zap.Logger
}

// NewGP creates a new Gaussian Process model
func NewGP(kernel Kernel, noiseVar float64, logger *zap.Logger) *GP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GP{
		kernel:   kernel,
		noiseVar: noiseVar,
		logger:   logger.Named("gaussian_process"),
	}
}

// Fit fits the GP to inputs X and targets y.
func (gp *GP) Fit(X [][]float64, y []float64) error {
	const op = "GP.Fit"

	n := len(X)
	if n == 0 {
		return gpError(op, errors.New("no training samples"))
	}
	if n != len(y) {
		return gpError(op, fmt.Errorf("dimension mismatch: X has %d samples but y has length %d", n, len(y)))
	}

	gp.yMean, gp.yStd = stat.MeanStdDev(y, nil)
	if n < 2 || !(gp.yStd > 1e-12) {
		gp.yStd = 1
	}
	ys := mat.NewVecDense(n, nil)
	for i, v := range y {
		ys.SetVec(i, (v-gp.yMean)/gp.yStd)
	}

	K := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			K.SetSym(i, j, gp.kernel.Eval(X[i], X[j]))
		}
	}

	jitter := gp.noiseVar
	if jitter <= 0 {
		jitter = 1e-10
	}
	factorized := false
	for try := 0; try < maxJitterTries; try++ {
		Kj := mat.NewSymDense(n, nil)
		Kj.CopySym(K)
		for i := 0; i < n; i++ {
			Kj.SetSym(i, i, Kj.At(i, i)+jitter)
		}
		if gp.chol.Factorize(Kj) {
			factorized = true
			break
		}
		gp.logger.Debug("Cholesky failed, increasing jitter",
			zap.Int("samples", n),
			zap.Float64("jitter", jitter),
		)
		jitter *= 100
	}
	if !factorized {
		return gpError(op, errors.New("kernel matrix is not positive definite"))
	}

	alpha := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(alpha, ys); err != nil {
		return gpError(op, fmt.Errorf("failed to solve linear system: %w", err))
	}

	gp.alpha = alpha
	gp.X = X

	gp.logger.Debug("Fitted GP model",
		zap.Int("samples", n),
		zap.Float64("y_mean", gp.yMean),
		zap.Float64("y_std", gp.yStd),
	)
	return nil
}

// Predict returns the posterior mean and variance at x in target units.
func (gp *GP) Predict(x []float64) (float64, float64, error) {
	const op = "GP.Predict"

	if gp.alpha == nil {
		return 0, 0, gpError(op, errors.New("model not trained"))
	}

	n := len(gp.X)
	kstar := mat.NewVecDense(n, nil)
	for i, xi := range gp.X {
		kstar.SetVec(i, gp.kernel.Eval(x, xi))
	}

	mu := mat.Dot(kstar, gp.alpha)

	v := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(v, kstar); err != nil {
		return 0, 0, gpError(op, fmt.Errorf("failed to solve linear system: %w", err))
	}
	variance := math.Max(0, gp.kernel.Eval(x, x)-mat.Dot(kstar, v))

	return mu*gp.yStd + gp.yMean, variance * gp.yStd * gp.yStd, nil
}

func gpError(op string, err error) error {
	return &optimization.Error{
		Message:   "gaussian process",
		Op:        op,
		Component: "bayesian",
		Err:       err,
	}
}
