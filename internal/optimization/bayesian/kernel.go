package bayesian

import (
	"fmt"
	"math"
)

// Kernel represents a covariance function for Gaussian Processes
type Kernel interface {
	// Eval computes the kernel value between two points x1 and x2
	Eval(x1, x2 []float64) float64

	// Hyperparameters returns the current hyperparameters
	Hyperparameters() []float64

	// SetHyperparameters sets the kernel's hyperparameters
	SetHyperparameters(params []float64) error
}

// stationary holds the two hyperparameters shared by RBF and Matérn kernels.
type stationary struct {
	// Length scale parameter (larger = smoother function)
	lengthScale float64
	// Signal variance (controls the amplitude of the function)
	signalVar float64
}

func newStationary(lengthScale, signalVar float64) (stationary, error) {
	s := stationary{}
	if err := s.SetHyperparameters([]float64{lengthScale, signalVar}); err != nil {
		return s, err
	}
	return s, nil
}

func (s *stationary) Hyperparameters() []float64 {
	return []float64{s.lengthScale, s.signalVar}
}

func (s *stationary) SetHyperparameters(params []float64) error {
	if len(params) != 2 {
		return fmt.Errorf("expected 2 hyperparameters, got %d", len(params))
	}
	if !(params[0] > 0) || !(params[1] > 0) || math.IsInf(params[0], 0) || math.IsInf(params[1], 0) {
		return fmt.Errorf("hyperparameters must be positive and finite, got %v", params)
	}
	s.lengthScale = params[0]
	s.signalVar = params[1]
	return nil
}

func sqDist(x1, x2 []float64) float64 {
	sum := 0.0
	for i := range x1 {
		d := x1[i] - x2[i]
		sum += d * d
	}
	return sum
}

// RBFKernel is the squared exponential kernel
type RBFKernel struct {
	stationary
}

// NewRBFKernel creates a new RBF kernel with the given parameters
func NewRBFKernel(lengthScale, signalVar float64) (*RBFKernel, error) {
	s, err := newStationary(lengthScale, signalVar)
	if err != nil {
		return nil, err
	}
	return &RBFKernel{s}, nil
}

// Eval computes the RBF kernel value between x1 and x2
func (k *RBFKernel) Eval(x1, x2 []float64) float64 {
	r2 := sqDist(x1, x2) / (2.0 * k.lengthScale * k.lengthScale)
	return k.signalVar * math.Exp(-r2)
}

// Matern52Kernel implements the Matérn 5/2 kernel
type Matern52Kernel struct {
	stationary
}

// NewMatern52Kernel creates a new Matérn 5/2 kernel with the given parameters
func NewMatern52Kernel(lengthScale, signalVar float64) (*Matern52Kernel, error) {
	s, err := newStationary(lengthScale, signalVar)
	if err != nil {
		return nil, err
	}
	return &Matern52Kernel{s}, nil
}

// Eval computes the Matérn 5/2 kernel value between x1 and x2
func (k *Matern52Kernel) Eval(x1, x2 []float64) float64 {
	r := math.Sqrt(sqDist(x1, x2)) / k.lengthScale
	sqrt5r := math.Sqrt(5) * r
	return k.signalVar * (1.0 + sqrt5r + (5.0/3.0)*r*r) * math.Exp(-sqrt5r)
}
