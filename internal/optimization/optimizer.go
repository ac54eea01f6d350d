// Package optimization defines the ask/tell optimizer contract shared by every
// search strategy, together with the evaluation archive and the error kinds
// surfaced by the experiment engine.
package optimization

import (
	"math"

	"go.uber.org/zap"
)

const (
	// LowerBound is the lower edge of the canonical encoded coordinate range.
	LowerBound = -3.0
	// UpperBound is the upper edge of the canonical encoded coordinate range.
	UpperBound = 3.0
)

// Optimizer defines the interface for ask/tell search strategies
type Optimizer interface {
	// Ask produces the next point to evaluate. It never fails.
	Ask() Candidate

	// Tell records that point produced the objective value. The point may
	// never have been returned by Ask.
	Tell(point []float64, value float64)

	// Recommend returns the decoded best-known point
	Recommend() map[string]any
}

// Space is the view of a parameter space that strategies need.
type Space interface {
	// Dimension is the length of every encoded point.
	Dimension() int
	// Decode maps an encoded point to concrete parameter values.
	Decode(encoded []float64) map[string]any
}

// Candidate is a point under evaluation in both coordinate systems.
type Candidate struct {
	Encoded []float64      `json:"encoded"`
	Decoded map[string]any `json:"decoded"`
}

// Options carries strategy settings that are not part of the space.
type Options struct {
	// Random seed for reproducibility; zero means time-seeded
	Seed int64

	// Number of warm-up points for model-based strategies
	InitialPoints int

	Logger *zap.Logger
}

// Constructor builds a strategy bound to a space. The archive is owned by the
// experiment; strategies may read it but must not write to it.
type Constructor func(space Space, archive *Archive, opts Options) (Optimizer, error)

// Registry maps strategy titles to constructors.
type Registry map[string]Constructor

// NewCandidate decodes encoded through space.
func NewCandidate(space Space, encoded []float64) Candidate {
	return Candidate{
		Encoded: encoded,
		Decoded: space.Decode(encoded),
	}
}

// Truncate clamps every coordinate of x into [LowerBound, UpperBound] in place
// and returns x.
func Truncate(x []float64) []float64 {
	for i, v := range x {
		x[i] = math.Max(LowerBound, math.Min(v, UpperBound))
	}
	return x
}

// Center returns the origin of the encoded box for the given dimension.
func Center(dim int) []float64 {
	return make([]float64, dim)
}
