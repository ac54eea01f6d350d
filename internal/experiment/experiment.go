// Package experiment owns the lifecycle of optimization experiments: a
// compiled parameter space, the strategy asking for points in it and the
// archive of evaluations told back.
package experiment

import (
	"sync"
	"time"

	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/space"
)

// Experiment is a single optimization run. All access to the optimizer and
// archive goes through mu.
type Experiment struct {
	id        string
	strategy  string
	space     *space.Space
	optimizer optimization.Optimizer
	archive   *optimization.Archive
	created   time.Time

	mu     sync.Mutex
	closed bool
}

// Status is a point-in-time summary of an experiment.
type Status struct {
	ID             string         `json:"experiment_id"`
	Strategy       string         `json:"optimizer"`
	Params         map[string]any `json:"params"`
	Dimension      int            `json:"dimension"`
	Evaluations    int            `json:"evaluations"`
	BestValue      *float64       `json:"best_value,omitempty"`
	Recommendation map[string]any `json:"recommendation"`
	CreatedAt      time.Time      `json:"created_at"`
}

func (e *Experiment) ask() (optimization.Candidate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return optimization.Candidate{}, false
	}
	return e.optimizer.Ask(), true
}

func (e *Experiment) tell(point []float64, value float64) (optimization.ArchiveEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return optimization.ArchiveEntry{}, false
	}
	entry := e.archive.Observe(point, value)
	e.optimizer.Tell(point, value)
	return entry, true
}

func (e *Experiment) status() (Status, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Status{}, false
	}

	st := Status{
		ID:          e.id,
		Strategy:    e.strategy,
		Params:      e.space.Spec(),
		Dimension:   e.space.Dimension(),
		Evaluations: e.archive.Len(),
		CreatedAt:   e.created,
	}
	if best, ok := e.archive.Best(); ok {
		mean := best.Mean
		st.BestValue = &mean
		st.Recommendation = e.optimizer.Recommend()
	}
	return st, true
}

func (e *Experiment) entries() ([]optimization.ArchiveEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, false
	}
	return e.archive.Entries(), true
}

func (e *Experiment) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}
