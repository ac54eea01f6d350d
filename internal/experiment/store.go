package experiment

import (
	"encoding/binary"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/copyleftdev/hypertune/internal/logging"
	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/grid"
	"github.com/copyleftdev/hypertune/internal/optimization/space"
)

// Resolver maps optimizer titles to constructors.
type Resolver interface {
	Resolve(title string) (optimization.Constructor, error)
	Names() []string
}

// Spec is the declarative request for a new experiment.
type Spec struct {
	Params    map[string]any `json:"params"`
	Optimizer string         `json:"optimizer"`
}

// Store holds live experiments keyed by id. It is safe for concurrent use.
// The map lock is only held for map access; experiment locks are taken after
// it is released.
type Store struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment

	resolver        Resolver
	parser          *space.Parser
	logger          *logging.Logger
	metrics         *Metrics
	defaultStrategy string
	options         optimization.Options
	seeded          atomic.Int64
	now             func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics sets the collectors updated by the store.
func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithDefaultStrategy sets the title used when a Spec names no optimizer.
func WithDefaultStrategy(title string) Option {
	return func(s *Store) { s.defaultStrategy = title }
}

// WithOptimizerOptions sets the options handed to every strategy constructor.
// A non-zero Seed is a base: each experiment receives its own seed derived
// from it in creation order. A zero Seed seeds each experiment from its id.
func WithOptimizerOptions(opts optimization.Options) Option {
	return func(s *Store) { s.options = opts }
}

// NewStore creates an empty store resolving strategies through resolver.
func NewStore(resolver Resolver, opts ...Option) *Store {
	s := &Store{
		experiments:     make(map[string]*Experiment),
		resolver:        resolver,
		logger:          logging.NewNop(),
		defaultStrategy: grid.Name,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithField("component", "experiment_store")
	s.parser = space.NewParser(s.logger.Zap())
	if s.options.Logger == nil {
		s.options.Logger = s.logger.Zap()
	}
	return s
}

// Create compiles spec, builds its strategy and registers a new experiment.
// Nothing is inserted on failure.
func (s *Store) Create(spec Spec) (string, error) {
	sp, err := s.parser.Parse(spec.Params)
	if err != nil {
		return "", s.fail("Create", err)
	}

	title := spec.Optimizer
	if title == "" {
		title = s.defaultStrategy
	}
	ctor, err := s.resolver.Resolve(title)
	if err != nil {
		return "", s.fail("Create", err)
	}

	id := uuid.New()
	options := s.options
	options.Seed = s.seedFor(id)

	archive := optimization.NewArchive()
	opt, err := ctor(sp, archive, options)
	if err != nil {
		return "", s.fail("Create", err)
	}

	e := &Experiment{
		id:        id.String(),
		strategy:  title,
		space:     sp,
		optimizer: opt,
		archive:   archive,
		created:   s.now(),
	}

	s.mu.Lock()
	s.experiments[e.id] = e
	s.mu.Unlock()

	s.metrics.experimentCreated(title)
	s.logger.Info("Experiment created", map[string]interface{}{
		"experiment_id": e.id,
		"optimizer":     title,
		"dimension":     sp.Dimension(),
	})
	return e.id, nil
}

// seedFor returns a distinct non-zero seed for a new experiment.
func (s *Store) seedFor(id uuid.UUID) int64 {
	if s.options.Seed != 0 {
		seed := s.options.Seed + s.seeded.Add(1) - 1
		if seed == 0 {
			seed = math.MinInt64
		}
		return seed
	}
	return int64(binary.BigEndian.Uint64(id[:8])) | 1
}

// Ask returns the next candidate of experiment id.
func (s *Store) Ask(id string) (optimization.Candidate, error) {
	e, err := s.get(id, "Ask")
	if err != nil {
		return optimization.Candidate{}, err
	}

	c, ok := e.ask()
	if !ok {
		return optimization.Candidate{}, s.fail("Ask", notFound(id, "Ask"))
	}
	s.metrics.asked(e.strategy)
	return c, nil
}

// Tell records value for the decoded point. The point is re-encoded through
// the experiment's space and must name every parameter with an in-range value.
func (s *Store) Tell(id string, decoded map[string]any, value float64) (optimization.ArchiveEntry, error) {
	e, err := s.get(id, "Tell")
	if err != nil {
		return optimization.ArchiveEntry{}, err
	}

	point, err := e.space.Encode(decoded)
	if err != nil {
		return optimization.ArchiveEntry{}, s.fail("Tell", err)
	}
	return s.tell(e, point, value)
}

// TellEncoded records value for a point already in the encoded system.
func (s *Store) TellEncoded(id string, point []float64, value float64) (optimization.ArchiveEntry, error) {
	e, err := s.get(id, "TellEncoded")
	if err != nil {
		return optimization.ArchiveEntry{}, err
	}

	if err := e.space.Validate(point); err != nil {
		return optimization.ArchiveEntry{}, s.fail("TellEncoded", err)
	}
	return s.tell(e, append([]float64(nil), point...), value)
}

func (s *Store) tell(e *Experiment, point []float64, value float64) (optimization.ArchiveEntry, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return optimization.ArchiveEntry{}, s.fail("Tell", optimization.NewErrorf(optimization.KindMalformedValue,
			"value %v is not finite", value).WithComponent("experiment").WithOperation("Tell"))
	}

	entry, ok := e.tell(point, value)
	if !ok {
		return optimization.ArchiveEntry{}, s.fail("Tell", notFound(e.id, "Tell"))
	}
	s.metrics.told(e.strategy)
	s.logger.Debug("Evaluation recorded", map[string]interface{}{
		"experiment_id": e.id,
		"value":         value,
		"count":         entry.Count,
		"mean":          entry.Mean,
	})
	return entry, nil
}

// Status summarizes experiment id.
func (s *Store) Status(id string) (Status, error) {
	e, err := s.get(id, "Status")
	if err != nil {
		return Status{}, err
	}
	st, ok := e.status()
	if !ok {
		return Status{}, s.fail("Status", notFound(id, "Status"))
	}
	return st, nil
}

// Archive returns a snapshot of the evaluations of experiment id in the
// order their points were first told.
func (s *Store) Archive(id string) ([]optimization.ArchiveEntry, error) {
	e, err := s.get(id, "Archive")
	if err != nil {
		return nil, err
	}
	entries, ok := e.entries()
	if !ok {
		return nil, s.fail("Archive", notFound(id, "Archive"))
	}
	return entries, nil
}

// Delete removes experiment id. In-flight operations on it finish; later ones
// see NotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	e, ok := s.experiments[id]
	delete(s.experiments, id)
	s.mu.Unlock()

	if !ok {
		return s.fail("Delete", notFound(id, "Delete"))
	}
	e.close()

	s.metrics.experimentDeleted()
	s.logger.Info("Experiment deleted", map[string]interface{}{"experiment_id": id})
	return nil
}

// List returns the ids of all live experiments, sorted.
func (s *Store) List() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.experiments))
	for id := range s.experiments {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Strategies returns every optimizer title Create accepts.
func (s *Store) Strategies() []string {
	return s.resolver.Names()
}

func (s *Store) get(id, op string) (*Experiment, error) {
	s.mu.RLock()
	e, ok := s.experiments[id]
	s.mu.RUnlock()

	if !ok {
		return nil, s.fail(op, notFound(id, op))
	}
	return e, nil
}

func (s *Store) fail(op string, err error) error {
	s.metrics.failed(op, err)
	s.logger.Debug("Operation rejected", map[string]interface{}{
		"operation": op,
		"kind":      string(optimization.KindOf(err)),
		"error":     err.Error(),
	})
	return err
}

func notFound(id, op string) error {
	return optimization.NewErrorf(optimization.KindNotFound, "Experiment with ID %s not Found", id).
		WithComponent("experiment").WithOperation(op)
}
