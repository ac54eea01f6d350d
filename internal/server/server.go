package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/copyleftdev/hypertune/internal/config"
	apierrors "github.com/copyleftdev/hypertune/internal/errors"
	"github.com/copyleftdev/hypertune/internal/experiment"
	"github.com/copyleftdev/hypertune/internal/logging"
	"github.com/copyleftdev/hypertune/internal/optimization"
)

// Logger defines the logging interface used by the server
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Store is the experiment engine the server exposes.
type Store interface {
	Create(spec experiment.Spec) (string, error)
	Ask(id string) (optimization.Candidate, error)
	Tell(id string, decoded map[string]any, value float64) (optimization.ArchiveEntry, error)
	Status(id string) (experiment.Status, error)
	Archive(id string) ([]optimization.ArchiveEntry, error)
	Delete(id string) error
	List() []string
	Strategies() []string
}

// Server implements the HTTP and JSON-RPC front ends of the experiment store.
type Server struct {
	cfg    *config.Config
	logger Logger
	store  Store

	methods map[string]rpcMethod
}

// NewServer creates a new server instance over store.
func NewServer(cfg *config.Config, logger Logger, store Store) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	s.methods = s.rpcMethods()
	return s
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/status", s.handleServiceStatus)
	r.Get("/strategies", s.handleStrategies)

	r.Route("/experiment", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Delete("/", s.handleDelete)
			r.Get("/ask", s.handleAsk)
			r.Post("/tell", s.handleTell)
			r.Get("/archive", s.handleArchive)
		})
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

type experimentRef struct {
	ID string `json:"experiment_id"`
}

type tellRequest struct {
	Point map[string]any `json:"point"`
	Value *float64       `json:"value"`
}

type statusOK struct {
	Status string `json:"status"`
}

func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, statusOK{Status: "OK"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.store.Strategies())
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var spec experiment.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		s.fail(w, r, optimization.WrapError(err, optimization.KindInvalidSpec, "invalid request body"))
		return
	}

	id, err := s.store.Create(spec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("Experiment created", map[string]interface{}{
		"experiment_id": id,
	})
	s.respond(w, http.StatusOK, experimentRef{ID: id})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.list())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Status(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, st)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, statusOK{Status: "OK"})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Ask(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, c.Decoded)
}

func (s *Server) handleTell(w http.ResponseWriter, r *http.Request) {
	var req tellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, optimization.WrapError(err, optimization.KindMalformedPoint, "invalid request body"))
		return
	}

	entry, err := s.tell(chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"status": "OK",
		"count":  entry.Count,
		"mean":   entry.Mean,
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Archive(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, entries)
}

func (s *Server) list() []experimentRef {
	ids := s.store.List()
	out := make([]experimentRef, len(ids))
	for i, id := range ids {
		out[i] = experimentRef{ID: id}
	}
	return out
}

func (s *Server) tell(id string, req tellRequest) (optimization.ArchiveEntry, error) {
	if req.Value == nil {
		return optimization.ArchiveEntry{}, optimization.NewError(optimization.KindMalformedValue, "value is required").
			WithComponent("server").WithOperation("Tell")
	}
	return s.store.Tell(id, req.Point, *req.Value)
}

func (s *Server) respond(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	fields := map[string]interface{}{
		"error": err.Error(),
		"kind":  string(optimization.KindOf(err)),
	}
	if apierrors.StatusCode(err) >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("Request failed", fields)
	} else {
		logging.FromContext(r.Context()).Debug("Request rejected", fields)
	}
	apierrors.Write(w, err)
}
