package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/internal/logging"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Engine defines the interface for the validation core the server fronts.
type Engine interface {
	ValidatePathway(ctx context.Context, pw *domain.Pathway, ectx domain.EvaluationContext) (*domain.ValidationReport, error)
	ValidateConditionGraph(ctx context.Context, fandomID string, proposed *domain.Edge) (*domain.GraphAudit, error)
	EvaluateConditions(ctx context.Context, fandomID, blockID string, ectx domain.EvaluationContext) (*domain.ConditionReport, error)
	AuditFandom(ctx context.Context, fandomID string) (*domain.ValidationReport, error)
	Fandoms(ctx context.Context) ([]domain.Fandom, error)
	Watch(ctx context.Context) (<-chan struct{}, error)
}

var _ Engine = (*canonry.Engine)(nil)

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	Pathway domain.Pathway           `json:"pathway"`
	Context domain.EvaluationContext `json:"context"`
}

// ProbeRequest is the body of POST /graph/{fandomID}. It carries the
// dependency edge to test against the stored graph.
type ProbeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Server exposes the engine over REST.
type Server struct {
	Engine Engine
	log    *slog.Logger
}

// NewHandler creates a new HTTP handler for the engine. A nil logger
// silences the server.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	server := &Server{Engine: engine, log: logger}

	r := chi.NewRouter()
	r.Post("/validate", server.Validate)
	r.Get("/graph/{fandomID}", server.GetGraph)
	r.Post("/graph/{fandomID}", server.ProbeGraph)
	r.Post("/conditions/{fandomID}/{blockID}", server.EvaluateConditions)
	r.Get("/audit/{fandomID}", server.AuditCatalog)
	r.Get("/fandoms", server.GetFandoms)
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/events", server.SubscribeEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Validate handles the POST /validate request. Reports with findings still
// return 200; only malformed pathways map to 400.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.log.Warn("Validate: invalid request body", "err", err)
		return
	}

	report, err := s.Engine.ValidatePathway(r.Context(), &body.Pathway, body.Context)
	if err != nil {
		s.writeEngineError(w, "Validate", err)
		return
	}
	s.writeJSON(w, report)
}

// GetGraph handles the GET /graph/{fandomID} request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	fandomID := chi.URLParam(r, "fandomID")
	audit, err := s.Engine.ValidateConditionGraph(r.Context(), fandomID, nil)
	if err != nil {
		s.writeEngineError(w, "GetGraph", err)
		return
	}
	s.writeJSON(w, audit)
}

// ProbeGraph handles the POST /graph/{fandomID} request. The stored graph is
// never mutated; the audit reports what the edge would do.
func (s *Server) ProbeGraph(w http.ResponseWriter, r *http.Request) {
	fandomID := chi.URLParam(r, "fandomID")

	var body ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.log.Warn("ProbeGraph: invalid request body", "err", err)
		return
	}
	if body.From == "" || body.To == "" {
		http.Error(w, "Proposed edge requires from and to", http.StatusBadRequest)
		return
	}

	audit, err := s.Engine.ValidateConditionGraph(r.Context(), fandomID, &domain.Edge{From: body.From, To: body.To})
	if err != nil {
		s.writeEngineError(w, "ProbeGraph", err)
		return
	}
	s.writeJSON(w, audit)
}

// EvaluateConditions handles the POST /conditions/{fandomID}/{blockID}
// request. The body is the evaluation context; an empty body means an empty
// context.
func (s *Server) EvaluateConditions(w http.ResponseWriter, r *http.Request) {
	fandomID := chi.URLParam(r, "fandomID")
	blockID := chi.URLParam(r, "blockID")

	var ectx domain.EvaluationContext
	if err := json.NewDecoder(r.Body).Decode(&ectx); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.log.Warn("EvaluateConditions: invalid request body", "err", err)
		return
	}

	report, err := s.Engine.EvaluateConditions(r.Context(), fandomID, blockID, ectx)
	if err != nil {
		s.writeEngineError(w, "EvaluateConditions", err)
		return
	}
	s.writeJSON(w, report)
}

// AuditCatalog handles the GET /audit/{fandomID} request.
func (s *Server) AuditCatalog(w http.ResponseWriter, r *http.Request) {
	fandomID := chi.URLParam(r, "fandomID")
	report, err := s.Engine.AuditFandom(r.Context(), fandomID)
	if err != nil {
		s.writeEngineError(w, "AuditCatalog", err)
		return
	}
	s.writeJSON(w, report)
}

// GetFandoms handles the GET /fandoms request.
func (s *Server) GetFandoms(w http.ResponseWriter, r *http.Request) {
	fandoms, err := s.Engine.Fandoms(r.Context())
	if err != nil {
		s.writeEngineError(w, "GetFandoms", err)
		return
	}
	s.writeJSON(w, fandoms)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "canonry-http",
		"version": strings.TrimSpace(canonry.Version),
	})
}

// SubscribeEvents handles the GET /events request (SSE). Each catalog reload
// emits one event so clients can re-validate.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.log.Error("SubscribeEvents: streaming not supported")
		return
	}

	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: catalog-updated\n\n")
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", "err", err)
	}
}

// writeEngineError maps engine failures onto status codes: malformed input is
// the caller's fault, missing entities are 404, everything else is a 500.
func (s *Server) writeEngineError(w http.ResponseWriter, op string, err error) {
	var structural *domain.StructuralError
	switch {
	case errors.As(err, &structural), errors.Is(err, domain.ErrNilPathway):
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusBadRequest)
		s.log.Warn(op+" rejected", "err", err)
	case errors.Is(err, domain.ErrFandomNotFound), errors.Is(err, domain.ErrBlockNotFound):
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusNotFound)
	default:
		http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
		s.log.Error(op+" failed", "err", err)
	}
}
