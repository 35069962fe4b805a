// Package api serves ranking and currency operations over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/wayfare/internal/currency"
	"github.com/ppiankov/wayfare/internal/metrics"
	"github.com/ppiankov/wayfare/internal/model"
	"github.com/ppiankov/wayfare/internal/pipeline"
	"github.com/ppiankov/wayfare/internal/query"
	"github.com/ppiankov/wayfare/internal/validate"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 5 << 20

// Server holds the HTTP handlers' dependencies
type Server struct {
	pipeline   *pipeline.Pipeline
	normalizer *currency.Normalizer
	metrics    *metrics.Collector // nil disables /metrics
	logger     *zap.Logger
}

// NewServer creates a server
func NewServer(p *pipeline.Pipeline, n *currency.Normalizer, m *metrics.Collector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{pipeline: p, normalizer: n, metrics: m, logger: logger}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(Logger(s.logger, s.metrics))
	} else {
		r.Use(Logger(s.logger, nil))
	}

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/query", s.compileQuery)
		r.Post("/rank", s.rank)
		r.Post("/rank/all", s.rankAll)
		r.Post("/convert", s.convert)
		r.Post("/display", s.display)
		r.Get("/rates", s.rates)
	})

	return r
}

// Request and response bodies

// QueryRequest asks for the compiled provider query of one domain
type QueryRequest struct {
	Brief  model.TripBrief `json:"brief"`
	Domain string          `json:"domain" validate:"required"`
}

// RankRequest ranks one domain's candidates
type RankRequest struct {
	Brief      model.TripBrief   `json:"brief"`
	Domain     string            `json:"domain" validate:"required"`
	Candidates []model.Candidate `json:"candidates"`
}

// RankAllRequest ranks several domains at once
type RankAllRequest struct {
	Brief      model.TripBrief              `json:"brief"`
	Candidates map[string][]model.Candidate `json:"candidates" validate:"required,min=1"`
}

// RankAllResponse holds per-domain rankings and per-domain errors
type RankAllResponse struct {
	Rankings map[model.Domain]*model.Ranking `json:"rankings"`
	Error    string                          `json:"error,omitempty"`
}

// ConvertRequest converts an amount between currencies
type ConvertRequest struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from" validate:"required,len=3"`
	To     string  `json:"to" validate:"required,len=3"`
}

// DisplayRequest prepares an amount for presentation
type DisplayRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency" validate:"required,len=3"`
	TaxesIncluded bool    `json:"taxes_included"`
}

// RatesResponse describes the current snapshot
type RatesResponse struct {
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Stale     bool            `json:"stale"`
	Rates     []currency.Rate `json:"rates"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"rates_stale": s.normalizer == nil || s.normalizer.IsStale(),
	})
}

func (s *Server) compileQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	domain, _ := model.ParseDomain(req.Domain)
	q, err := s.pipeline.Compile(req.Brief, domain)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if !s.decode(w, r, &req) {
		return
	}
	domain, _ := model.ParseDomain(req.Domain)
	ranking, err := s.pipeline.Rank(r.Context(), req.Brief, domain, req.Candidates)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (s *Server) rankAll(w http.ResponseWriter, r *http.Request) {
	var req RankAllRequest
	if !s.decode(w, r, &req) {
		return
	}
	candidates := make(map[model.Domain][]model.Candidate, len(req.Candidates))
	for name, list := range req.Candidates {
		d, _ := model.ParseDomain(name)
		candidates[d] = append(candidates[d], list...)
	}

	rankings, err := s.pipeline.RankAll(r.Context(), req.Brief, candidates)
	resp := RankAllResponse{Rankings: rankings}
	if err != nil {
		if len(rankings) == 0 {
			s.fail(w, r, err)
			return
		}
		// partial success: report the failed domains alongside the rest
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.requireRates(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.normalizer.Convert(req.Amount, req.From, req.To))
}

func (s *Server) display(w http.ResponseWriter, r *http.Request) {
	var req DisplayRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.requireRates(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.normalizer.CreateDisplay(req.Amount, req.Currency, req.TaxesIncluded))
}

func (s *Server) rates(w http.ResponseWriter, r *http.Request) {
	if !s.requireRates(w, r) {
		return
	}
	snap := s.normalizer.Snapshot()
	if snap == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "no exchange rates loaded")
		return
	}
	writeJSON(w, http.StatusOK, RatesResponse{
		Source:    snap.Source,
		Timestamp: snap.Timestamp,
		Stale:     s.normalizer.IsStale(),
		Rates:     snap.Rates(),
	})
}

func (s *Server) requireRates(w http.ResponseWriter, r *http.Request) bool {
	if s.normalizer == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "currency conversion is not configured")
		return false
	}
	return true
}

// decode reads and validates a JSON body, writing a 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// fail maps pipeline errors to status codes
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, query.ErrUnknownDomain):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, r.Context().Err()) && r.Context().Err() != nil:
		s.writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("request failed", zap.String("requestID", GetRequestID(r.Context())), zap.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: GetRequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
