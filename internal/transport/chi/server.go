package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/filter"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/request"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
	logpkg "github.com/kailas-cloud/urbansearch/internal/logger"
	"github.com/kailas-cloud/urbansearch/internal/metrics"
	healthuc "github.com/kailas-cloud/urbansearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/urbansearch/internal/usecase/search"
)

// maxBodyBytes bounds the POST /search payload.
const maxBodyBytes = 64 << 10

// Client-facing error messages.
const (
	msgQueryTooShort = "Query too short"
	msgInvalidBody   = "Invalid request body"
	msgSearchFailed  = "Search failed"
	msgInternal      = "internal error"
)

var encodeFailedBody = []byte(`{"error":"` + msgSearchFailed + `","message":"` + msgInternal + `"}` + "\n")

// Searcher runs a validated search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (*searchuc.Response, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(ctx context.Context, w http.ResponseWriter, err error) bool

// Server serves the search HTTP API.
type Server struct {
	search        Searcher
	health        HealthChecker
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, limits request.Limits, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search: search,
		health: health,
		limits: limits,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrQueryTooShort, msgQueryTooShort),
		validationHandler(domain.ErrQueryTooLong, fmt.Sprintf("Query too long (max %d characters)", request.MaxQueryLength)),
		validationHandler(domain.ErrInvalidFilter, ""),
	}
	return s
}

// Router builds the chi router with the middleware chain. Empty apiKeys disables auth.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Post("/search", s.SearchPost)
	r.Get("/search", s.SearchGet)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		_ = writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	return r
}

// SearchPost handles POST /search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeBasic(r.Context(), w, msgInvalidBody)
		return
	}

	var fb filtersBody
	if body.Filters != nil {
		fb = *body.Filters
	}
	s.runSearch(w, r, body.Query, body.PageSize, fb)
}

// SearchGet handles GET /search?q=&limit=&city=&category=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBasic(r.Context(), w, "limit must be an integer")
			return
		}
		limit = n
	}

	s.runSearch(w, r, q.Get("q"), limit, filtersBody{
		City:     q.Get("city"),
		Category: q.Get("category"),
	})
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query string, pageSize int, fb filtersBody) {
	filters, err := filter.New(fb.City, fb.Category, fb.Rating, fb.PriceLevel, fb.MichelinStar)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	req, err := request.New(query, pageSize, filters, s.limits)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	out := searchResponse{
		Results:     resp.Results,
		SearchTier:  resp.Tier,
		Intent:      &resp.Intent,
		Suggestions: resp.Suggestions,
	}
	if out.Results == nil {
		out.Results = []domain.Summary{}
	}
	metrics.RecordTier(r.Context(), string(resp.Tier))
	s.respond(r.Context(), w, http.StatusOK, out)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	s.respond(r.Context(), w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// writeJSON encodes v before touching the status line, so an unencodable
// value turns into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailedBody)
		return fmt.Errorf("encode response: %w", err)
	}
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err //nolint:wrapcheck // client write error
}

// respond writes v and logs a failed encode or write.
func (s *Server) respond(ctx context.Context, w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		logpkg.FromContextOr(ctx, s.logger).Error("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	_ = writeJSON(w, status, errorResponse{
		Error:   code,
		Message: message,
	})
}

// writeBasic writes the 400 search shape produced without retrieval.
func writeBasic(ctx context.Context, w http.ResponseWriter, msg string) {
	metrics.RecordTier(ctx, string(tier.Basic))
	_ = writeJSON(w, http.StatusBadRequest, searchResponse{
		Results:    []domain.Summary{},
		SearchTier: tier.Basic,
		Error:      msg,
	})
}

// validationHandler maps a validation sentinel to a 400 basic response.
// An empty msg exposes the wrapped error text, which holds no internals.
func validationHandler(sentinel error, msg string) errorHandler {
	return func(ctx context.Context, w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		out := msg
		if out == "" {
			out = err.Error()
		}
		writeBasic(ctx, w, out)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(ctx, w, err) {
			return
		}
	}
	logpkg.FromContextOr(ctx, s.logger).Error("search failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgSearchFailed, msgInternal)
}
