// Package chi exposes the ranking engine over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/resumerank/internal/domain"
	domdoc "github.com/kailas-cloud/resumerank/internal/domain/document"
	domrank "github.com/kailas-cloud/resumerank/internal/domain/ranking"
	"github.com/kailas-cloud/resumerank/internal/metrics"
	healthuc "github.com/kailas-cloud/resumerank/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/resumerank/internal/usecase/indexing"
	rankinguc "github.com/kailas-cloud/resumerank/internal/usecase/ranking"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the ranking API.
type Server struct {
	ranker        Ranker
	indexer       Indexer
	health        HealthChecker
	rankings      RankingReader
	documents     DocumentWriter
	apiKeys       []string
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. indexer may be nil when no embedding
// provider is configured.
func NewServer(ranker Ranker, indexer Indexer, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		ranker:       ranker,
		indexer:      indexer,
		health:       health,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, ErrorCodeProviderUnavailable),
		sentinelHandler(domain.ErrResultSink, http.StatusInternalServerError, ErrorCodeResultSinkFailed),
	}
	return s
}

// WithRankings enables GET /v1/rankings/{id}.
func (s *Server) WithRankings(r RankingReader) *Server {
	s.rankings = r
	return s
}

// WithDocuments enables document upload and removal.
func (s *Server) WithDocuments(d DocumentWriter) *Server {
	s.documents = d
	return s
}

// WithAPIKeys enables bearer authentication for everything except /health and /metrics.
func (s *Server) WithAPIKeys(keys []string) *Server {
	s.apiKeys = keys
	return s
}

// WithMaxBodyBytes overrides the JSON body limit.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// Handler builds the router with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/rankings", s.CreateRanking)
		if s.rankings != nil {
			r.Get("/rankings/{id}", s.GetRanking)
		}
		if s.indexer != nil {
			r.Post("/embeddings/index", s.IndexEmbeddings)
		}
		if s.documents != nil {
			r.Put("/documents/{id}", s.PutDocument)
			r.Delete("/documents/{id}", s.DeleteDocument)
		}
	})
	return r
}

// CreateRanking handles POST /v1/rankings.
func (s *Server) CreateRanking(w http.ResponseWriter, r *http.Request) {
	var req CreateRankingRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must not be negative")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rk, err := s.ranker.Rank(ctx, rankinguc.Input{
		Title:       req.JobTitle,
		Description: req.JobDescription,
		DocumentIDs: req.DocumentIDs,
		Strategy:    domrank.Strategy(req.Strategy),
		CreatedBy:   req.CreatedBy,
	})
	setEmbeddingHeaders(w, usage)
	if errors.Is(err, domain.ErrResultSink) {
		s.logger.Error("ranking not persisted", zap.String("ranking_id", rk.ID()), zap.Error(err))
		resp := rankingToResponse(rk, req.Limit)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    ErrorCodeResultSinkFailed,
			Message: domain.ErrResultSink.Error(),
			Ranking: &resp,
		})
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/rankings/"+rk.ID())
	writeJSON(w, http.StatusCreated, rankingToResponse(rk, req.Limit))
}

// GetRanking handles GET /v1/rankings/{id}.
func (s *Server) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	rk, err := s.rankings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingToResponse(rk, limit))
}

// IndexEmbeddings handles POST /v1/embeddings/index.
func (s *Server) IndexEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if !s.decodeOptional(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.indexer.Index(ctx, indexinguc.Request{IDs: req.DocumentIDs, Refresh: req.Refresh})
	setEmbeddingHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, indexToResponse(results))
}

// PutDocument handles PUT /v1/documents/{id}. The body is the raw file; the format
// comes from the "format" query parameter or the Content-Type header.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, ok := requestFormat(r, id)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"format must be pdf or text (query parameter, Content-Type or file extension)")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, domdoc.MaxContentSize))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge,
				fmt.Sprintf("document exceeds %d bytes", domdoc.MaxContentSize))
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "failed to read body")
		return
	}

	doc, err := domdoc.New(id, body, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	created, err := s.documents.Put(r.Context(), []domdoc.Document{doc})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	status := http.StatusOK
	if created > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, DocumentResponse{ID: doc.ID(), Format: string(doc.Format()), Size: len(body)})
}

// DeleteDocument handles DELETE /v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body, whatever its framing, as the zero request.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", s.maxBodyBytes))
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func requestFormat(r *http.Request, id string) (domdoc.Format, bool) {
	if v := r.URL.Query().Get("format"); v != "" {
		f, err := domdoc.ParseFormat(v)
		return f, err == nil
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil {
		switch mt {
		case "application/pdf":
			return domdoc.FormatPDF, true
		case "text/plain":
			return domdoc.FormatText, true
		}
	}
	return domdoc.FormatFromFilename(id)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors keep their detail since it only describes the caller's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrProviderUnavailable,
		domain.ErrResultSink,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
