package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain"
	dombatch "github.com/kailas-cloud/memodex/internal/domain/batch"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/logger"
	batchuc "github.com/kailas-cloud/memodex/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/memodex/internal/usecase/document"
	healthuc "github.com/kailas-cloud/memodex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/memodex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/memodex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the memo search and ingestion API.
type Server struct {
	search        *searchuc.Service
	documents     *documentuc.Service
	batch         *batchuc.Service
	index         *indexuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	documents *documentuc.Service,
	batch *batchuc.Service,
	index *indexuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:    search,
		documents: documents,
		batch:     batch,
		index:     index,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		bulkRejectedHandler,
		invalidRequestHandler,
		sentinelHandler(domain.ErrScrollExpired, http.StatusNotFound, CodeScrollExpired),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, CodeEngineUnavailable),
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/search", func(r chi.Router) {
		r.Post("/", s.Search)
		r.Post("/agent", s.AgentSearch)
		r.Post("/count", s.Count)
		r.Post("/msearch", s.MultiSearch)
		r.Post("/_raw", s.RawSearch)
		r.Post("/scroll", s.OpenScroll)
		r.Post("/scroll/next", s.ScrollNext)
		r.Delete("/scroll/{scrollID}", s.ClearScroll)
	})

	r.Route("/memos", func(r chi.Router) {
		r.Post("/_bulk", s.BulkUpsert)
		r.Put("/{id}", s.UpsertMemo)
		r.Get("/{id}", s.GetMemo)
		r.Patch("/{id}", s.PatchMemo)
		r.Delete("/{id}", s.DeleteMemo)
	})

	r.Route("/index", func(r chi.Router) {
		r.Post("/_ensure", s.EnsureIndex)
		r.Post("/_refresh", s.RefreshIndex)
		r.Get("/_mapping", s.GetMapping)
		r.Put("/_mapping", s.PutMapping)
		r.Get("/_count", s.CountIndex)
	})
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dreq, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	env, err := s.search.Search(r.Context(), &dreq, searchuc.FacetOptions{
		Enabled: req.facetsEnabled(),
		Fields:  req.FacetFields,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelopeToDTO(env, wantRaw(r)))
}

// AgentSearch handles POST /search/agent.
func (s *Server) AgentSearch(w http.ResponseWriter, r *http.Request) {
	var req AgentSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dreq, err := request.Agent(req.Industry, req.Region, req.Currency, req.Queries, req.Size)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	env, err := s.search.Search(r.Context(), &dreq, searchuc.FacetOptions{Enabled: true})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelopeToDTO(env, wantRaw(r)))
}

// Count handles POST /search/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	dreq, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	n, err := s.search.Count(r.Context(), &dreq)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// MultiSearch handles POST /search/msearch.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	var req MultiSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Searches) > 0 && len(req.Requests) > 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "use either searches or requests, not both")
		return
	}

	var entries []request.MultiSearchEntry
	if len(req.Requests) > 0 {
		reqs := make([]*request.Request, len(req.Requests))
		for i := range req.Requests {
			dreq, err := req.Requests[i].toDomain()
			if err != nil {
				writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("request %d: %v", i, err))
				return
			}
			reqs[i] = &dreq
		}
		rendered, err := searchuc.Requests(reqs...)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		entries = rendered
	}
	for _, e := range req.Searches {
		entries = append(entries, request.MultiSearchEntry{Header: e.Header, Body: e.Body})
	}

	out, err := s.search.MultiSearch(r.Context(), entries)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MultiSearchResponse{Responses: out})
}

// RawSearch handles POST /search/_raw. The body is sent to the engine as is.
func (s *Server) RawSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	out, err := s.search.RawSearch(r.Context(), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// OpenScroll handles POST /search/scroll.
func (s *Server) OpenScroll(w http.ResponseWriter, r *http.Request) {
	var req ScrollRequest
	if !decodeBody(w, r, &req) {
		return
	}
	keepAlive, err := parseKeepAlive(req.KeepAlive)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}
	dreq, err := req.toDomainWith(request.WithSize(defaultScrollSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	page, err := s.search.OpenScroll(r.Context(), &dreq, keepAlive)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToDTO(page))
}

// ScrollNext handles POST /search/scroll/next.
func (s *Server) ScrollNext(w http.ResponseWriter, r *http.Request) {
	var req ScrollNextRequest
	if !decodeBody(w, r, &req) {
		return
	}
	keepAlive, err := parseKeepAlive(req.KeepAlive)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	page, err := s.search.ScrollNext(r.Context(), req.ScrollID, keepAlive)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToDTO(page))
}

// ClearScroll handles DELETE /search/scroll/{scrollID}.
func (s *Server) ClearScroll(w http.ResponseWriter, r *http.Request) {
	if err := s.search.ClearScroll(r.Context(), chi.URLParam(r, "scrollID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpsert handles POST /memos/_bulk. With ?mode=strict the whole load is
// verified in one bulk call and any rejected item fails the request.
func (s *Server) BulkUpsert(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Memos) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "memos must not be empty")
		return
	}
	docs := keyedFromSources(req.Memos)

	switch mode := r.URL.Query().Get("mode"); mode {
	case "", "lenient":
		outcome := s.batch.Upsert(r.Context(), docs)
		writeJSON(w, http.StatusOK, outcomeToDTO(outcome))
	case "strict":
		if err := s.batch.UpsertStrict(r.Context(), docs); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, BulkResponse{Succeeded: len(docs)})
	default:
		writeError(w, http.StatusBadRequest, CodeValidationFailed, fmt.Sprintf("unknown bulk mode %q", mode))
	}
}

// UpsertMemo handles PUT /memos/{id}.
func (s *Server) UpsertMemo(w http.ResponseWriter, r *http.Request) {
	var src memo.Source
	if !decodeBody(w, r, &src) {
		return
	}
	id, err := s.documents.Upsert(r.Context(), chi.URLParam(r, "id"), src)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemoResponse{ID: id})
}

// GetMemo handles GET /memos/{id}. ?fields=a,b restricts the source.
func (s *Server) GetMemo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var includes []string
	if f := r.URL.Query().Get("fields"); f != "" {
		includes = strings.Split(f, ",")
	}

	src, found, err := s.documents.Get(r.Context(), id, includes)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, CodeNotFound, "memo not found")
		return
	}
	writeJSON(w, http.StatusOK, MemoResponse{ID: id, Source: src})
}

// PatchMemo handles PATCH /memos/{id}.
func (s *Server) PatchMemo(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.documents.Patch(r.Context(), id, fields); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MemoResponse{ID: id})
}

// DeleteMemo handles DELETE /memos/{id}.
func (s *Server) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnsureIndex handles POST /index/_ensure.
func (s *Server) EnsureIndex(w http.ResponseWriter, r *http.Request) {
	created, err := s.index.Ensure(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, EnsureIndexResponse{Index: s.index.Name(), Created: created})
}

// RefreshIndex handles POST /index/_refresh.
func (s *Server) RefreshIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Refresh(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMapping handles GET /index/_mapping.
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	mapping, err := s.index.Mapping(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

// PutMapping handles PUT /index/_mapping.
func (s *Server) PutMapping(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.index.PutMapping(r.Context(), body); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountIndex handles GET /index/_count.
func (s *Server) CountIndex(w http.ResponseWriter, r *http.Request) {
	n, err := s.index.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
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

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func wantRaw(r *http.Request) bool {
	return r.URL.Query().Get("raw") == "true"
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
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrBulkRejected,
		domain.ErrEngineUnavailable,
		domain.ErrScrollExpired,
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

// invalidRequestHandler reports the full reason: it describes the caller's input.
func invalidRequestHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidRequest) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
	return true
}

// bulkRejectedHandler attaches the engine's item error sample.
func bulkRejectedHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrBulkRejected) {
		return false
	}
	resp := ErrorResponse{Code: CodeBulkRejected, Message: msg}
	var verr *domain.BulkVerificationError
	if errors.As(err, &verr) {
		resp.Sample = verr.Sample
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, msg)
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return CodeValidationFailed
	case errors.Is(err, domain.ErrEngineUnavailable):
		return CodeEngineUnavailable
	default:
		return CodeBulkRejected
	}
}

func batchItemMessage(r dombatch.Result) string {
	switch {
	case errors.Is(r.Err(), domain.ErrInvalidRequest):
		return r.Err().Error()
	case len(r.Detail()) > 0:
		return "rejected by engine"
	default:
		return safeDomainMessage(r.Err())
	}
}
