package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memodex/internal/domain"
	"github.com/kailas-cloud/memodex/internal/domain/memo"
	"github.com/kailas-cloud/memodex/internal/domain/search/request"
	"github.com/kailas-cloud/memodex/internal/domain/search/result"
	"github.com/kailas-cloud/memodex/internal/query"
)

// DefaultKeepAlive is the scroll cursor lifetime when none is given.
const DefaultKeepAlive = 2 * time.Minute

// FacetOptions controls facet aggregation on a search.
type FacetOptions struct {
	Enabled bool
	// Fields to aggregate; empty means the service default.
	Fields []string
}

// Service compiles typed search requests and executes them.
type Service struct {
	repo        Repository
	logger      *zap.Logger
	keepAlive   time.Duration
	facetFields []string
}

// New creates a search service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, keepAlive: DefaultKeepAlive}
}

// WithKeepAlive configures the default scroll keep-alive.
func (s *Service) WithKeepAlive(d time.Duration) *Service {
	if d > 0 {
		s.keepAlive = d
	}
	return s
}

// WithFacetFields configures the facets aggregated when a request enables
// facets without naming any.
func (s *Service) WithFacetFields(fields []string) *Service {
	s.facetFields = append([]string(nil), fields...)
	return s
}

// Search compiles req, optionally attaches facet aggregations, and returns
// the normalized envelope. A nil req runs the defaults.
func (s *Service) Search(ctx context.Context, req *request.Request, facets FacetOptions) (result.Envelope, error) {
	req = orDefaults(req)
	if unknown := req.Criteria().Unknown(); len(unknown) > 0 {
		s.logger.Debug("Ignoring non-facet criteria fields", zap.Strings("fields", unknown))
	}
	body := query.NewSearchBody(req)

	if facets.Enabled {
		fields := facets.Fields
		if len(fields) == 0 {
			fields = s.facetFields
		}
		if err := validateFacetFields(fields); err != nil {
			return result.Envelope{}, domain.InvalidRequestError(err)
		}
		body.Aggs = query.Facets(fields)
	}

	start := time.Now()
	env, err := s.repo.Search(ctx, body)
	if err != nil {
		return result.Envelope{}, fmt.Errorf("search: %w", err)
	}

	s.logger.Debug("Search executed",
		zap.Int("total", env.Total),
		zap.String("relation", env.Relation),
		zap.Int("hits", len(env.Hits)),
		zap.Int("facets", len(env.Facets)),
		zap.Duration("duration", time.Since(start)),
	)
	return env, nil
}

// OpenScroll starts a cursor over every match of req. The request's size is
// the page size. A zero keepAlive uses the service default.
func (s *Service) OpenScroll(ctx context.Context, req *request.Request, keepAlive time.Duration) (result.Page, error) {
	req = orDefaults(req)
	page, err := s.repo.OpenScroll(ctx, query.NewScrollBody(req), s.orKeepAlive(keepAlive))
	if err != nil {
		return result.Page{}, fmt.Errorf("open scroll: %w", err)
	}
	s.logger.Debug("Scroll opened", zap.Int("total", page.Total), zap.Int("hits", len(page.Hits)))
	return page, nil
}

// ScrollNext fetches the next page of a cursor. An exhausted cursor returns
// an empty page.
func (s *Service) ScrollNext(ctx context.Context, scrollID string, keepAlive time.Duration) (result.Page, error) {
	if strings.TrimSpace(scrollID) == "" {
		return result.Page{}, domain.InvalidRequestError(errors.New("scroll id is required"))
	}
	page, err := s.repo.ScrollNext(ctx, scrollID, s.orKeepAlive(keepAlive))
	if err != nil {
		return result.Page{}, fmt.Errorf("scroll next: %w", err)
	}
	return page, nil
}

// ClearScroll releases a cursor.
func (s *Service) ClearScroll(ctx context.Context, scrollID string) error {
	if strings.TrimSpace(scrollID) == "" {
		return domain.InvalidRequestError(errors.New("scroll id is required"))
	}
	if err := s.repo.ClearScroll(ctx, scrollID); err != nil {
		return fmt.Errorf("clear scroll: %w", err)
	}
	return nil
}

// MultiSearch runs caller-built header/body pairs in one round trip and
// returns the per-entry engine responses unmodified.
func (s *Service) MultiSearch(ctx context.Context, entries []request.MultiSearchEntry) ([]json.RawMessage, error) {
	if len(entries) == 0 {
		return nil, domain.InvalidRequestError(errors.New("at least one entry is required"))
	}
	out, err := s.repo.MultiSearch(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("multi search: %w", err)
	}
	return out, nil
}

// Requests renders typed requests as multi-search entries against the bound index.
func Requests(reqs ...*request.Request) ([]request.MultiSearchEntry, error) {
	entries := make([]request.MultiSearchEntry, 0, len(reqs))
	for i, r := range reqs {
		body, err := json.Marshal(query.NewSearchBody(orDefaults(r)))
		if err != nil {
			return nil, fmt.Errorf("render request %d: %w", i, err)
		}
		entries = append(entries, request.MultiSearchEntry{Body: body})
	}
	return entries, nil
}

// Count returns the number of memos matching req.
func (s *Service) Count(ctx context.Context, req *request.Request) (int, error) {
	n, err := s.repo.Count(ctx, query.NewCountBody(orDefaults(req)))
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// RawSearch sends a caller-built body and returns the engine response untouched.
func (s *Service) RawSearch(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, domain.InvalidRequestError(errors.New("body is not valid JSON"))
	}
	out, err := s.repo.Raw(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("raw search: %w", err)
	}
	return out, nil
}

func (s *Service) orKeepAlive(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return s.keepAlive
}

func orDefaults(req *request.Request) *request.Request {
	if req != nil {
		return req
	}
	d := request.Defaults()
	return &d
}

// validateFacetFields accepts any keyword-mapped field, not only the filter
// facets: clientID and clientName.keyword bucket as well.
func validateFacetFields(fields []string) error {
	for _, f := range fields {
		if !memo.IsKeywordField(f) {
			return fmt.Errorf("%q is not a keyword field", f)
		}
	}
	return nil
}
