// Package query resolves template parameters, composes the final SPARQL text,
// and executes it against the reasoned graph while recording history.
package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ontomaint/internal/domain"
	"ontomaint/internal/metrics"
)

// DefaultNamespace is the namespace every entity of the maintenance graph lives in.
const DefaultNamespace = "http://example.org/ontomaint#"

// DefaultExcluded lists local names never offered as parameter choices.
var DefaultExcluded = []string{"BatchTest", "BatchUnknown"}

// Graph evaluates queries. Implemented by session.Session.
type Graph interface {
	Select(ctx context.Context, query string) (*domain.ResultSet, error)
}

// TemplateSource loads query templates. Implemented by templates.Store.
type TemplateSource interface {
	List() ([]domain.TemplateDescriptor, error)
	Load(name string) (*domain.Template, error)
}

// Options configures a QueryService.
type Options struct {
	Namespace string
	Excluded  []string
	History   domain.HistoryRepository // optional
	Metrics   *metrics.Metrics         // optional
	Logger    *slog.Logger
}

// QueryService is the single entry point front ends use to run templates
// and ad hoc queries.
//
//nolint:revive // Name chosen for clarity across package boundaries
type QueryService struct {
	graph     Graph
	templates TemplateSource
	namespace string
	excluded  map[string]struct{}
	history   domain.HistoryRepository
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(graph Graph, templates TemplateSource, opts Options) *QueryService {
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	excluded := opts.Excluded
	if excluded == nil {
		excluded = DefaultExcluded
	}
	set := make(map[string]struct{}, len(excluded))
	for _, e := range excluded {
		if e = strings.TrimSpace(e); e != "" {
			set[e] = struct{}{}
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryService{
		graph:     graph,
		templates: templates,
		namespace: ns,
		excluded:  set,
		history:   opts.History,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Namespace returns the entity namespace used for filter values.
func (s *QueryService) Namespace() string { return s.namespace }

// Templates lists the available templates.
func (s *QueryService) Templates() ([]domain.TemplateDescriptor, error) {
	return s.templates.List()
}

// Template loads one template.
func (s *QueryService) Template(name string) (*domain.Template, error) {
	return s.templates.Load(name)
}

// Result is the outcome of one execution.
type Result struct {
	Template string
	Query    string
	Results  *domain.ResultSet
	Duration time.Duration
}

// Empty reports whether the query returned no rows.
func (r *Result) Empty() bool { return r == nil || r.Results.Empty() }

// Run loads a template, composes it with params, and executes it.
func (s *QueryService) Run(ctx context.Context, source, name string, params []domain.ResolvedParam) (*Result, error) {
	tmpl, err := s.templates.Load(name)
	if err != nil {
		return nil, err
	}
	q, err := s.Compose(tmpl, params)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, source, name, q)
}

// Execute runs an ad hoc query.
func (s *QueryService) Execute(ctx context.Context, source, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrValidation("query is required")
	}
	return s.execute(ctx, source, "", query)
}

func (s *QueryService) execute(ctx context.Context, source, template, query string) (*Result, error) {
	start := time.Now()
	rs, err := s.graph.Select(ctx, query)
	elapsed := time.Since(start)

	status := domain.StatusOK
	switch {
	case err != nil:
		status = domain.StatusError
	case rs.Empty():
		status = domain.StatusEmpty
	}
	s.metrics.ObserveQuery(source, status, elapsed, rs.Len())
	s.record(ctx, source, template, query, status, err, rs.Len(), elapsed)

	if err != nil {
		if errors.Is(err, domain.ErrNotReady) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var qe *domain.QueryError
		if errors.As(err, &qe) {
			return nil, err
		}
		return nil, domain.ErrQuery("%v", err)
	}
	return &Result{Template: template, Query: query, Results: rs, Duration: elapsed}, nil
}

// record writes a history entry. Failures are logged, never returned.
func (s *QueryService) record(ctx context.Context, source, template, query, status string, qerr error, rows int, d time.Duration) {
	if s.history == nil {
		return
	}
	e := &domain.HistoryEntry{
		ID:         uuid.New().String(),
		Source:     source,
		Query:      query,
		Status:     status,
		RowCount:   int64(rows),
		DurationMs: d.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if template != "" {
		e.Template = &template
	}
	if qerr != nil {
		msg := qerr.Error()
		e.ErrorMessage = &msg
	}
	if err := s.history.Insert(context.WithoutCancel(ctx), e); err != nil {
		s.logger.Warn("record query history", "error", err)
	}
}
