package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gomponents "maragu.dev/gomponents"

	"ontomaint/internal/domain"
	"ontomaint/internal/service/alerts"
	"ontomaint/internal/service/query"
	"ontomaint/internal/session"
	"ontomaint/internal/templates"
)

// GraphStatus is the session as seen by the dashboard.
// Implemented by session.Session.
type GraphStatus interface {
	State() session.State
	Stats() session.Stats
	Ready(ctx context.Context) error
}

// AlertSource exposes the most recent scheduled alert check.
// Implemented by alerts.Scheduler.
type AlertSource interface {
	Last() (alerts.Check, bool)
}

type Handler struct {
	Graph      GraphStatus
	Query      *query.QueryService
	Presets    []templates.Preset
	History    domain.HistoryRepository // optional
	Alerts     AlertSource              // optional
	Production bool
	Logger     *slog.Logger
}

func NewHandler(
	graph GraphStatus,
	querySvc *query.QueryService,
	presets []templates.Preset,
	history domain.HistoryRepository,
	alertSrc AlertSource,
	production bool,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		Graph:      graph,
		Query:      querySvc,
		Presets:    presets,
		History:    history,
		Alerts:     alertSrc,
		Production: production,
		Logger:     logger,
	}
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

// ensureReady brings the graph to the Reasoned state, rendering an error page
// and returning false when that fails.
func (h *Handler) ensureReady(w http.ResponseWriter, r *http.Request) bool {
	if err := h.Graph.Ready(r.Context()); err != nil {
		h.Logger.Error("graph not ready", "error", err)
		h.renderServiceError(w, r, err)
		return false
	}
	return true
}

func (h *Handler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var validation *domain.ValidationError
	var loadErr *domain.LoadError
	var queryErr *domain.QueryError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	case errors.As(err, &validation):
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	case errors.As(err, &loadErr):
		status = http.StatusServiceUnavailable
		title = "Graph Unavailable"
		message = loadErr.Error()
	case errors.Is(err, domain.ErrNotReady):
		status = http.StatusServiceUnavailable
		title = "Graph Unavailable"
		message = err.Error()
	case errors.As(err, &queryErr):
		status = http.StatusBadGateway
		title = "Query Failed"
		message = queryErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		title = "Timed Out"
		message = "The graph store did not answer in time."
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Warn("ui request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	renderHTML(w, status, errorPage(title, message))
}
