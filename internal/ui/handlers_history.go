package ui

import (
	"net/http"
	"net/url"

	"ontomaint/internal/domain"
)

var (
	historySources  = []string{domain.SourceCLI, domain.SourceDashboard, domain.SourceConsole, domain.SourceSchedule}
	historyStatuses = []string{domain.StatusOK, domain.StatusEmpty, domain.StatusError}
)

func (h *Handler) HistoryList(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		renderHTML(w, http.StatusOK, appPage("History", "history", h.Graph.Stats(),
			emptyStateCard("Query history is not enabled.", "", "")))
		return
	}

	q := r.URL.Query()
	filter := domain.HistoryFilter{
		Source: queryChoice(q, "source", historySources),
		Status: queryChoice(q, "status", historyStatuses),
		Page:   pageFromRequest(r, 50),
	}
	entries, total, err := h.History.List(r.Context(), filter)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	kept := url.Values{}
	if filter.Source != nil {
		kept.Set("source", *filter.Source)
	}
	if filter.Status != nil {
		kept.Set("status", *filter.Status)
	}
	renderHTML(w, http.StatusOK, historyPage(h.Graph.Stats(), historyData{
		Entries: entries,
		Total:   total,
		Page:    filter.Page,
		Filters: kept,
	}))
}
