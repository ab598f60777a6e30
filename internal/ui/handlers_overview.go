package ui

import (
	"context"
	"net/http"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
	"ontomaint/internal/service/alerts"
)

const (
	criticalTemplate = "critical"
	sensorsTemplate  = alerts.DefaultTemplate
)

// panelData is one template result rendered as a card.
type panelData struct {
	Title   string
	Empty   string
	Table   *present.Table
	Err     error
	Actions []panelLink
}

type panelLink struct {
	Label string
	Href  string
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if !h.ensureReady(w, r) {
		return
	}
	ctx := r.Context()

	critical := h.runPanel(ctx, criticalTemplate, nil)
	critical.Title = "Critical failures (severity / downtime)"
	critical.Empty = "No severity/downtime data found."
	critical.Actions = []panelLink{{Label: "Open failure detail ->", Href: "/ui/failures"}}

	sensors := h.runPanel(ctx, sensorsTemplate, nil)
	sensors.Title = "Sensor alerts"
	sensors.Empty = "No abnormal sensor events found."

	var last *alerts.Check
	if h.Alerts != nil {
		if c, ok := h.Alerts.Last(); ok {
			last = &c
		}
	}

	renderHTML(w, http.StatusOK, overviewPage(h.Graph.Stats(), []panelData{critical, sensors}, last))
}

// runPanel runs a template for the dashboard. Query failures are carried in
// the panel so that one broken panel does not take the page down.
func (h *Handler) runPanel(ctx context.Context, name string, params []domain.ResolvedParam) panelData {
	res, err := h.Query.Run(ctx, domain.SourceDashboard, name, params)
	if err != nil {
		h.Logger.Warn("dashboard panel failed", "template", name, "error", err)
		return panelData{Err: err}
	}
	return panelData{Table: present.Present(res.Results, present.Options{
		Prettify: true,
		Columns:  h.columns(name),
	})}
}

// columns returns the display headers declared for a template, if any.
func (h *Handler) columns(name string) []string {
	tmpl, err := h.Query.Template(name)
	if err != nil {
		return nil
	}
	return tmpl.Columns
}
