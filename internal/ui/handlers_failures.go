package ui

import (
	"net/http"
	"slices"

	"ontomaint/internal/domain"
)

const (
	impactTemplate  = "impact"
	actionsTemplate = "actions"
	failureVar      = "failure"
)

func (h *Handler) FailureDetail(w http.ResponseWriter, r *http.Request) {
	if !h.ensureReady(w, r) {
		return
	}
	ctx := r.Context()

	tmpl, err := h.Query.Template(impactTemplate)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	decl, ok := tmpl.Param(failureVar)
	if !ok {
		decl = domain.ParamDecl{Var: failureVar, Class: "ErrorContext"}
	}
	options, err := h.Query.ResolveOptions(ctx, decl)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	// The failure selection never offers "All".
	options = slices.DeleteFunc(options, func(o string) bool { return o == domain.AllOption })

	stats := h.Graph.Stats()
	if len(options) == 0 {
		renderHTML(w, http.StatusOK, failuresEmptyPage(stats))
		return
	}

	selected := r.URL.Query().Get(failureVar)
	switch {
	case selected == "":
		selected = options[0]
	case !slices.Contains(options, selected):
		h.renderServiceError(w, r, domain.ErrNotFound("failure %q not found", selected))
		return
	}

	params := []domain.ResolvedParam{{Var: failureVar, Value: selected}}
	impact := h.runPanel(ctx, impactTemplate, params)
	impact.Title = "Impact"
	impact.Empty = "No impact found for failure " + selected + "."

	var actionNames []string
	actions := h.runPanel(ctx, actionsTemplate, params)
	if actions.Err == nil {
		if col := actions.Table.Column("Action"); col >= 0 {
			for _, row := range actions.Table.Rows {
				if row[col].Bound {
					actionNames = append(actionNames, row[col].Text)
				}
			}
		}
	}

	renderHTML(w, http.StatusOK, failureDetailPage(stats, failureDetailData{
		Options:    options,
		Selected:   selected,
		Impact:     impact,
		Actions:    actionNames,
		ActionsErr: actions.Err,
	}))
}
