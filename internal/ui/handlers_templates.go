package ui

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
)

func (h *Handler) TemplatesList(w http.ResponseWriter, r *http.Request) {
	descs, err := h.Query.Templates()
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, templatesListPage(h.Graph.Stats(), descs))
}

// templateRun is a template with its resolved parameters and chosen values.
type templateRun struct {
	Template *domain.Template
	Params   []domain.ParamOptions
	Chosen   []domain.ResolvedParam
	Values   url.Values
}

// resolveTemplate loads a template, resolves its parameter choices, and picks
// each value from the request. Unknown values are a validation error.
func (h *Handler) resolveTemplate(r *http.Request) (*templateRun, error) {
	tmpl, err := h.Query.Template(chi.URLParam(r, "templateName"))
	if err != nil {
		return nil, err
	}
	params, err := h.Query.ResolveAll(r.Context(), tmpl.TemplateDescriptor)
	if err != nil {
		return nil, err
	}

	run := &templateRun{Template: tmpl, Params: params, Values: url.Values{}}
	q := r.URL.Query()
	for _, p := range params {
		if len(p.Options) == 0 {
			continue
		}
		name := p.Decl.VarName()
		value := q.Get(name)
		switch {
		case value == "":
			value = p.Options[0]
		case !slices.Contains(p.Options, value):
			return nil, domain.ErrValidation("%q is not a valid %s", value, p.Decl.DisplayLabel())
		}
		run.Values.Set(name, value)
		run.Chosen = append(run.Chosen, domain.ResolvedParam{Var: name, Value: value})
	}
	return run, nil
}

func (h *Handler) TemplateDetail(w http.ResponseWriter, r *http.Request) {
	if !h.ensureReady(w, r) {
		return
	}
	run, err := h.resolveTemplate(r)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	res, err := h.Query.Run(r.Context(), domain.SourceDashboard, run.Template.Name, run.Chosen)
	panel := panelData{Title: "Results", Empty: "Query executed successfully, but returned no results.", Err: err}
	if err == nil {
		panel.Table = present.Present(res.Results, present.Options{Prettify: true, Columns: run.Template.Columns})
	}
	renderHTML(w, http.StatusOK, templateDetailPage(h.Graph.Stats(), run, panel))
}

// TemplateDownload streams the template result as CSV with full IRIs.
func (h *Handler) TemplateDownload(w http.ResponseWriter, r *http.Request) {
	if !h.ensureReady(w, r) {
		return
	}
	run, err := h.resolveTemplate(r)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	res, err := h.Query.Run(r.Context(), domain.SourceDashboard, run.Template.Name, run.Chosen)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	tbl := present.Present(res.Results, present.Options{Columns: run.Template.Columns})
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.Template.Name+".csv"))
	w.WriteHeader(http.StatusOK)
	if err := present.WriteCSV(w, tbl); err != nil {
		h.Logger.Warn("write csv download", "template", run.Template.Name, "error", err)
	}
}
