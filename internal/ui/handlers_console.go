package ui

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
	"ontomaint/internal/templates"
)

// consoleData is the state of the SPARQL console form and its outcome.
type consoleData struct {
	Presets  []templates.Preset
	Preset   int
	Query    string
	Raw      bool
	Ran      bool
	Message  string
	Table    *present.Table
	Err      error
	Duration string
}

func (h *Handler) ConsolePage(w http.ResponseWriter, r *http.Request) {
	d := consoleData{Presets: h.Presets, Preset: -1}
	if len(h.Presets) > 0 {
		d.Preset = 0
	}
	if raw := r.URL.Query().Get("preset"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil || i < 0 || i >= len(h.Presets) {
			h.renderServiceError(w, r, domain.ErrNotFound("preset %q not found", raw))
			return
		}
		d.Preset = i
	}
	if d.Preset >= 0 {
		text, err := h.presetQuery(h.Presets[d.Preset])
		if err != nil {
			h.renderServiceError(w, r, err)
			return
		}
		d.Query = text
	}
	renderHTML(w, http.StatusOK, consolePage(h.Graph.Stats(), d, csrfField(r)))
}

// presetQuery composes the query text of a preset from its template.
func (h *Handler) presetQuery(p templates.Preset) (string, error) {
	tmpl, err := h.Query.Template(p.Template)
	if err != nil {
		return "", err
	}
	vars := make([]string, 0, len(p.Params))
	for v := range p.Params {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	params := make([]domain.ResolvedParam, 0, len(vars))
	for _, v := range vars {
		params = append(params, domain.ResolvedParam{Var: v, Value: p.Params[v]})
	}
	return h.Query.Compose(tmpl, params)
}

func (h *Handler) ConsoleRun(w http.ResponseWriter, r *http.Request) {
	if !h.ensureReady(w, r) {
		return
	}
	d := consoleData{
		Presets: h.Presets,
		Preset:  -1,
		Query:   r.PostFormValue("query"),
		Raw:     r.PostFormValue("raw") != "",
		Ran:     true,
	}

	res, err := h.Query.Execute(r.Context(), domain.SourceConsole, d.Query)
	switch {
	case err != nil:
		d.Err = err
	case res.Results != nil && res.Results.Boolean != nil:
		d.Message = fmt.Sprintf("ASK query answered %t.", *res.Results.Boolean)
	case res.Empty():
		d.Message = "Query executed successfully, but returned no results."
	default:
		d.Table = present.Present(res.Results, present.Options{Prettify: !d.Raw})
		d.Message = fmt.Sprintf("Query returned %d results.", len(d.Table.Rows))
	}
	if res != nil {
		d.Duration = res.Duration.String()
	}
	renderHTML(w, http.StatusOK, consolePage(h.Graph.Stats(), d, csrfField(r)))
}
