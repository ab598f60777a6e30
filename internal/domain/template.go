package domain

import "strings"

// FilterPlaceholder marks the point in a query template where generated
// FILTER lines are inserted.
const FilterPlaceholder = "__FILTER__"

// AllOption is the parameter choice that omits the parameter's filter.
const AllOption = "All"

// ParamDecl declares one template parameter whose choices are the instances
// of an ontology class.
type ParamDecl struct {
	Var      string `json:"var" yaml:"var"`
	Label    string `json:"label" yaml:"label"`
	Class    string `json:"class" yaml:"class"`
	AllowAll bool   `json:"allow_all,omitempty" yaml:"allow_all"`
}

// VarName returns the variable name without a leading '?'.
func (p ParamDecl) VarName() string { return strings.TrimPrefix(p.Var, "?") }

// DisplayLabel returns the label, falling back to the variable name.
func (p ParamDecl) DisplayLabel() string {
	if p.Label != "" {
		return p.Label
	}
	return p.VarName()
}

// TemplateDescriptor describes a query template without its text.
type TemplateDescriptor struct {
	Name        string      `json:"name" yaml:"name"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Params      []ParamDecl `json:"params" yaml:"params"`
	Columns     []string    `json:"columns" yaml:"columns"`
}

// Param returns the declaration for a variable, accepting "x" or "?x".
func (d TemplateDescriptor) Param(v string) (ParamDecl, bool) {
	v = strings.TrimPrefix(v, "?")
	for _, p := range d.Params {
		if p.VarName() == v {
			return p, true
		}
	}
	return ParamDecl{}, false
}

// Template is a loaded query template.
type Template struct {
	TemplateDescriptor
	Text string
}

// ResolvedParam binds a chosen local name to a template parameter.
type ResolvedParam struct {
	Var   string
	Value string
}

// Unfiltered reports whether the binding means "no filter".
func (p ResolvedParam) Unfiltered() bool {
	v := strings.TrimSpace(p.Value)
	return v == "" || v == AllOption
}

// ParamOptions is the resolved choice list for one parameter.
type ParamOptions struct {
	Decl    ParamDecl
	Options []string
	Warning string
}
