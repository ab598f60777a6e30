package sparql

import (
	"regexp"
	"strings"

	"ontomaint/internal/domain"
)

// Op is a FILTER comparison operator.
type Op string

// Supported comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpGt Op = ">"
	OpLe Op = "<="
	OpGe Op = ">="
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		return true
	}
	return false
}

var varNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Clause is one FILTER comparison between a variable and a term.
type Clause struct {
	Var   string // with or without leading '?'
	Op    Op
	Value domain.Term
}

// Eq returns a Clause comparing a variable with an IRI for equality.
func Eq(v, iri string) Clause {
	return Clause{Var: v, Op: OpEq, Value: domain.IRI(iri)}
}

// Render formats the clause as a single FILTER line.
func (c Clause) Render() (string, error) {
	name := strings.TrimPrefix(c.Var, "?")
	if !varNamePattern.MatchString(name) {
		return "", domain.ErrValidation("invalid variable name %q", c.Var)
	}
	op := c.Op
	if op == "" {
		op = OpEq
	}
	if !op.valid() {
		return "", domain.ErrValidation("unsupported filter operator %q", c.Op)
	}
	if c.Value.IsBlank() {
		return "", domain.ErrValidation("blank nodes cannot be used in filters")
	}
	return "FILTER (?" + name + " " + string(op) + " " + c.Value.NTriples() + ")", nil
}

// RenderFilters renders clauses one per line, in order.
func RenderFilters(clauses []Clause) (string, error) {
	lines := make([]string, 0, len(clauses))
	for _, c := range clauses {
		line, err := c.Render()
		if err != nil {
			return "", err
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// Inject substitutes the rendered clauses for the first filter placeholder in
// text. Any further placeholders are removed. Text without a placeholder is
// returned unchanged.
func Inject(text string, clauses []Clause) (string, error) {
	filters, err := RenderFilters(clauses)
	if err != nil {
		return "", err
	}
	out := strings.Replace(text, domain.FilterPlaceholder, filters, 1)
	return strings.ReplaceAll(out, domain.FilterPlaceholder, ""), nil
}
