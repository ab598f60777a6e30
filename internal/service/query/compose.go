package query

import (
	"ontomaint/internal/domain"
	"ontomaint/internal/sparql"
)

// Clauses turns resolved parameters into equality filters on
// namespace-qualified IRIs. Parameters bound to "All" or to nothing are
// skipped. When the template declares parameters, only declared variables
// are accepted.
func (s *QueryService) Clauses(desc domain.TemplateDescriptor, params []domain.ResolvedParam) ([]sparql.Clause, error) {
	clauses := make([]sparql.Clause, 0, len(params))
	for _, p := range params {
		if p.Unfiltered() {
			continue
		}
		if len(desc.Params) > 0 {
			if _, ok := desc.Param(p.Var); !ok {
				return nil, domain.ErrValidation("template %q has no parameter %q", desc.Name, p.Var)
			}
		}
		clauses = append(clauses, sparql.Eq(p.Var, s.namespace+p.Value))
	}
	return clauses, nil
}

// Compose substitutes the filters for params into the template text. With no
// effective filters the placeholder is replaced by the empty string.
func (s *QueryService) Compose(tmpl *domain.Template, params []domain.ResolvedParam) (string, error) {
	clauses, err := s.Clauses(tmpl.TemplateDescriptor, params)
	if err != nil {
		return "", err
	}
	return sparql.Inject(tmpl.Text, clauses)
}
