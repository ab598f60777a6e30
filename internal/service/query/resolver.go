package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ontomaint/internal/domain"
)

// ClassIRI expands a class name to an IRI. Names that already look like an
// IRI are returned unchanged.
func (s *QueryService) ClassIRI(class string) string {
	if strings.Contains(class, "://") || strings.HasPrefix(class, "urn:") {
		return class
	}
	return s.namespace + class
}

// ResolveOptions enumerates the choices for a parameter: the distinct local
// names of the instances of its class, sorted, minus the excluded names,
// preceded by "All" when the parameter allows it. A class without instances
// yields an empty slice and no error; "All" is only offered alongside real
// choices.
func (s *QueryService) ResolveOptions(ctx context.Context, decl domain.ParamDecl) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT ?x WHERE { ?x a %s }", domain.IRI(s.ClassIRI(decl.Class)).NTriples())
	rs, err := s.graph.Select(ctx, q)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, rs.Len())
	names := make([]string, 0, rs.Len())
	for _, row := range rs.Rows {
		t := row.At(0)
		if t == nil {
			continue
		}
		name := domain.LocalName(t.Value)
		if name == "" {
			continue
		}
		if _, skip := s.excluded[name]; skip {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	if decl.AllowAll && len(names) > 0 {
		names = append([]string{domain.AllOption}, names...)
	}
	return names, nil
}

// ResolveAll resolves every parameter of a template. Parameters without
// choices carry a warning instead of failing the whole template.
func (s *QueryService) ResolveAll(ctx context.Context, desc domain.TemplateDescriptor) ([]domain.ParamOptions, error) {
	out := make([]domain.ParamOptions, 0, len(desc.Params))
	for _, p := range desc.Params {
		opts, err := s.ResolveOptions(ctx, p)
		if err != nil {
			return nil, err
		}
		po := domain.ParamOptions{Decl: p, Options: opts}
		if len(opts) == 0 {
			po.Warning = fmt.Sprintf("%v: no %s instances found, the %s filter is omitted",
				domain.ErrEmptyOptions, domain.LocalName(p.Class), p.DisplayLabel())
		}
		out = append(out, po)
	}
	return out, nil
}
