// Package reasoner materializes OWL-RL entailments of the graph store's
// triples. The rules live in owlrl.mg and are evaluated by the Mangle
// Datalog engine.
package reasoner

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"

	"ontomaint/internal/domain"
)

var _ domain.Reasoner = (*OWLRL)(nil)
var _ domain.Reasoner = Disabled{}

// Vocabulary used by the rules.
const (
	RDFType            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSSubClassOf     = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	RDFSSubPropertyOf  = "http://www.w3.org/2000/01/rdf-schema#subPropertyOf"
	RDFSDomain         = "http://www.w3.org/2000/01/rdf-schema#domain"
	RDFSRange          = "http://www.w3.org/2000/01/rdf-schema#range"
	OWLEquivalentClass = "http://www.w3.org/2002/07/owl#equivalentClass"
	OWLEquivalentProp  = "http://www.w3.org/2002/07/owl#equivalentProperty"
	OWLInverseOf       = "http://www.w3.org/2002/07/owl#inverseOf"
	OWLSymmetric       = "http://www.w3.org/2002/07/owl#SymmetricProperty"
	OWLTransitive      = "http://www.w3.org/2002/07/owl#TransitiveProperty"
	OWLSameAs          = "http://www.w3.org/2002/07/owl#sameAs"
)

//go:embed owlrl.mg
var ruleSource string

var vocabulary = map[string]string{
	"$TYPE":       RDFType,
	"$SUBCLASS":   RDFSSubClassOf,
	"$SUBPROP":    RDFSSubPropertyOf,
	"$DOMAIN":     RDFSDomain,
	"$RANGE":      RDFSRange,
	"$EQCLASS":    OWLEquivalentClass,
	"$EQPROP":     OWLEquivalentProp,
	"$INVERSE":    OWLInverseOf,
	"$SYMMETRIC":  OWLSymmetric,
	"$TRANSITIVE": OWLTransitive,
	"$SAMEAS":     OWLSameAs,
}

// Program returns the rule source with vocabulary placeholders expanded to
// quoted N-Triples IRIs.
func Program() string {
	pairs := make([]string, 0, 2*len(vocabulary))
	for token, iri := range vocabulary {
		pairs = append(pairs, token, `"`+domain.IRI(iri).NTriples()+`"`)
	}
	return strings.NewReplacer(pairs...).Replace(ruleSource)
}

var (
	triplePred = ast.PredicateSym{Symbol: "triple", Arity: 3}
	holdsPred  = ast.PredicateSym{Symbol: "holds", Arity: 3}
)

// OWLRL computes the closure of the OWL-RL rule subset.
type OWLRL struct {
	program *analysis.ProgramInfo
	logger  *slog.Logger
}

// New parses and analyzes the rule program.
func New(logger *slog.Logger) (*OWLRL, error) {
	unit, err := parse.Unit(strings.NewReader(Program()))
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze rules: %w", err)
	}
	return &OWLRL{program: info, logger: logger}, nil
}

// Expand reads every triple from store, evaluates the rules to a fixed
// point, and inserts the entailed triples that are not yet present. Derived
// statements with a blank node anywhere, or with a non-IRI subject or
// predicate, are not materialized, so expanding an expanded graph adds nothing.
func (r *OWLRL) Expand(ctx context.Context, store domain.GraphStore) (int, error) {
	asserted, err := store.Triples(ctx)
	if err != nil {
		return 0, err
	}
	derived, err := r.Closure(asserted)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(derived) == 0 {
		return 0, nil
	}
	if err := store.Insert(ctx, derived); err != nil {
		return 0, fmt.Errorf("insert inferred triples: %w", err)
	}
	return len(derived), nil
}

// Closure returns the triples entailed by asserted that are not already in
// asserted and are eligible for materialization.
func (r *OWLRL) Closure(asserted []domain.Triple) ([]domain.Triple, error) {
	start := time.Now()
	terms := make(map[string]domain.Term, len(asserted))
	seen := make(map[string]struct{}, len(asserted))
	for _, iri := range vocabulary {
		t := domain.IRI(iri)
		terms[t.NTriples()] = t
	}

	facts := factstore.NewSimpleInMemoryStore()
	for _, t := range asserted {
		s, p, o := t.S.NTriples(), t.P.NTriples(), t.O.NTriples()
		terms[s], terms[p], terms[o] = t.S, t.P, t.O
		seen[t.NTriples()] = struct{}{}
		facts.Add(ast.NewAtom(triplePred.Symbol, ast.String(s), ast.String(p), ast.String(o)))
	}

	if _, err := engine.EvalProgramWithStats(r.program, facts); err != nil {
		return nil, fmt.Errorf("evaluate rules: %w", err)
	}

	var derived []domain.Triple
	err := facts.GetFacts(ast.NewQuery(holdsPred), func(a ast.Atom) error {
		var parts [3]domain.Term
		for i, arg := range a.Args {
			c, ok := arg.(ast.Constant)
			if !ok {
				return fmt.Errorf("unexpected term %v in derived fact", arg)
			}
			term, ok := terms[c.Symbol]
			if !ok {
				return fmt.Errorf("derived fact references unknown term %s", c.Symbol)
			}
			parts[i] = term
		}
		t := domain.Triple{S: parts[0], P: parts[1], O: parts[2]}
		if !materializable(t) {
			return nil
		}
		if _, ok := seen[t.NTriples()]; ok {
			return nil
		}
		seen[t.NTriples()] = struct{}{}
		derived = append(derived, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.Debug("closure computed", "asserted", len(asserted), "derived", len(derived), "duration", time.Since(start))
	}
	return derived, nil
}

func materializable(t domain.Triple) bool {
	return !t.HasBlank() && t.S.IsIRI() && t.P.IsIRI()
}

// Disabled is a Reasoner that adds nothing.
type Disabled struct{}

// Expand implements domain.Reasoner.
func (Disabled) Expand(context.Context, domain.GraphStore) (int, error) { return 0, nil }
