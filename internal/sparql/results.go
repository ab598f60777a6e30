package sparql

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/knakk/rdf"

	"ontomaint/internal/domain"
)

type resultsDoc struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

type binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype"`
	Lang     string `json:"xml:lang"`
}

func (b binding) term() domain.Term {
	switch b.Type {
	case "uri":
		return domain.IRI(b.Value)
	case "bnode":
		return domain.Blank(b.Value)
	default: // literal, typed-literal
		if b.Lang != "" {
			return domain.LangLiteral(b.Value, b.Lang)
		}
		return domain.TypedLiteral(b.Value, b.Datatype)
	}
}

func decodeResultsJSON(r io.Reader) (*domain.ResultSet, error) {
	var doc resultsDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domain.ErrQuery("decode sparql results: %v", err)
	}
	rs := &domain.ResultSet{Vars: doc.Head.Vars, Boolean: doc.Boolean}
	if doc.Results == nil {
		return rs, nil
	}
	rs.Rows = make([]domain.Row, 0, len(doc.Results.Bindings))
	for _, b := range doc.Results.Bindings {
		row := make(domain.Row, len(doc.Head.Vars))
		for i, v := range doc.Head.Vars {
			if cell, ok := b[v]; ok {
				t := cell.term()
				row[i] = &t
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, nil
}

func decodeGraphResult(r io.Reader, mediaType string) (*domain.ResultSet, error) {
	format := rdf.NTriples
	if mediaType == "text/turtle" {
		format = rdf.Turtle
	}
	dec := rdf.NewTripleDecoder(r, format)
	rs := &domain.ResultSet{Vars: []string{"subject", "predicate", "object"}}
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.ErrQuery("decode graph result: %v", err)
		}
		t := FromRDF(tr)
		rs.Rows = append(rs.Rows, domain.Row{&t.S, &t.P, &t.O})
	}
	return rs, nil
}

// FromRDF converts a parsed triple into the domain representation.
func FromRDF(t rdf.Triple) domain.Triple {
	return domain.Triple{S: termFromRDF(t.Subj), P: termFromRDF(t.Pred), O: termFromRDF(t.Obj)}
}

func termFromRDF(t rdf.Term) domain.Term {
	switch v := t.(type) {
	case rdf.IRI:
		return domain.IRI(v.String())
	case rdf.Blank:
		return domain.Blank(strings.TrimPrefix(v.String(), "_:"))
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return domain.LangLiteral(v.String(), lang)
		}
		return domain.TypedLiteral(v.String(), v.DataType.String())
	default:
		return domain.Literal(t.String())
	}
}
