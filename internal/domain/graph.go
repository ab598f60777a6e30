package domain

import (
	"fmt"
	"strings"
)

// NoneValue is displayed in place of an unbound or absent value.
const NoneValue = "None"

// XSDString is the implicit datatype of plain literals.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// TermKind distinguishes the three RDF term types.
type TermKind string

const (
	TermIRI     TermKind = "uri"
	TermLiteral TermKind = "literal"
	TermBlank   TermKind = "bnode"
)

// Term is a single RDF term: an IRI, a literal, or a blank node.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literals only; empty means xsd:string
	Lang     string // literals only
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: TermIRI, Value: v} }

// Literal returns a plain string literal.
func Literal(v string) Term { return Term{Kind: TermLiteral, Value: v} }

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: TermLiteral, Value: v, Datatype: datatype}
}

// LangLiteral returns a language-tagged literal.
func LangLiteral(v, lang string) Term {
	return Term{Kind: TermLiteral, Value: v, Lang: lang}
}

// Blank returns a blank node term with the given label.
func Blank(label string) Term { return Term{Kind: TermBlank, Value: label} }

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == TermBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == TermLiteral }

// String returns the raw value of the term.
func (t Term) String() string { return t.Value }

// NTriples serializes the term in N-Triples syntax. The output is also valid
// SPARQL term syntax, so it is the single formatter used for every term that
// ends up in query or update text.
func (t Term) NTriples() string {
	switch t.Kind {
	case TermIRI:
		return "<" + EscapeIRI(t.Value) + ">"
	case TermBlank:
		return "_:" + blankLabel(t.Value)
	default:
		s := `"` + EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			s += "@" + t.Lang
		case t.Datatype != "" && t.Datatype != XSDString:
			s += "^^<" + EscapeIRI(t.Datatype) + ">"
		}
		return s
	}
}

// EscapeIRI percent-encodes the characters that may not appear inside an
// IRIREF (<, >, ", {, }, |, ^, `, \ and anything at or below U+0020).
func EscapeIRI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c <= 0x20, c == '<', c == '>', c == '"', c == '{', c == '}',
			c == '|', c == '^', c == '`', c == '\\':
			fmt.Fprintf(&b, "%%%02X", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeLiteral escapes a lexical form for use between double quotes.
func EscapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
		"\b", `\b`,
		"\f", `\f`,
	)
	return r.Replace(s)
}

func blankLabel(s string) string {
	s = strings.TrimPrefix(s, "_:")
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "b"
	}
	return b.String()
}

// Triple is one (subject, predicate, object) statement.
type Triple struct {
	S Term
	P Term
	O Term
}

// NTriples renders the triple as one N-Triples statement without the newline.
func (t Triple) NTriples() string {
	return t.S.NTriples() + " " + t.P.NTriples() + " " + t.O.NTriples() + " ."
}

// HasBlank reports whether any position holds a blank node.
func (t Triple) HasBlank() bool {
	return t.S.IsBlank() || t.P.IsBlank() || t.O.IsBlank()
}

// LocalName returns the part of a reference after the last '#', or after the
// last '/' when there is no '#'. Values without either delimiter, such as
// plain literals, are returned unchanged.
func LocalName(s string) string {
	if i := strings.LastIndex(s, "#"); i >= 0 {
		return s[i+1:]
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DisplayName returns the local name of a possibly absent term, or NoneValue.
func DisplayName(t *Term) string {
	if t == nil {
		return NoneValue
	}
	return LocalName(t.Value)
}

// Row is one solution of a query. A nil entry is an unbound variable.
type Row []*Term

// At returns the term at position i, or nil when out of range or unbound.
func (r Row) At(i int) *Term {
	if i < 0 || i >= len(r) {
		return nil
	}
	return r[i]
}

// ResultSet is the tabular outcome of one query execution.
type ResultSet struct {
	Vars    []string
	Rows    []Row
	Boolean *bool // set for ASK queries
}

// Empty reports whether the query produced no solutions.
func (rs *ResultSet) Empty() bool {
	if rs == nil {
		return true
	}
	if rs.Boolean != nil {
		return false
	}
	return len(rs.Rows) == 0
}

// Len returns the number of rows.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}
