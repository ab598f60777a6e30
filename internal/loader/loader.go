// Package loader parses Turtle files and uploads their triples to the graph store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/knakk/rdf"
	"golang.org/x/sync/errgroup"

	"ontomaint/internal/domain"
	"ontomaint/internal/sparql"
)

// DefaultDirs are loaded in order: ontology definitions, then instance data.
var DefaultDirs = []string{"ontologies", "data"}

const defaultParallelism = 4

// Loader moves the triples of every graph file into a store.
type Loader struct {
	source      domain.GraphSource
	store       domain.GraphStore
	dirs        []string
	parallelism int
	logger      *slog.Logger
}

// Option customizes a Loader.
type Option func(*Loader)

// WithDirs overrides the directories loaded, in order.
func WithDirs(dirs ...string) Option {
	return func(l *Loader) { l.dirs = dirs }
}

// WithParallelism bounds how many files are parsed at once.
func WithParallelism(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.parallelism = n
		}
	}
}

// New creates a Loader.
func New(source domain.GraphSource, store domain.GraphStore, logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		source:      source,
		store:       store,
		dirs:        DefaultDirs,
		parallelism: defaultParallelism,
		logger:      logger,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Result summarizes one load.
type Result struct {
	Files   []string
	Triples int
}

// Load parses every matching file and inserts its triples. Files are parsed
// concurrently but uploaded in directory order, then name order. The first
// unreadable or malformed file aborts the load with a LoadError.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	var files []string
	for _, dir := range l.dirs {
		names, err := l.source.List(ctx, dir)
		if err != nil {
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				l.logger.Warn("graph directory missing, skipping", "dir", dir)
				continue
			}
			return nil, &domain.LoadError{File: dir, Err: err}
		}
		files = append(files, names...)
	}

	parsed := make([][]domain.Triple, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, name := range files {
		g.Go(func() error {
			triples, err := l.parseFile(gctx, name, fmt.Sprintf("f%d", i))
			if err != nil {
				return &domain.LoadError{File: name, Err: err}
			}
			parsed[i] = triples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Files: files}
	for i, name := range files {
		if err := l.store.Insert(ctx, parsed[i]); err != nil {
			return nil, &domain.LoadError{File: name, Err: err}
		}
		res.Triples += len(parsed[i])
		l.logger.Debug("graph file loaded", "file", name, "triples", len(parsed[i]))
	}
	return res, nil
}

// parseFile decodes one Turtle file. Blank node labels are prefixed with
// scope so that nodes from different files never merge.
func (l *Loader) parseFile(ctx context.Context, name, scope string) ([]domain.Triple, error) {
	rc, err := l.source.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck
	return Parse(rc, scope)
}

// Parse decodes Turtle from r. Blank node labels are prefixed with scope.
func Parse(r io.Reader, scope string) ([]domain.Triple, error) {
	dec := rdf.NewTripleDecoder(r, rdf.Turtle)
	var out []domain.Triple
	for {
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		tr := sparql.FromRDF(t)
		tr.S = scopeBlank(tr.S, scope)
		tr.O = scopeBlank(tr.O, scope)
		out = append(out, tr)
	}
}

func scopeBlank(t domain.Term, scope string) domain.Term {
	if t.IsBlank() && scope != "" {
		t.Value = scope + "_" + t.Value
	}
	return t
}
