package domain

import (
	"context"
	"io"
)

// GraphStore is the external triple store. Implemented by sparql.Client.
type GraphStore interface {
	Select(ctx context.Context, query string) (*ResultSet, error)
	Insert(ctx context.Context, triples []Triple) error
	Triples(ctx context.Context) ([]Triple, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// GraphSource lists and opens serialized triple files under a location.
// Implemented by the source package for local directories and object stores.
type GraphSource interface {
	List(ctx context.Context, dir string) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Reasoner computes the deductive closure of a store's triples.
// Implemented by reasoner.OWLRL.
type Reasoner interface {
	Expand(ctx context.Context, store GraphStore) (added int, err error)
}

// HistoryRepository persists executed query records.
// Implemented by repository.HistoryRepo.
type HistoryRepository interface {
	Insert(ctx context.Context, e *HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int64, error)
}
