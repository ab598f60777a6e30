package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"ontomaint/internal/domain"
)

var _ domain.GraphSource = (*GCS)(nil)

// GCS reads graph files from a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	loc    Location
	glob   string
}

// NewGCS creates a GCS source. Without a key file the client falls back to
// application default credentials.
func NewGCS(ctx context.Context, loc Location, opts Options) (*GCS, error) {
	var clientOpts []option.ClientOption
	if opts.GCSKeyFile != "" {
		clientOpts = append(clientOpts, option.WithAuthCredentialsFile(option.ServiceAccount, opts.GCSKeyFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCS{client: client, loc: loc, glob: opts.glob()}, nil
}

// List returns the matching object names under dir, relative to the prefix.
func (g *GCS) List(ctx context.Context, dir string) ([]string, error) {
	root := joinKey(g.loc.Prefix, dir)
	it := g.client.Bucket(g.loc.Bucket).Objects(ctx, &storage.Query{Prefix: root + "/"})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", g.loc.Bucket, root, err)
		}
		keys = append(keys, attrs.Name)
	}
	return objectKeys(keys, g.loc.Prefix, dir, g.glob)
}

// Open streams one object.
func (g *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := joinKey(g.loc.Prefix, name)
	r, err := g.client.Bucket(g.loc.Bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", g.loc.Bucket, key, err)
	}
	return r, nil
}
