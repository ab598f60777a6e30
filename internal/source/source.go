// Package source lists and opens serialized triple files from a local
// directory or an object store bucket.
package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ontomaint/internal/domain"
)

// DefaultGlob selects Turtle files directly inside a directory.
const DefaultGlob = "*.ttl"

// S3Options holds credentials for S3-compatible storage.
type S3Options struct {
	KeyID    string
	Secret   string
	Endpoint string
	Region   string
}

// Options configures how a base location is opened.
type Options struct {
	Glob             string
	S3               S3Options
	GCSKeyFile       string
	AzureAccountName string
	AzureAccountKey  string
}

func (o Options) glob() string {
	if o.Glob == "" {
		return DefaultGlob
	}
	return o.Glob
}

// Location is a parsed base location.
type Location struct {
	Scheme string // "file", "s3", "gs" or "az"
	Bucket string // bucket or container; empty for local paths
	Prefix string // directory path or key prefix without trailing slash
}

// ParseLocation parses a local path or an s3://, gs:// or az:// URI.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, domain.ErrValidation("graph location is required")
	}
	if !strings.Contains(raw, "://") {
		return Location{Scheme: "file", Prefix: strings.TrimRight(raw, "/")}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, domain.ErrValidation("parse graph location %q: %v", raw, err)
	}
	switch u.Scheme {
	case "file":
		return Location{Scheme: "file", Prefix: strings.TrimRight(u.Path, "/")}, nil
	case "s3", "gs", "az":
		if u.Host == "" {
			return Location{}, domain.ErrValidation("missing bucket in %q", raw)
		}
		return Location{
			Scheme: u.Scheme,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	default:
		return Location{}, domain.ErrValidation("unsupported graph location scheme %q", u.Scheme)
	}
}

// Open returns a GraphSource rooted at the given base location.
func Open(ctx context.Context, base string, opts Options) (domain.GraphSource, error) {
	loc, err := ParseLocation(base)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case "s3":
		return NewS3(loc, opts)
	case "gs":
		return NewGCS(ctx, loc, opts)
	case "az":
		return NewAzure(loc, opts)
	default:
		return NewDir(loc.Prefix, opts.glob()), nil
	}
}

// objectKeys filters object keys listed under prefix/dir down to those whose
// path relative to the directory matches glob, returned relative to prefix
// and sorted.
func objectKeys(keys []string, prefix, dir, glob string) ([]string, error) {
	root := joinKey(prefix, dir)
	var out []string
	for _, k := range keys {
		rel, ok := strings.CutPrefix(k, root+"/")
		if root == "" {
			rel, ok = k, true
		}
		if !ok || rel == "" || strings.HasSuffix(rel, "/") {
			continue
		}
		match, err := doublestar.Match(glob, rel)
		if err != nil {
			return nil, fmt.Errorf("match %q: %w", glob, err)
		}
		if match {
			out = append(out, path.Join(dir, rel))
		}
	}
	sort.Strings(out)
	return out, nil
}

func joinKey(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}
