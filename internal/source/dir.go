package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"ontomaint/internal/domain"
)

var _ domain.GraphSource = (*Dir)(nil)

// Dir reads graph files from a local directory tree.
type Dir struct {
	root string
	glob string
	fsys fs.FS
}

// NewDir creates a Dir rooted at root.
func NewDir(root, glob string) *Dir {
	if glob == "" {
		glob = DefaultGlob
	}
	return &Dir{root: root, glob: glob, fsys: os.DirFS(root)}
}

// List returns the matching files in dir, relative to the root, sorted.
// A missing directory is reported as a NotFoundError.
func (d *Dir) List(_ context.Context, dir string) ([]string, error) {
	sub := path.Clean(filepath.ToSlash(dir))
	info, err := fs.Stat(d.fsys, sub)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("directory %q not found under %s", dir, d.root)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, domain.ErrValidation("%s is not a directory", filepath.Join(d.root, dir))
	}

	subFS, err := fs.Sub(d.fsys, sub)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	matches, err := doublestar.Glob(subFS, d.glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q in %s: %w", d.glob, dir, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, path.Join(sub, m))
	}
	sort.Strings(out)
	return out, nil
}

// Open opens a file returned by List.
func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := d.fsys.Open(path.Clean(filepath.ToSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Join(d.root, name), err)
	}
	return f, nil
}
