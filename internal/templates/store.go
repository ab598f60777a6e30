// Package templates provides the named SPARQL query templates and their
// display catalog.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ontomaint/internal/domain"
)

//go:embed queries/*.sparql queries/catalog.yaml
var embedded embed.FS

// Extension is the file extension of query templates.
const Extension = ".sparql"

const catalogFile = "catalog.yaml"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Preset is a named console query built from a template and fixed values.
type Preset struct {
	Title    string            `yaml:"title"`
	Template string            `yaml:"template"`
	Params   map[string]string `yaml:"params"`
}

type catalog struct {
	Templates []domain.TemplateDescriptor `yaml:"templates"`
	Presets   []Preset                    `yaml:"presets"`
}

// Store reads query templates from a file system. Template text is read on
// every Load; the catalog is read once.
type Store struct {
	fsys    fs.FS
	catalog catalog
	byName  map[string]domain.TemplateDescriptor
}

// NewEmbedded returns the templates compiled into the binary.
func NewEmbedded() (*Store, error) {
	sub, err := fs.Sub(embedded, "queries")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// NewDir returns the templates in a directory.
func NewDir(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}
	if !info.IsDir() {
		return nil, domain.ErrValidation("%s is not a directory", dir)
	}
	return New(os.DirFS(dir))
}

// New creates a Store over fsys. A catalog.yaml at the root is optional.
func New(fsys fs.FS) (*Store, error) {
	s := &Store{fsys: fsys, byName: make(map[string]domain.TemplateDescriptor)}
	data, err := fs.ReadFile(fsys, catalogFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", catalogFile, err)
	default:
		if err := yaml.Unmarshal(data, &s.catalog); err != nil {
			return nil, fmt.Errorf("parse %s: %w", catalogFile, err)
		}
	}
	for _, d := range s.catalog.Templates {
		if !namePattern.MatchString(d.Name) {
			return nil, domain.ErrValidation("%s: invalid template name %q", catalogFile, d.Name)
		}
		for _, p := range d.Params {
			if p.VarName() == "" || p.Class == "" {
				return nil, domain.ErrValidation("%s: template %q has a parameter without var or class", catalogFile, d.Name)
			}
		}
		s.byName[d.Name] = d
	}
	return s, nil
}

// List returns descriptors for every template file: catalog entries first in
// catalog order, then undeclared files by name. Catalog entries without a
// file are skipped.
func (s *Store) List() ([]domain.TemplateDescriptor, error) {
	names, err := s.names()
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	out := make([]domain.TemplateDescriptor, 0, len(names))
	for _, d := range s.catalog.Templates {
		if present[d.Name] {
			out = append(out, withTitle(d))
			delete(present, d.Name)
		}
	}
	for _, n := range names {
		if present[n] {
			out = append(out, withTitle(domain.TemplateDescriptor{Name: n}))
		}
	}
	return out, nil
}

// Describe returns the descriptor for one template.
func (s *Store) Describe(name string) (domain.TemplateDescriptor, error) {
	t, err := s.Load(name)
	if err != nil {
		return domain.TemplateDescriptor{}, err
	}
	return t.TemplateDescriptor, nil
}

// Load reads one template. It fails with a NotFoundError when no file of
// that name exists.
func (s *Store) Load(name string) (*domain.Template, error) {
	if !namePattern.MatchString(name) {
		return nil, domain.ErrNotFound("query template %q not found", name)
	}
	data, err := fs.ReadFile(s.fsys, name+Extension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("query template %q not found", name)
		}
		return nil, fmt.Errorf("read query template %q: %w", name, err)
	}
	d, ok := s.byName[name]
	if !ok {
		d = domain.TemplateDescriptor{Name: name}
	}
	return &domain.Template{TemplateDescriptor: withTitle(d), Text: string(data)}, nil
}

// Presets returns the console presets in catalog order.
func (s *Store) Presets() []Preset {
	return append([]Preset(nil), s.catalog.Presets...)
}

func (s *Store) names() ([]string, error) {
	matches, err := fs.Glob(s.fsys, "*"+Extension)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		n := strings.TrimSuffix(path.Base(m), Extension)
		if namePattern.MatchString(n) {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func withTitle(d domain.TemplateDescriptor) domain.TemplateDescriptor {
	if d.Title == "" {
		d.Title = PrettyName(d.Name)
	}
	return d
}

// PrettyName derives a display title from a file stem: "team_workload"
// becomes "Team workload".
func PrettyName(name string) string {
	s := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
