package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ontomaint/internal/app"
	"ontomaint/internal/config"
	"ontomaint/internal/domain"
	"ontomaint/internal/testutil"
)

const ns = "http://example.org/ontomaint#"

const testOntology = `@prefix onto: <http://example.org/ontomaint#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
onto:ThermalFailure rdfs:subClassOf onto:ErrorContext .
`

const testData = `@prefix onto: <http://example.org/ontomaint#> .
onto:OverheatingA a onto:ThermalFailure ;
    onto:affectsMachine onto:FillerB ;
    onto:blocksJob onto:FillJob1 ;
    onto:requiresAction onto:CoolDown .
`

// writeTestGraph lays out a graph directory with one ontology and one data file.
func writeTestGraph(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"ontologies/core.ttl": testOntology,
		"data/plant.ttl":      testData,
	} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// fakeSelect answers the catalog queries the CLI tests run. The in-memory
// store does not evaluate SPARQL, so rows are keyed on query text.
func fakeSelect(_ context.Context, q string) (*domain.ResultSet, error) {
	switch {
	case strings.Contains(q, "NOT_SPARQL"):
		return nil, domain.ErrQuery("parse error at line 1")
	case strings.Contains(q, "onto:blocksJob") && strings.Contains(q, "onto:FailurePropagation"):
		if !strings.Contains(q, ns+"OverheatingA") {
			return &domain.ResultSet{Vars: []string{"failure", "machine", "job", "nextJob", "propFailure"}}, nil
		}
		return testutil.Rows([]string{"failure", "machine", "job", "nextJob", "propFailure"},
			[]string{ns + "OverheatingA", ns + "FillerB", ns + "FillJob1", ns + "PackJob1", ""},
		), nil
	case strings.Contains(q, "onto:requiresAction"):
		if !strings.Contains(q, ns+"OverheatingA") {
			return &domain.ResultSet{Vars: []string{"failure", "action"}}, nil
		}
		return testutil.Rows([]string{"failure", "action"},
			[]string{ns + "OverheatingA", ns + "CoolDown"},
			[]string{ns + "OverheatingA", ns + "InspectFan"},
		), nil
	case strings.Contains(q, "SELECT DISTINCT ?failure ?machine"):
		return testutil.Rows([]string{"failure", "machine"},
			[]string{ns + "OverheatingA", ns + "FillerB"},
			[]string{ns + "PowerLoss", ""},
		), nil
	}
	return &domain.ResultSet{}, nil
}

// testOpener wires the real application stack over an in-memory store.
func testOpener(t *testing.T, store *testutil.MemoryStore) opener {
	t.Helper()
	return func(ctx context.Context, cfg *config.Config, progress io.Writer, logger *slog.Logger) (*runtime, error) {
		a, err := app.New(ctx, app.Deps{Cfg: cfg, Store: store, Progress: progress, Logger: logger})
		if err != nil {
			return nil, err
		}
		return &runtime{Graph: a.Services.Session, Query: a.Services.Query}, nil
	}
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes one invocation against a fresh graph directory.
func runCLI(t *testing.T, store *testutil.MemoryStore, args ...string) runResult {
	t.Helper()
	t.Setenv("ONTOMAINT_QUERIES_DIR", "")

	c := newCLI(testOpener(t, store))
	cmd := c.rootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	base := []string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--base", writeTestGraph(t),
		"--endpoint", "http://127.0.0.1:1/sparql",
	}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	c.close()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// newStore returns a store answering through fakeSelect.
func newStore() *testutil.MemoryStore {
	store := testutil.NewMemoryStore()
	store.SelectFn = fakeSelect
	return store
}

// containsIgnoreCase checks if s contains substr (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
