package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontomaint/internal/app"
	"ontomaint/internal/config"
	"ontomaint/internal/db"
	"ontomaint/internal/domain"
	"ontomaint/internal/session"
	"ontomaint/internal/testutil"
)

const ns = "http://example.org/ontomaint#"

const ontologyTTL = `@prefix onto: <http://example.org/ontomaint#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
onto:ThermalFailure rdfs:subClassOf onto:ErrorContext .
`

const dataTTL = `@prefix onto: <http://example.org/ontomaint#> .
onto:OverheatingA a onto:ThermalFailure ;
    onto:affectsMachine onto:FillerB .
`

func writeGraph(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"ontologies/core.ttl": ontologyTTL,
		"data/plant.ttl":      dataTTL,
	} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testConfig(base, reasoning string) *config.Config {
	return &config.Config{
		Graph: config.GraphConfig{
			Base:        base,
			OntologyDir: config.DefaultOntologyDir,
			DataDir:     config.DefaultDataDir,
			FileGlob:    config.DefaultFileGlob,
		},
		Namespace: config.DefaultNamespace,
		Reasoning: reasoning,
	}
}

func TestNew_WiresReadySession(t *testing.T) {
	ctx := context.Background()
	writeDB, readDB := db.OpenTestSQLite(t)
	store := testutil.NewMemoryStore()

	a, err := app.New(ctx, app.Deps{
		Cfg:     testConfig(writeGraph(t), config.ReasoningOWLRL),
		WriteDB: writeDB,
		ReadDB:  readDB,
		Store:   store,
	})
	require.NoError(t, err)
	require.NotNil(t, a.Services.History)
	assert.Equal(t, session.Unloaded, a.Services.Session.State())

	require.NoError(t, a.Services.Session.Ready(ctx))
	stats := a.Services.Session.Stats()
	assert.Equal(t, session.Reasoned, stats.State)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 3, stats.LoadedTriples)
	assert.Positive(t, stats.InferredTriples)
	assert.True(t, store.Has(domain.Triple{
		S: domain.IRI(ns + "OverheatingA"),
		P: domain.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"),
		O: domain.IRI(ns + "ErrorContext"),
	}))

	_, err = a.Services.Query.Run(ctx, domain.SourceCLI, "failures", nil)
	require.NoError(t, err)

	entries, total, err := a.Services.History.List(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SourceCLI, entries[0].Source)
	assert.Equal(t, domain.StatusEmpty, entries[0].Status)
}

func TestNew_ReasoningDisabled(t *testing.T) {
	ctx := context.Background()
	a, err := app.New(ctx, app.Deps{
		Cfg:   testConfig(writeGraph(t), config.ReasoningNone),
		Store: testutil.NewMemoryStore(),
	})
	require.NoError(t, err)
	assert.Nil(t, a.Services.History)

	require.NoError(t, a.Services.Session.Ready(ctx))
	assert.Zero(t, a.Services.Session.Stats().InferredTriples)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		store  bool
	}{
		{name: "missing_endpoint", mutate: func(*config.Config) {}},
		{name: "bad_location", store: true, mutate: func(c *config.Config) { c.Graph.Base = "ftp://host/graph" }},
		{name: "missing_queries_dir", store: true, mutate: func(c *config.Config) { c.QueriesDir = filepath.Join(os.TempDir(), "ontomaint-no-such-dir") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir(), config.ReasoningNone)
			tc.mutate(cfg)
			deps := app.Deps{Cfg: cfg}
			if tc.store {
				deps.Store = testutil.NewMemoryStore()
			}
			_, err := app.New(context.Background(), deps)
			require.Error(t, err)
		})
	}
}
