package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontomaint/internal/domain"
	"ontomaint/internal/service/alerts"
	"ontomaint/internal/service/query"
	"ontomaint/internal/session"
	"ontomaint/internal/templates"
	"ontomaint/internal/testutil"
)

const ns = query.DefaultNamespace

type fakeGraph struct {
	stats    session.Stats
	readyErr error
}

func (f *fakeGraph) State() session.State        { return f.stats.State }
func (f *fakeGraph) Stats() session.Stats        { return f.stats }
func (f *fakeGraph) Ready(context.Context) error { return f.readyErr }

type fakeAlerts struct {
	check alerts.Check
	ok    bool
}

func (f fakeAlerts) Last() (alerts.Check, bool) { return f.check, f.ok }

func literal(v string) *domain.Term {
	t := domain.Literal(v)
	return &t
}

func iri(local string) *domain.Term {
	t := domain.IRI(ns + local)
	return &t
}

// selectGraph answers the queries the dashboard issues with a small fixed graph.
func selectGraph(_ context.Context, q string) (*domain.ResultSet, error) {
	switch {
	case strings.Contains(q, "BROKEN"):
		return nil, domain.ErrQuery("Parse error: unexpected BROKEN")
	case strings.Contains(q, "<"+ns+"ErrorContext> }"):
		return testutil.Rows([]string{"x"}, []string{ns + "OverheatingA"}, []string{ns + "JamB"}, []string{ns + "BatchTest"}), nil
	case strings.Contains(q, "<"+ns+"Machine> }"):
		return &domain.ResultSet{Vars: []string{"x"}}, nil
	case strings.Contains(q, "requiresAction"):
		if strings.Contains(q, "OverheatingA") {
			return testutil.Rows([]string{"failure", "action"}, []string{ns + "OverheatingA", ns + "CoolDownA"}), nil
		}
		return &domain.ResultSet{Vars: []string{"failure", "action"}}, nil
	case strings.Contains(q, "blocksJob"):
		if !strings.Contains(q, "OverheatingA") {
			return &domain.ResultSet{Vars: []string{"failure", "machine", "job", "nextJob", "propFailure"}}, nil
		}
		return testutil.Rows([]string{"failure", "machine", "job", "nextJob", "propFailure"},
			[]string{ns + "OverheatingA", ns + "FillerB", ns + "Job1", "", ""}), nil
	case strings.Contains(q, "hasSeverity"):
		return &domain.ResultSet{
			Vars: []string{"failure", "machine", "severity", "downtime"},
			Rows: []domain.Row{{iri("OverheatingA"), iri("FillerB"), literal("5"), literal("120")}},
		}, nil
	case strings.HasPrefix(strings.TrimSpace(q), "ASK"):
		answer := true
		return &domain.ResultSet{Boolean: &answer}, nil
	case strings.Contains(q, "SELECT ?s WHERE"):
		return testutil.Rows([]string{"s"}, []string{ns + "A"}, []string{ns + "B"}), nil
	default:
		return &domain.ResultSet{}, nil
	}
}

type fixture struct {
	router  http.Handler
	graph   *fakeGraph
	history *testutil.MockHistoryRepo
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := templates.NewEmbedded()
	require.NoError(t, err)

	graph := &fakeGraph{stats: session.Stats{State: session.Reasoned, Files: 2, LoadedTriples: 40, InferredTriples: 12}}
	history := &testutil.MockHistoryRepo{}
	mem := testutil.NewMemoryStore()
	mem.SelectFn = selectGraph
	svc := query.NewQueryService(mem, store, query.Options{History: history})

	h := NewHandler(graph, svc, store.Presets(), history, nil, false, nil)
	r := chi.NewRouter()
	r.Get("/healthz", h.Healthz)
	r.Route("/ui", func(r chi.Router) { MountRoutes(r, h) })
	return &fixture{router: r, graph: graph, history: history, handler: h}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func (f *fixture) postConsole(t *testing.T, q string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("query", q)
	form.Set(csrfFormField, "tok")
	r := httptest.NewRequest(http.MethodPost, "/ui/console", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, r)
	return rr
}

func TestHome(t *testing.T) {
	t.Parallel()

	t.Run("renders_panels", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rr := f.get(t, "/ui")

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "Critical failures (severity / downtime)")
		assert.Contains(t, body, "OverheatingA")
		assert.Contains(t, body, "Downtime (min)")
		assert.Contains(t, body, "No abnormal sensor events found.")
		assert.Contains(t, body, "No scheduled check has run yet.")
		assert.Contains(t, body, "graph reasoned")
		assert.True(t, f.history.HasStatus(domain.StatusOK))
		assert.Equal(t, domain.SourceDashboard, f.history.LastEntry().Source)
	})

	t.Run("shows_last_alert_check", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.handler.Alerts = fakeAlerts{ok: true, check: alerts.Check{At: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), Alerts: 3}}
		rr := f.get(t, "/ui")

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "3 sensor alerts")
		assert.Contains(t, rr.Body.String(), "2026-03-01T08:00:00Z")
	})

	t.Run("load_failure_is_unavailable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.graph.readyErr = &domain.LoadError{File: "data/broken.ttl", Err: errors.New("unexpected token")}
		rr := f.get(t, "/ui")

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "Graph Unavailable")
		assert.Contains(t, rr.Body.String(), "data/broken.ttl")
	})
}

func TestFailureDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		wantCode int
		contains []string
		excludes []string
	}{
		{
			name:     "defaults_to_first_failure",
			path:     "/ui/failures",
			wantCode: http.StatusOK,
			contains: []string{`<option value="JamB" selected>`, "No impact found for failure JamB.", "(none)"},
			excludes: []string{"BatchTest"},
		},
		{
			name:     "selected_failure",
			path:     "/ui/failures?failure=OverheatingA",
			wantCode: http.StatusOK,
			contains: []string{"Impact", "FillerB", "Job1", "Recommended actions", "<li>CoolDownA</li>"},
		},
		{
			name:     "excluded_failure_not_found",
			path:     "/ui/failures?failure=BatchTest",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unknown_failure_not_found",
			path:     "/ui/failures?failure=Nope",
			wantCode: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rr := newFixture(t).get(t, tc.path)
			require.Equal(t, tc.wantCode, rr.Code)
			for _, s := range tc.contains {
				assert.Contains(t, rr.Body.String(), s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, rr.Body.String(), s)
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/templates")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `href="/ui/templates/impact"`)
		assert.Contains(t, rr.Body.String(), "Recommended actions")
	})

	t.Run("empty_options_warn", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rr := f.get(t, "/ui/templates/sensors")
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "no Machine instances found")
		assert.Contains(t, body, "Query executed successfully, but returned no results.")
		assert.NotContains(t, f.history.LastEntry().Query, "FILTER (?machine")
	})

	t.Run("chosen_parameter_filters", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rr := f.get(t, "/ui/templates/impact?failure=OverheatingA")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Blocked job")
		assert.Contains(t, f.history.LastEntry().Query, "FILTER (?failure = <"+ns+"OverheatingA>)")
	})

	t.Run("invalid_parameter_value", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/templates/impact?failure=BatchTest")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown_template", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/templates/nope")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("csv_download", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/templates/critical/download.csv")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="critical.csv"`)
		assert.Equal(t,
			"Failure,Machine,Severity,Downtime (min)\n"+ns+"OverheatingA,"+ns+"FillerB,5,120\n",
			rr.Body.String())
	})
}

func TestConsole(t *testing.T) {
	t.Parallel()

	t.Run("preset_prefills_query", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/console?preset=1")
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "FILTER (?failure = &lt;"+ns+"OverheatingA&gt;)")
		assert.NotContains(t, body, "__FILTER__")
		assert.Contains(t, body, `name="csrf_token"`)
	})

	t.Run("unknown_preset", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/console?preset=99")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("query_with_results", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rr := f.postConsole(t, "SELECT ?s WHERE { ?s ?p ?o }")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Query returned 2 results.")
		entry := f.history.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, domain.SourceConsole, entry.Source)
		assert.Nil(t, entry.Template)
	})

	t.Run("query_without_results", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).postConsole(t, "SELECT ?nothing WHERE { ?nothing a <urn:none> }")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Query executed successfully, but returned no results.")
	})

	t.Run("ask_answer_shown", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).postConsole(t, "ASK { ?s ?p ?o }")
		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "ASK query answered true.")
		assert.NotContains(t, body, "Query returned 0 results.")
	})

	t.Run("engine_error_shown_inline", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		rr := f.postConsole(t, "BROKEN")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Error while executing SPARQL query:")
		assert.Contains(t, rr.Body.String(), "unexpected BROKEN")
		assert.True(t, f.history.HasStatus(domain.StatusError))

		// the session keeps serving after a failed query
		rr = f.postConsole(t, "SELECT ?s WHERE { ?s ?p ?o }")
		assert.Contains(t, rr.Body.String(), "Query returned 2 results.")
	})

	t.Run("blank_query", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).postConsole(t, "   ")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "query is required")
	})

	t.Run("missing_csrf_token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		r := httptest.NewRequest(http.MethodPost, "/ui/console", strings.NewReader("query=SELECT"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := httptest.NewRecorder()
		f.router.ServeHTTP(rr, r)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Nil(t, f.history.LastEntry())
	})
}

func TestHistoryList(t *testing.T) {
	t.Parallel()

	t.Run("passes_filters", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		tmpl := "impact"
		msg := "Parse error"
		var got domain.HistoryFilter
		f.history.ListFn = func(_ context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
			got = filter
			return []domain.HistoryEntry{
				{ID: "1", Source: domain.SourceConsole, Query: "BROKEN", Status: domain.StatusError, ErrorMessage: &msg},
				{ID: "2", Source: domain.SourceDashboard, Template: &tmpl, Query: "SELECT", Status: domain.StatusOK, RowCount: 4},
			}, 5, nil
		}

		rr := f.get(t, "/ui/history?status=ERROR&max_results=2")
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, got.Status)
		assert.Equal(t, domain.StatusError, *got.Status)
		assert.Nil(t, got.Source)
		assert.Equal(t, 2, got.Page.Limit())

		body := rr.Body.String()
		assert.Contains(t, body, "Parse error")
		assert.Contains(t, body, "impact")
		assert.Contains(t, body, "status=ERROR")
		assert.Contains(t, body, "Next page")
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		rr := newFixture(t).get(t, "/ui/history")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "No queries recorded yet.")
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.handler.History = nil
		rr := f.get(t, "/ui/history")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Query history is not enabled.")
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		state      session.State
		wantCode   int
		wantStatus string
	}{
		{name: "reasoned", state: session.Reasoned, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "loaded", state: session.Loaded, wantCode: http.StatusServiceUnavailable, wantStatus: "starting"},
		{name: "unloaded", state: session.Unloaded, wantCode: http.StatusServiceUnavailable, wantStatus: "starting"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.graph.stats.State = tc.state
			rr := f.get(t, "/healthz")
			require.Equal(t, tc.wantCode, rr.Code)

			var resp healthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantStatus, resp.Status)
			assert.Equal(t, tc.state.String(), resp.State)
		})
	}
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()
	rr := newFixture(t).get(t, "/ui/static/app.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".app-shell")
}
