package alerts

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ontomaint/internal/domain"
	"ontomaint/internal/metrics"
	"ontomaint/internal/service/query"
)

type stubRunner struct {
	calls  atomic.Int32
	source atomic.Value
	RunFn  func(ctx context.Context, name string) (*query.Result, error)
}

func (s *stubRunner) Run(ctx context.Context, source, name string, _ []domain.ResolvedParam) (*query.Result, error) {
	s.calls.Add(1)
	s.source.Store(source)
	return s.RunFn(ctx, name)
}

func alertRows(n int) *query.Result {
	rs := &domain.ResultSet{Vars: []string{"event"}}
	for i := 0; i < n; i++ {
		ev := domain.IRI("http://example.org/ontomaint#Event" + string(rune('A'+i)))
		rs.Rows = append(rs.Rows, domain.Row{&ev})
	}
	return &query.Result{Template: DefaultTemplate, Results: rs}
}

func alertChecks(t *testing.T, m *metrics.Metrics, status string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "ontomaint_alert_checks_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestScheduler_CheckNow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *query.Result
		err        error
		wantStatus string
		wantAlerts int
	}{
		{name: "alerts_present", result: alertRows(2), wantStatus: domain.StatusOK, wantAlerts: 2},
		{name: "no_alerts", result: alertRows(0), wantStatus: domain.StatusEmpty},
		{name: "graph_not_ready", err: domain.ErrNotReady, wantStatus: domain.StatusError},
		{name: "store_failure", err: errors.New("connection refused"), wantStatus: domain.StatusError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runner := &stubRunner{RunFn: func(_ context.Context, name string) (*query.Result, error) {
				assert.Equal(t, DefaultTemplate, name)
				return tc.result, tc.err
			}}
			m := metrics.New()
			s := NewScheduler(runner, m, nil)

			_, ok := s.Last()
			assert.False(t, ok)

			c := s.CheckNow(context.Background())
			assert.Equal(t, tc.wantStatus, c.Status())
			assert.Equal(t, tc.wantAlerts, c.Alerts)
			assert.Equal(t, domain.SourceSchedule, runner.source.Load())

			last, ok := s.Last()
			require.True(t, ok)
			assert.Equal(t, c.At, last.At)
			assert.InDelta(t, 1, alertChecks(t, m, tc.wantStatus), 0.001)
		})
	}
}

func TestScheduler_InvalidSpec(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := NewScheduler(&stubRunner{}, nil, nil)
	err := s.Start(context.Background(), "every now and then")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, s.Next().IsZero())
	s.Stop()
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	runner := &stubRunner{RunFn: func(context.Context, string) (*query.Result, error) {
		return alertRows(1), nil
	}}
	s := NewScheduler(runner, nil, nil)
	require.NoError(t, s.Start(context.Background(), "@every 1s"))
	assert.False(t, s.Next().IsZero())

	err := s.Start(context.Background(), "@every 1s")
	require.Error(t, err, "second start is rejected")

	assert.Eventually(t, func() bool { return runner.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()
	s.Stop()

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 1, last.Alerts)
}
