// Package alerts runs the sensor alert template on a cron schedule.
package alerts

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ontomaint/internal/domain"
	"ontomaint/internal/metrics"
	"ontomaint/internal/service/query"
)

// DefaultTemplate is the template evaluated on every check.
const DefaultTemplate = "sensors"

const checkTimeout = time.Minute

// Runner executes a named template. Implemented by query.QueryService.
type Runner interface {
	Run(ctx context.Context, source, name string, params []domain.ResolvedParam) (*query.Result, error)
}

// Check is the outcome of one alert evaluation.
type Check struct {
	At      time.Time
	Alerts  int
	Results *domain.ResultSet
	Err     error
}

// Status returns the history status the check maps to.
func (c Check) Status() string {
	switch {
	case c.Err != nil:
		return domain.StatusError
	case c.Alerts == 0:
		return domain.StatusEmpty
	default:
		return domain.StatusOK
	}
}

// Scheduler periodically evaluates the alert template and keeps the latest
// outcome for the dashboard.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	metrics  *metrics.Metrics
	logger   *slog.Logger
	template string

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
	base    context.Context
	last    *Check
}

// NewScheduler creates a Scheduler. metrics may be nil.
func NewScheduler(runner Runner, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner:   runner,
		metrics:  m,
		logger:   logger,
		template: DefaultTemplate,
	}
}

// Start registers spec (standard five-field cron or a descriptor such as
// "@every 5m") and starts the scheduler. Checks run with ctx as parent.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return domain.ErrValidation("alert scheduler already started")
	}

	s.base = ctx
	id, err := s.cron.AddFunc(spec, func() { s.CheckNow(s.base) })
	if err != nil {
		return domain.ErrValidation("invalid alert schedule %q: %v", spec, err)
	}
	s.entry = id
	s.started = true
	s.cron.Start()
	s.logger.Info("alert scheduler started", "schedule", spec, "template", s.template)
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("alert scheduler stopped")
}

// Next returns the time of the next scheduled check, or the zero time.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// CheckNow evaluates the alert template once and records the outcome.
func (s *Scheduler) CheckNow(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	c := Check{At: time.Now()}
	res, err := s.runner.Run(ctx, domain.SourceSchedule, s.template, nil)
	if err != nil {
		c.Err = err
	} else {
		c.Results = res.Results
		c.Alerts = res.Results.Len()
	}

	switch {
	case errors.Is(err, domain.ErrNotReady):
		s.logger.Debug("alert check skipped, graph not ready")
	case err != nil:
		s.logger.Warn("alert check failed", "error", err)
	case c.Alerts > 0:
		s.logger.Warn("sensor alerts present", "count", c.Alerts)
	default:
		s.logger.Debug("alert check clean")
	}
	s.metrics.ObserveAlertCheck(c.Status(), c.Alerts)

	s.mu.Lock()
	s.last = &c
	s.mu.Unlock()
	return c
}

// Last returns the most recent check.
func (s *Scheduler) Last() (Check, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Check{}, false
	}
	return *s.last, true
}
