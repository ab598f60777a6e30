// Package session owns the lifecycle of one graph store: load the files,
// materialize the closure, then serve read-only queries.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"ontomaint/internal/domain"
	"ontomaint/internal/loader"
)

// State is the lifecycle stage of a Session.
type State int32

const (
	Unloaded State = iota
	Loaded
	Reasoned
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case Reasoned:
		return "reasoned"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// GraphLoader fills a store from graph files. Implemented by loader.Loader.
type GraphLoader interface {
	Load(ctx context.Context) (*loader.Result, error)
}

// Stats describes the session's graph.
type Stats struct {
	State           State
	Files           int
	LoadedTriples   int
	InferredTriples int
	LoadDuration    time.Duration
	ReasonDuration  time.Duration
}

// Config holds the collaborators of a Session.
type Config struct {
	Store    domain.GraphStore
	Loader   GraphLoader
	Reasoner domain.Reasoner
	// ResetStore clears the store before loading so that a session always
	// starts from an empty graph.
	ResetStore bool
	// Progress receives human-readable progress lines. Nil discards them.
	Progress io.Writer
	Logger   *slog.Logger
}

// Session is one graph store moving through Unloaded, Loaded and Reasoned.
// Transitions are one way. Queries are only accepted once Reasoned.
type Session struct {
	cfg   Config
	state atomic.Int32

	mu sync.Mutex // serializes transitions
	sf singleflight.Group

	statsMu sync.RWMutex
	stats   Stats
}

// New creates an Unloaded session.
func New(cfg Config) *Session {
	if cfg.Progress == nil {
		cfg.Progress = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Reasoner == nil {
		cfg.Reasoner = noReasoning{}
	}
	return &Session{cfg: cfg}
}

// State returns the current state.
func (s *Session) State() State { return State(s.state.Load()) }

// Stats returns a snapshot of the session statistics.
func (s *Session) Stats() Stats {
	s.statsMu.RLock()
	defer s.statsMu.RUnlock()
	st := s.stats
	st.State = s.State()
	return st
}

// Load moves the session from Unloaded to Loaded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Session) loadLocked(ctx context.Context) error {
	if st := s.State(); st != Unloaded {
		return domain.ErrValidation("cannot load graph: session is %s", st)
	}
	start := time.Now()
	if s.cfg.ResetStore {
		if err := s.cfg.Store.Clear(ctx); err != nil {
			return err
		}
	}
	res, err := s.cfg.Loader.Load(ctx)
	if err != nil {
		return err
	}
	n, err := s.cfg.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count loaded triples: %w", err)
	}

	elapsed := time.Since(start)
	s.statsMu.Lock()
	s.stats.Files = len(res.Files)
	s.stats.LoadedTriples = n
	s.stats.LoadDuration = elapsed
	s.statsMu.Unlock()
	s.state.Store(int32(Loaded))

	fmt.Fprintf(s.cfg.Progress, "Graph loaded with %d triples.\n", n)
	s.cfg.Logger.Info("graph loaded", "files", len(res.Files), "triples", n, "duration", elapsed)
	return nil
}

// Reason moves the session from Loaded to Reasoned by materializing the
// closure once.
func (s *Session) Reason(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reasonLocked(ctx)
}

func (s *Session) reasonLocked(ctx context.Context) error {
	if st := s.State(); st != Loaded {
		return domain.ErrValidation("cannot run reasoning: session is %s", st)
	}
	start := time.Now()
	fmt.Fprintln(s.cfg.Progress, "Running OWL RL reasoning...")
	added, err := s.cfg.Reasoner.Expand(ctx, s.cfg.Store)
	if err != nil {
		return fmt.Errorf("reasoning: %w", err)
	}
	n, err := s.cfg.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count triples: %w", err)
	}

	elapsed := time.Since(start)
	s.statsMu.Lock()
	s.stats.InferredTriples = added
	s.stats.ReasonDuration = elapsed
	s.statsMu.Unlock()
	s.state.Store(int32(Reasoned))

	fmt.Fprintf(s.cfg.Progress, "After reasoning: %d triples.\n", n)
	s.cfg.Logger.Info("reasoning complete", "inferred", added, "triples", n, "duration", elapsed)
	return nil
}

// Ready performs whichever transitions are still missing. Concurrent callers
// share a single run; each caller stops waiting when its own ctx is done.
func (s *Session) Ready(ctx context.Context) error {
	if s.State() == Reasoned {
		return nil
	}
	ch := s.sf.DoChan("ready", func() (interface{}, error) {
		runCtx := context.WithoutCancel(ctx)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.State() == Unloaded {
			if err := s.loadLocked(runCtx); err != nil {
				return nil, err
			}
		}
		if s.State() == Loaded {
			if err := s.reasonLocked(runCtx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select runs a query against the reasoned graph. It fails with
// domain.ErrNotReady before reasoning has completed.
func (s *Session) Select(ctx context.Context, query string) (*domain.ResultSet, error) {
	if s.State() != Reasoned {
		return nil, domain.ErrNotReady
	}
	return s.cfg.Store.Select(ctx, query)
}

type noReasoning struct{}

func (noReasoning) Expand(context.Context, domain.GraphStore) (int, error) { return 0, nil }
