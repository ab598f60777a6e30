// Package app wires the graph stack shared by the CLI and the dashboard:
// source, store, loader, reasoner, session, templates, history and queries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"ontomaint/internal/config"
	"ontomaint/internal/db/repository"
	"ontomaint/internal/domain"
	"ontomaint/internal/loader"
	"ontomaint/internal/metrics"
	"ontomaint/internal/reasoner"
	"ontomaint/internal/service/query"
	"ontomaint/internal/session"
	"ontomaint/internal/sparql"
	"ontomaint/internal/source"
	"ontomaint/internal/templates"
)

// Deps holds what main() provides. Store and Source override the ones
// derived from Cfg; tests use them to swap in fakes.
type Deps struct {
	Cfg      *config.Config
	WriteDB  *sql.DB // nil disables query history
	ReadDB   *sql.DB
	Store    domain.GraphStore
	Source   domain.GraphSource
	Metrics  *metrics.Metrics // optional
	Progress io.Writer        // session progress lines; nil discards
	Logger   *slog.Logger
}

// Services groups the wired components front ends use.
type Services struct {
	Session   *session.Session
	Query     *query.QueryService
	Templates *templates.Store
	History   *repository.HistoryRepo // nil when history is disabled
}

// App is the fully wired application.
type App struct {
	Services Services
	Store    domain.GraphStore
}

// New wires every component from deps. Nothing is loaded yet; the session
// starts Unloaded.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// === Graph store ===
	store := deps.Store
	if store == nil {
		client, err := sparql.NewClient(sparql.Options{
			QueryURL:  cfg.SPARQL.QueryURL,
			UpdateURL: cfg.SPARQL.UpdateURL,
			User:      cfg.SPARQL.User,
			Password:  cfg.SPARQL.Password,
			Timeout:   cfg.SPARQL.Timeout,
			Logger:    logger.With("component", "sparql"),
		})
		if err != nil {
			return nil, fmt.Errorf("sparql client: %w", err)
		}
		store = client
	}

	// === Graph files ===
	src := deps.Source
	if src == nil {
		var err error
		src, err = source.Open(ctx, cfg.Graph.Base, sourceOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("open graph source: %w", err)
		}
	}
	ld := loader.New(src, store, logger.With("component", "loader"),
		loader.WithDirs(cfg.Graph.OntologyDir, cfg.Graph.DataDir))

	// === Reasoning ===
	var rsn domain.Reasoner = reasoner.Disabled{}
	if cfg.Reasoning != config.ReasoningNone {
		owl, err := reasoner.New(logger.With("component", "reasoner"))
		if err != nil {
			return nil, fmt.Errorf("reasoner: %w", err)
		}
		rsn = owl
	}

	sess := session.New(session.Config{
		Store:      store,
		Loader:     ld,
		Reasoner:   rsn,
		ResetStore: cfg.StoreReset,
		Progress:   deps.Progress,
		Logger:     logger.With("component", "session"),
	})

	// === Templates ===
	var tmpls *templates.Store
	var err error
	if cfg.QueriesDir != "" {
		tmpls, err = templates.NewDir(cfg.QueriesDir)
	} else {
		tmpls, err = templates.NewEmbedded()
	}
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}

	// === History (optional) ===
	var history *repository.HistoryRepo
	opts := query.Options{
		Namespace: cfg.Namespace,
		Excluded:  cfg.Excluded,
		Metrics:   deps.Metrics,
		Logger:    logger.With("component", "query"),
	}
	if deps.WriteDB != nil {
		history = repository.NewHistoryRepo(deps.WriteDB, deps.ReadDB)
		opts.History = history
	}

	return &App{
		Services: Services{
			Session:   sess,
			Query:     query.NewQueryService(sess, tmpls, opts),
			Templates: tmpls,
			History:   history,
		},
		Store: store,
	}, nil
}

func sourceOptions(cfg *config.Config) source.Options {
	opts := source.Options{
		Glob:             cfg.Graph.FileGlob,
		GCSKeyFile:       cfg.Storage.GCSKeyFile,
		AzureAccountName: cfg.Storage.AzureAccountName,
		AzureAccountKey:  cfg.Storage.AzureAccountKey,
	}
	if cfg.Storage.HasS3Credentials() {
		opts.S3.KeyID = *cfg.Storage.S3KeyID
		opts.S3.Secret = *cfg.Storage.S3Secret
	}
	if cfg.Storage.S3Endpoint != nil {
		opts.S3.Endpoint = *cfg.Storage.S3Endpoint
	}
	if cfg.Storage.S3Region != nil {
		opts.S3.Region = *cfg.Storage.S3Region
	}
	return opts
}
