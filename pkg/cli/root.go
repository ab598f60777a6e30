// Package cli implements the ontomaint command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ontomaint/internal/app"
	"ontomaint/internal/config"
	"ontomaint/internal/db"
	"ontomaint/internal/present"
	"ontomaint/internal/service/query"
)

var (
	version = "dev"
	commit  = "none"
)

// Command groups.
const (
	groupReports = "reports"
	groupGraph   = "graph"
)

// Graph is the session as seen by the CLI. Implemented by session.Session.
type Graph interface {
	Ready(ctx context.Context) error
}

// runtime is the wired graph stack one invocation works against.
type runtime struct {
	Graph Graph
	Query *query.QueryService
	close func()
}

// opener builds the runtime for a resolved configuration. Session progress
// lines go to progress.
type opener func(ctx context.Context, cfg *config.Config, progress io.Writer, logger *slog.Logger) (*runtime, error)

// cli holds the state shared by every command of one invocation.
type cli struct {
	output   string
	raw      bool
	base     string
	endpoint string
	dotenv   string

	format present.Format
	cfg    *config.Config
	logger *slog.Logger
	open   opener
	rt     *runtime
}

func newCLI(open opener) *cli {
	return &cli{open: open, logger: slog.New(slog.DiscardHandler)}
}

// Execute runs the CLI.
func Execute() int {
	c := newCLI(openRuntime)
	rootCmd := c.rootCmd()
	err := rootCmd.Execute()
	c.close()
	if err != nil {
		if c.output == string(present.FormatJSON) {
			_ = printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ontomaint",
		Short: "Maintenance knowledge graph CLI",
		Long: `Load the maintenance ontologies and data into a SPARQL store, materialize
the OWL RL closure, and run diagnostic queries against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := present.ParseFormat(c.output)
			if err != nil {
				return err
			}
			c.format = format
			return c.loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", "table", "Output format (table, json, csv)")
	rootCmd.PersistentFlags().BoolVar(&c.raw, "raw", false, "Print full IRIs instead of local names")
	rootCmd.PersistentFlags().StringVar(&c.base, "base", "", "Graph location: directory or s3://, gs://, az:// URI (env ONTOMAINT_BASE)")
	rootCmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "SPARQL query endpoint URL (env SPARQL_QUERY_URL)")
	rootCmd.PersistentFlags().StringVar(&c.dotenv, "env-file", ".env", "Environment file read before the process environment")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupReports, Title: "Maintenance reports:"},
		&cobra.Group{ID: groupGraph, Title: "Graph and query tools:"},
	)

	for _, spec := range reportCommands {
		rootCmd.AddCommand(c.newReportCmd(spec))
	}
	rootCmd.AddCommand(c.newAllCmd())
	rootCmd.AddCommand(c.newInitCmd())
	rootCmd.AddCommand(c.newTemplatesCmd())
	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newSPARQLCmd())

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// loadConfig resolves configuration with flag > env > default precedence.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(c.dotenv); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base") {
		cfg.Graph.Base = c.base
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.SPARQL.QueryURL = c.endpoint
		if os.Getenv("SPARQL_UPDATE_URL") == "" {
			cfg.SPARQL.UpdateURL = c.endpoint
		}
	}

	level := slog.LevelWarn
	if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.SlogLevel()
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	for _, w := range cfg.Warnings {
		if cmd.Flags().Changed("endpoint") && strings.HasPrefix(w, "SPARQL_QUERY_URL") {
			continue
		}
		c.logger.Warn(w)
	}
	c.cfg = cfg
	return nil
}

// runtime opens the graph stack on first use without loading the graph.
func (c *cli) runtime(cmd *cobra.Command) (*runtime, error) {
	if c.rt == nil {
		rt, err := c.open(cmd.Context(), c.cfg, cmd.ErrOrStderr(), c.logger)
		if err != nil {
			return nil, err
		}
		c.rt = rt
	}
	return c.rt, nil
}

// ready brings the graph to the Reasoned state. Later calls in the same
// invocation reuse the loaded session.
func (c *cli) ready(cmd *cobra.Command) (*runtime, error) {
	rt, err := c.runtime(cmd)
	if err != nil {
		return nil, err
	}
	if err := rt.Graph.Ready(cmd.Context()); err != nil {
		return nil, err
	}
	return rt, nil
}

func (c *cli) close() {
	if c.rt != nil && c.rt.close != nil {
		c.rt.close()
	}
	c.rt = nil
}

// openRuntime wires the production stack. Query history is recorded when a
// history database path is configured.
func openRuntime(ctx context.Context, cfg *config.Config, progress io.Writer, logger *slog.Logger) (*runtime, error) {
	deps := app.Deps{Cfg: cfg, Progress: progress, Logger: logger}
	closeFn := func() {}
	if cfg.HistoryDBPath != "" {
		writeDB, readDB, err := db.OpenPair(cfg.HistoryDBPath, 0)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		closeFn = func() {
			_ = readDB.Close()
			_ = writeDB.Close()
		}
		if err := db.Migrate(writeDB); err != nil {
			closeFn()
			return nil, fmt.Errorf("migrate history database: %w", err)
		}
		deps.WriteDB, deps.ReadDB = writeDB, readDB
	}

	a, err := app.New(ctx, deps)
	if err != nil {
		closeFn()
		return nil, err
	}
	return &runtime{Graph: a.Services.Session, Query: a.Services.Query, close: closeFn}, nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
