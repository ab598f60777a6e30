package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
)

func (c *cli) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   "Load ontologies and data and run reasoning (dry run)",
		GroupID: groupGraph,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := c.ready(cmd)
			return err
		},
	}
}

// newAllCmd runs every report of the canonical table that takes no required
// flag. A failing report does not stop the sequence.
func (c *cli) newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "all",
		Short:   "Run every maintenance report in sequence",
		GroupID: groupReports,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.ready(cmd); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var failed []string
			total := 0
			for _, spec := range reportCommands {
				if !spec.InAll {
					continue
				}
				total++
				if c.format == present.FormatTable {
					if total > 1 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "=== %s ===\n", spec.Name)
				}
				if err := c.runReport(cmd, spec, map[string]string{}); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s failed: %v\n", spec.Name, err)
					failed = append(failed, spec.Name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d of %d reports failed: %s", len(failed), total, strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func (c *cli) newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "templates",
		Short:   "List the query templates in the catalog",
		GroupID: groupGraph,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.runtime(cmd)
			if err != nil {
				return err
			}
			descs, err := rt.Query.Templates()
			if err != nil {
				return err
			}
			if c.format == present.FormatJSON {
				return printJSON(cmd.OutOrStdout(), descs)
			}
			rows := make([][]string, 0, len(descs))
			for _, d := range descs {
				params := make([]string, 0, len(d.Params))
				for _, p := range d.Params {
					params = append(params, fmt.Sprintf("%s (%s)", p.VarName(), p.Class))
				}
				rows = append(rows, []string{d.Name, d.Title, strings.Join(params, ", ")})
			}
			return printRows(cmd.OutOrStdout(), c.format, []string{"NAME", "TITLE", "PARAMETERS"}, rows)
		},
	}
}

func (c *cli) newQueryCmd() *cobra.Command {
	var raw []string
	cmd := &cobra.Command{
		Use:     "query <template>",
		Short:   "Run a catalog template with parameter bindings",
		Example: "  ontomaint query impact --param failure=OverheatingA\n  ontomaint query sensors --param machine=FillerB -o csv",
		GroupID: groupGraph,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(raw)
			if err != nil {
				return err
			}
			rt, err := c.ready(cmd)
			if err != nil {
				return err
			}
			tmpl, err := rt.Query.Template(args[0])
			if err != nil {
				return err
			}
			res, err := rt.Query.Run(cmd.Context(), domain.SourceCLI, args[0], params)
			if err != nil {
				return err
			}
			tbl := present.Present(res.Results, present.Options{Prettify: !c.raw, Columns: tmpl.Columns})
			return c.printReport(cmd.OutOrStdout(), reportSpec{}, nil, tbl)
		},
	}
	cmd.Flags().StringArrayVar(&raw, "param", nil, "Parameter binding var=value (repeatable)")
	return cmd
}

// parseParams turns var=value flags into bindings.
func parseParams(raw []string) ([]domain.ResolvedParam, error) {
	params := make([]domain.ResolvedParam, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), "?")
		if !ok || name == "" {
			return nil, domain.ErrValidation("invalid --param %q: expected var=value", kv)
		}
		params = append(params, domain.ResolvedParam{Var: name, Value: strings.TrimSpace(value)})
	}
	return params, nil
}

func (c *cli) newSPARQLCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sparql <file|->",
		Short:   "Execute a raw SPARQL SELECT query from a file or stdin",
		GroupID: groupGraph,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readQuery(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			rt, err := c.ready(cmd)
			if err != nil {
				return err
			}
			res, err := rt.Query.Execute(cmd.Context(), domain.SourceCLI, text)
			if err != nil {
				return err
			}
			tbl := present.Present(res.Results, present.Options{Prettify: !c.raw})
			return c.printReport(cmd.OutOrStdout(), reportSpec{}, nil, tbl)
		},
	}
}

func readQuery(stdin io.Reader, arg string) (string, error) {
	var (
		b   []byte
		err error
	)
	if arg == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(arg)
	}
	if err != nil {
		return "", fmt.Errorf("read query: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return "", errors.New("query is empty")
	}
	return text, nil
}
