package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ontomaint/internal/present"
)

// CommandEntry describes one runnable command.
type CommandEntry struct {
	Path    string      `json:"path"`
	Group   string      `json:"group"`
	Short   string      `json:"short"`
	Long    string      `json:"long,omitempty"`
	Example string      `json:"example,omitempty"`
	Args    string      `json:"args,omitempty"`
	Flags   []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry describes one local flag of a command.
type FlagEntry struct {
	Name     string `json:"name"`
	Short    string `json:"shorthand,omitempty"`
	Type     string `json:"type"`
	Default  string `json:"default,omitempty"`
	Usage    string `json:"usage,omitempty"`
	Required bool   `json:"required,omitempty"`
}

const ungrouped = "other"

func newCommandsCmd() *cobra.Command {
	var filter, group string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List all available CLI commands with their flags and descriptions",
		Long: `Lists every command with its path, group, description, flags and examples.
Works offline: the graph is not loaded.`,
		Example: `  # List all commands
  ontomaint commands

  # Search for commands related to failures
  ontomaint commands --filter failure

  # List only the maintenance reports as JSON
  ontomaint commands --group reports --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			needle := strings.ToLower(filter)
			entries := slices.DeleteFunc(commandEntries(cmd.Root()), func(e CommandEntry) bool {
				if group != "" && e.Group != group {
					return true
				}
				return needle != "" && !strings.Contains(strings.ToLower(e.Path+" "+e.Short+" "+e.Long), needle)
			})

			format := getOutputFormat(cmd)
			if format == present.FormatJSON {
				if entries == nil {
					entries = []CommandEntry{}
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Path, e.Group, e.Short})
			}
			return printRows(cmd.OutOrStdout(), format, []string{"PATH", "GROUP", "DESCRIPTION"}, rows)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive substring matched against path and descriptions")
	cmd.Flags().StringVar(&group, "group", "", "Only commands of this group (reports, graph, other)")
	return cmd
}

// commandEntries lists the leaf commands under root, depth first.
func commandEntries(root *cobra.Command) []CommandEntry {
	var out []CommandEntry
	var walk func(cmd *cobra.Command, prefix string)
	walk = func(cmd *cobra.Command, prefix string) {
		for _, child := range cmd.Commands() {
			if child.Hidden || child.Name() == "help" || child.Name() == "completion" {
				continue
			}
			path := strings.TrimSpace(prefix + " " + child.Name())
			if child.HasSubCommands() {
				walk(child, path)
				continue
			}
			out = append(out, describeCommand(child, path))
		}
	}
	walk(root, "")
	return out
}

func describeCommand(cmd *cobra.Command, path string) CommandEntry {
	e := CommandEntry{
		Path:    path,
		Group:   cmd.GroupID,
		Short:   cmd.Short,
		Long:    cmd.Long,
		Example: cmd.Example,
	}
	if e.Group == "" {
		e.Group = ungrouped
	}
	if _, args, ok := strings.Cut(cmd.Use, " "); ok {
		e.Args = strings.TrimSpace(args)
	}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		req := f.Annotations[cobra.BashCompOneRequiredFlag]
		e.Flags = append(e.Flags, FlagEntry{
			Name:     f.Name,
			Short:    f.Shorthand,
			Type:     f.Value.Type(),
			Default:  f.DefValue,
			Usage:    f.Usage,
			Required: len(req) > 0 && req[0] == "true",
		})
	})
	return e
}
