package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
)

// paramFlag binds a command flag to a template parameter.
type paramFlag struct {
	Flag     string
	Var      string
	Usage    string
	Required bool
}

// reportSpec is one maintenance report: the template it runs, the flags
// bound to the template's parameters, and how the result reads in table
// output. Heading, Empty and Lines receive the flag values by flag name.
type reportSpec struct {
	Name     string
	Template string
	Short    string
	Example  string
	Flags    []paramFlag
	InAll    bool

	Heading func(values map[string]string) string
	Empty   func(values map[string]string) string
	Lines   func(w io.Writer, t *present.Table) error
}

func fixed(msg string) func(map[string]string) string {
	return func(map[string]string) string { return msg }
}

var (
	failureFlag = paramFlag{Flag: "failure", Var: "failure", Usage: "Local name of the ErrorContext (e.g. OverheatingA)", Required: true}
	machineFlag = paramFlag{Flag: "machine", Var: "machine", Usage: "Restrict to one machine (local name)"}
	teamFlag    = paramFlag{Flag: "team", Var: "team", Usage: "Restrict to one team (local name)"}
)

// reportCommands is the canonical command table. Every report subcommand and
// the `all` sequence are generated from it.
var reportCommands = []reportSpec{
	{
		Name:     "impact",
		Template: "impact",
		Short:    "Diagnose the impact of a failure: machines, jobs and propagated failures",
		Example:  "  ontomaint impact --failure OverheatingA",
		Flags:    []paramFlag{failureFlag},
		Heading:  func(v map[string]string) string { return fmt.Sprintf("Impact for failure %s:", v["failure"]) },
		Empty:    func(v map[string]string) string { return fmt.Sprintf("No impact found for failure %s.", v["failure"]) },
		Lines:    impactLines,
	},
	{
		Name:     "actions",
		Template: "actions",
		Short:    "Suggest corrective actions for a failure",
		Example:  "  ontomaint actions --failure OverheatingA",
		Flags:    []paramFlag{failureFlag},
		Heading:  func(v map[string]string) string { return fmt.Sprintf("Recommended actions for %s:", v["failure"]) },
		Empty:    func(v map[string]string) string { return fmt.Sprintf("No corrective actions defined for failure %s.", v["failure"]) },
		Lines:    actionLines,
	},
	{
		Name:     "failures",
		Template: "failures",
		Short:    "List all known ErrorContext instances in the graph",
		Flags:    []paramFlag{machineFlag},
		InAll:    true,
		Heading:  fixed("Known failures:"),
		Empty:    fixed("No ErrorContext instances found in the graph."),
		Lines:    failureLines,
	},
	{
		Name:     "whatif",
		Template: "whatif",
		Short:    "Show which failures would affect a machine and the jobs they would block",
		Example:  "  ontomaint whatif --machine FillerB",
		Flags:    []paramFlag{{Flag: "machine", Var: "machine", Usage: "Local name of the machine (e.g. FillerB)", Required: true}},
		Heading:  func(v map[string]string) string { return fmt.Sprintf("What-if for machine %s:", v["machine"]) },
		Empty:    func(v map[string]string) string { return fmt.Sprintf("No failures would affect machine %s.", v["machine"]) },
	},
	{
		Name:     "health",
		Template: "health",
		Short:    "Failure count, worst severity and total downtime per machine",
		Flags:    []paramFlag{machineFlag},
		InAll:    true,
		Heading:  fixed("Machine health:"),
		Empty:    fixed("No machine health data found."),
	},
	{
		Name:     "high-risk",
		Template: "high_risk",
		Short:    "List failures with severity 4 or higher",
		Flags:    []paramFlag{machineFlag},
		InAll:    true,
		Heading:  fixed("High-risk failures:"),
		Empty:    fixed("No high-risk failures found."),
	},
	{
		Name:     "maintenance",
		Template: "maintenance",
		Short:    "Maintenance actions with their team, duration and required parts",
		Flags:    []paramFlag{teamFlag},
		InAll:    true,
		Heading:  fixed("Maintenance plan:"),
		Empty:    fixed("No maintenance actions found."),
	},
	{
		Name:     "production",
		Template: "production",
		Short:    "Batches, the jobs producing them, and failures blocking those jobs",
		Example:  "  ontomaint production --batch Batch42",
		Flags:    []paramFlag{{Flag: "batch", Var: "batch", Usage: "Restrict to one batch (local name)"}},
		InAll:    true,
		Heading:  fixed("Production impact:"),
		Empty:    fixed("No production impact found."),
	},
	{
		Name:     "sensors",
		Template: "sensors",
		Short:    "Sensor events flagged ALERT, above 80 degrees or above 0.4 vibration",
		Flags:    []paramFlag{machineFlag},
		InAll:    true,
		Heading:  fixed("Sensor alerts:"),
		Empty:    fixed("No abnormal sensor events found."),
	},
	{
		Name:     "spare-parts",
		Template: "spare_parts",
		Short:    "Spare part stock against reorder level",
		InAll:    true,
		Heading:  fixed("Spare parts:"),
		Empty:    fixed("No spare parts found."),
	},
	{
		Name:     "team-workload",
		Template: "team_workload",
		Short:    "Assigned actions and estimated minutes per team",
		Flags:    []paramFlag{teamFlag},
		InAll:    true,
		Heading:  fixed("Team workload:"),
		Empty:    fixed("No team workload found."),
	},
}

func (c *cli) newReportCmd(spec reportSpec) *cobra.Command {
	values := make(map[string]*string, len(spec.Flags))
	cmd := &cobra.Command{
		Use:     spec.Name,
		Short:   spec.Short,
		Example: spec.Example,
		GroupID: groupReports,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vals := make(map[string]string, len(values))
			for name, v := range values {
				vals[name] = *v
			}
			return c.runReport(cmd, spec, vals)
		},
	}
	for _, f := range spec.Flags {
		values[f.Flag] = cmd.Flags().String(f.Flag, "", f.Usage)
		if f.Required {
			_ = cmd.MarkFlagRequired(f.Flag)
		}
	}
	return cmd
}

// runReport runs one report against the ready graph and prints it.
func (c *cli) runReport(cmd *cobra.Command, spec reportSpec, values map[string]string) error {
	rt, err := c.ready(cmd)
	if err != nil {
		return err
	}

	var params []domain.ResolvedParam
	for _, f := range spec.Flags {
		if v := values[f.Flag]; v != "" {
			params = append(params, domain.ResolvedParam{Var: f.Var, Value: v})
		}
	}
	res, err := rt.Query.Run(cmd.Context(), domain.SourceCLI, spec.Template, params)
	if err != nil {
		return err
	}

	var columns []string
	if tmpl, err := rt.Query.Template(spec.Template); err == nil {
		columns = tmpl.Columns
	}
	tbl := present.Present(res.Results, present.Options{Prettify: !c.raw, Columns: columns})
	return c.printReport(cmd.OutOrStdout(), spec, values, tbl)
}

func (c *cli) printReport(w io.Writer, spec reportSpec, values map[string]string, tbl *present.Table) error {
	if c.format != present.FormatTable {
		return present.Write(w, tbl, c.format)
	}
	if tbl.Empty() {
		msg := present.NoResults
		if spec.Empty != nil {
			msg = spec.Empty(values)
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	if spec.Heading != nil {
		if _, err := fmt.Fprintf(w, "%s\n\n", spec.Heading(values)); err != nil {
			return err
		}
	}
	if spec.Lines != nil {
		return spec.Lines(w, tbl)
	}
	return present.WriteTable(w, tbl, present.IsTerminal(w))
}

// cellAt returns the cell in column i, unbound when the row is short.
func cellAt(row []present.Cell, i int) present.Cell {
	if i < len(row) {
		return row[i]
	}
	return present.Cell{}
}

// impactLines expects failure, machine, job, next job, propagated failure.
func impactLines(w io.Writer, t *present.Table) error {
	for _, row := range t.Rows {
		fmt.Fprintf(w, "- Affected machine: %s\n", cellAt(row, 1).Line())
		fmt.Fprintf(w, "  Blocked job:   %s\n", cellAt(row, 2).Line())
		if next := cellAt(row, 3); next.Bound {
			fmt.Fprintf(w, "  Next job:     %s\n", next.Text)
		}
		if prop := cellAt(row, 4); prop.Bound {
			fmt.Fprintf(w, "  May propagate to: %s\n", prop.Text)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// actionLines expects failure, action.
func actionLines(w io.Writer, t *present.Table) error {
	for _, row := range t.Rows {
		if _, err := fmt.Fprintf(w, "- %s\n", cellAt(row, 1).Line()); err != nil {
			return err
		}
	}
	return nil
}

// failureLines expects failure, machine.
func failureLines(w io.Writer, t *present.Table) error {
	for _, row := range t.Rows {
		line := "- " + cellAt(row, 0).Line()
		if m := cellAt(row, 1); m.Bound {
			line += " (machine: " + m.Text + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
