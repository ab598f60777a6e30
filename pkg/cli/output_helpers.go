package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"ontomaint/internal/present"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) present.Format {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	f, err := present.ParseFormat(v)
	if err != nil {
		return present.FormatTable
	}
	return f
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRows writes plain string rows in any output format.
func printRows(w io.Writer, format present.Format, headers []string, rows [][]string) error {
	return present.Write(w, present.FromStrings(headers, rows), format)
}
