package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontomaint/internal/present"
)

func TestGetOutputFormat(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   present.Format
	}{
		{name: "table", output: "table", want: present.FormatTable},
		{name: "json", output: "json", want: present.FormatJSON},
		{name: "csv", output: "csv", want: present.FormatCSV},
		{name: "unknown_falls_back", output: "yaml", want: present.FormatTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := &cobra.Command{Use: "root"}
			root.PersistentFlags().String("output", tt.output, "")
			child := &cobra.Command{Use: "child"}
			root.AddCommand(child)
			assert.Equal(t, tt.want, getOutputFormat(child))
		})
	}
}

func TestPrintRows(t *testing.T) {
	headers := []string{"name", "title"}
	rows := [][]string{{"impact", "Failure impact"}, {"actions", "Recommended actions"}}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printRows(&buf, present.FormatTable, headers, rows))
		assert.Equal(t, "NAME     TITLE\nimpact   Failure impact\nactions  Recommended actions\n", buf.String())
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printRows(&buf, present.FormatCSV, headers, rows))
		assert.Equal(t, "name,title\nimpact,Failure impact\nactions,Recommended actions\n", buf.String())
	})

	t.Run("empty_table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printRows(&buf, present.FormatTable, headers, nil))
		assert.Equal(t, present.NoResults+"\n", buf.String())
	})
}
