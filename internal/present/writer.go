package present

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"ontomaint/internal/domain"
)

// Format is an output format.
type Format string

// Supported output formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates an output format name. The empty string means table.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatCSV:
		return Format(s), nil
	}
	return "", domain.ErrValidation("unsupported output format %q: use 'table', 'json' or 'csv'", s)
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// Write renders t to w in the given format. An empty table in table format
// prints the no-results message instead.
func Write(w io.Writer, t *Table, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	default:
		if t.Empty() {
			_, err := fmt.Fprintln(w, NoResults)
			return err
		}
		return WriteTable(w, t, IsTerminal(w))
	}
}

// WriteTable prints an aligned table with uppercased headers and a
// two-space gutter. With styled set, the header row is bold and unbound
// cells are dimmed.
func WriteTable(w io.Writer, t *Table, styled bool) error {
	if t == nil || len(t.Headers) == 0 {
		return nil
	}

	r := lipgloss.NewRenderer(w)
	header := r.NewStyle()
	muted := r.NewStyle()
	if styled {
		header = header.Bold(true)
		muted = muted.Faint(true)
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			if i < len(widths) && lipgloss.Width(c.Text) > widths[i] {
				widths[i] = lipgloss.Width(c.Text)
			}
		}
	}

	var sb strings.Builder
	for i, h := range t.Headers {
		sb.WriteString(header.Render(pad(strings.ToUpper(h), widths[i], i == len(widths)-1)))
		if i < len(widths)-1 {
			sb.WriteString("  ")
		}
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i := range widths {
			var c Cell
			if i < len(row) {
				c = row[i]
			}
			text := pad(c.Text, widths[i], i == len(widths)-1)
			if !c.Bound {
				text = muted.Render(text)
			}
			sb.WriteString(text)
			if i < len(widths)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// pad right-pads s to width; the last column is left unpadded.
func pad(s string, width int, last bool) string {
	if last {
		return s
	}
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

type jsonTable struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// WriteJSON prints the table as indented JSON. Unbound cells are null.
func WriteJSON(w io.Writer, t *Table) error {
	out := jsonTable{Rows: []map[string]any{}}
	if t != nil {
		out.Columns = t.Headers
		for _, row := range t.Rows {
			obj := make(map[string]any, len(t.Headers))
			for i, h := range t.Headers {
				if i < len(row) && row[i].Bound {
					obj[h] = row[i].Text
				} else {
					obj[h] = nil
				}
			}
			out.Rows = append(out.Rows, obj)
		}
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteCSV prints a header record followed by one record per row. Unbound
// cells are empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if t != nil && len(t.Headers) > 0 {
		if err := cw.Write(t.Headers); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		for _, row := range t.Strings() {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
