package ui

import (
	"fmt"
	"net/url"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/domain"
	"ontomaint/internal/session"
)

const queryPreviewLen = 120

type historyData struct {
	Entries []domain.HistoryEntry
	Total   int64
	Page    domain.PageRequest
	Filters url.Values
}

func historyPage(stats session.Stats, d historyData) Node {
	filters := Form(
		Method("get"),
		Action("/ui/history"),
		Class("d-flex flex-wrap flex-items-end gap-2"),
		filterSelect("source", "Source", historySources, d.Filters.Get("source")),
		filterSelect("status", "Status", historyStatuses, d.Filters.Get("status")),
		Button(Type("submit"), Class(secondaryButtonClass()), Text("Filter")),
	)

	if len(d.Entries) == 0 {
		return appPage("History", "history", stats,
			Div(Class(cardClass("toolbar")), filters),
			emptyStateCard("No queries recorded yet.", "Open console", "/ui/console"),
		)
	}

	rows := make([]Node, 0, len(d.Entries))
	for _, e := range d.Entries {
		detail := previewText(e.Query, queryPreviewLen)
		if e.ErrorMessage != nil {
			detail = *e.ErrorMessage
		}
		rows = append(rows, Tr(
			Td(Text(formatTime(e.CreatedAt))),
			Td(Text(e.Source)),
			Td(Text(stringPtr(e.Template))),
			Td(historyStatusLabel(e.Status)),
			Td(Class("num"), Text(fmt.Sprintf("%d", e.RowCount))),
			Td(Class("num"), Text(fmt.Sprintf("%d ms", e.DurationMs))),
			Td(Code(Title(e.Query), Text(detail))),
		))
	}

	return appPage("History", "history", stats,
		Div(Class(cardClass("toolbar")), filters),
		Div(
			Class(cardClass()),
			Table(Class("data-table"),
				THead(Tr(
					Th(Text("Time")), Th(Text("Source")), Th(Text("Template")), Th(Text("Status")),
					Th(Text("Rows")), Th(Text("Duration")), Th(Text("Query")),
				)),
				TBody(Group(rows)),
			),
		),
		paginationCard("/ui/history", d.Filters, d.Page, d.Total),
	)
}

func filterSelect(name, label string, values []string, chosen string) Node {
	opts := []Node{Option(Value(""), Text("Any"))}
	for _, v := range values {
		opts = append(opts, Option(Value(v), If(v == chosen, Selected()), Text(v)))
	}
	return Div(
		Class("form-group"),
		Label(For("filter-"+name), Text(label)),
		Select(ID("filter-"+name), Name(name), Class("form-select"), Group(opts)),
	)
}

func previewText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
