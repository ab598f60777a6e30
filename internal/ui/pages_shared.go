package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/domain"
	"ontomaint/internal/present"
	"ontomaint/internal/session"
)

// maxRenderedRows caps the rows drawn into an HTML table. Downloads are not capped.
const maxRenderedRows = 500

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/ui", Key: "home", Icon: "gauge"},
	{Label: "Failures", Href: "/ui/failures", Key: "failures", Icon: "triangle-alert"},
	{Label: "Templates", Href: "/ui/templates", Key: "templates", Icon: "list-tree"},
	{Label: "SPARQL Console", Href: "/ui/console", Key: "console", Icon: "square-terminal"},
	{Label: "History", Href: "/ui/history", Key: "history", Icon: "history"},
}

func pageHead(title string, withDatastar bool) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | OntoMaint")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href("/ui/static/app.css")),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
		If(withDatastar, Script(
			Type("module"),
			Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
		)),
	)
}

func appPage(title, active string, stats session.Stats, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	return HTML(
		Lang("en"),
		pageHead(title, true),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("OntoMaint")),
						P(Class(mutedClass()), Text("Maintenance knowledge graph")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						graphBadge(stats),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func graphBadge(stats session.Stats) Node {
	tone := "attention"
	if stats.State == session.Reasoned {
		tone = "success"
	}
	return Div(
		Class("graph-badge"),
		statusLabel("graph "+stats.State.String(), tone),
		If(stats.State == session.Reasoned, Span(Class(mutedClass()),
			Text(fmt.Sprintf(" %d triples (%d inferred)", stats.LoadedTriples+stats.InferredTriples, stats.InferredTriples)))),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		pageHead(title, false),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui"), Text("Back to overview"))),
			),
		),
	)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func stringPtr(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "-"
	}
	return *v
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

// paginationCard links to the next page, preserving the other query values.
func paginationCard(basePath string, query url.Values, page domain.PageRequest, total int64) Node {
	nextToken := domain.NextPageToken(page.Offset(), page.Limit(), total)
	if nextToken == "" {
		return Div(Class(cardClass()), P(Class(mutedClass()), Text(fmt.Sprintf("Showing %d of %d entries.", min(page.Limit(), int(total)), total))))
	}
	next := url.Values{}
	for k, v := range query {
		next[k] = v
	}
	next.Set("max_results", strconv.Itoa(page.Limit()))
	next.Set("page_token", nextToken)
	return Div(
		Class(cardClass()),
		P(Class(mutedClass()), Text(fmt.Sprintf("Showing up to %d of %d entries.", page.Limit(), total))),
		A(Href(basePath+"?"+next.Encode()), Text("Next page ->")),
	)
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func quickFilterCard(placeholder string, extraControls ...Node) Node {
	controls := []Node{
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), Text("Quick filter")),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	}
	controls = append(controls, extraControls...)
	return Div(
		Class(cardClass("toolbar")),
		data.Signals(map[string]any{"q": ""}),
		Div(Class("d-flex flex-wrap flex-items-center gap-2"), Group(controls)),
	)
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-2"), Text(message)),
		cta,
	)
}

func warningCard(message string) Node {
	return Div(Class(cardClass("flash-warn")), P(Class("mb-0"), Text(message)))
}

func errorCard(heading, message string) Node {
	return Div(
		Class(cardClass("flash-error")),
		P(Class("mb-2"), Strong(Text(heading))),
		Pre(Class("mb-0"), Text(message)),
	)
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func historyStatusLabel(status string) Node {
	switch status {
	case domain.StatusOK:
		return statusLabel(status, "success")
	case domain.StatusEmpty:
		return statusLabel(status, "secondary")
	default:
		return statusLabel(status, "danger")
	}
}

// resultTable draws a presented table. Unbound cells render as "-" in a muted style.
func resultTable(tbl *present.Table) Node {
	headers := make([]Node, 0, len(tbl.Headers))
	for _, hd := range tbl.Headers {
		headers = append(headers, Th(Text(hd)))
	}

	rows := tbl.Rows
	truncated := false
	if len(rows) > maxRenderedRows {
		rows = rows[:maxRenderedRows]
		truncated = true
	}
	body := make([]Node, 0, len(rows))
	for _, row := range rows {
		cells := make([]Node, 0, len(row))
		for _, c := range row {
			if !c.Bound {
				cells = append(cells, Td(Class("cell-unbound"), Text("-")))
				continue
			}
			cells = append(cells, Td(Text(c.Text)))
		}
		body = append(body, Tr(Group(cells)))
	}

	return Div(
		Class("table-wrap"),
		Table(Class("data-table"),
			THead(Tr(Group(headers))),
			TBody(Group(body)),
		),
		If(truncated, P(Class(mutedClass()), Text(fmt.Sprintf("Showing the first %d of %d rows.", maxRenderedRows, len(tbl.Rows))))),
	)
}
