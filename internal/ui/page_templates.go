package ui

import (
	"net/url"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/domain"
	"ontomaint/internal/session"
)

func templatesListPage(stats session.Stats, descs []domain.TemplateDescriptor) Node {
	if len(descs) == 0 {
		return appPage("Templates", "templates", stats, emptyStateCard("No query templates found.", "", ""))
	}

	rows := make([]Node, 0, len(descs))
	for _, d := range descs {
		params := "-"
		if len(d.Params) > 0 {
			labels := make([]string, 0, len(d.Params))
			for _, p := range d.Params {
				labels = append(labels, p.DisplayLabel())
			}
			params = joinOrDash(labels)
		}
		rows = append(rows, Tr(
			data.Show(containsExpr(d.Name+" "+d.Title+" "+d.Description)),
			Td(A(Href("/ui/templates/"+url.PathEscape(d.Name)), Text(d.Title))),
			Td(Code(Text(d.Name))),
			Td(Text(d.Description)),
			Td(Text(params)),
		))
	}

	return appPage("Templates", "templates", stats,
		quickFilterCard("Filter templates"),
		Div(Class(cardClass()),
			Table(Class("data-table"),
				THead(Tr(Th(Text("Title")), Th(Text("Name")), Th(Text("Description")), Th(Text("Parameters")))),
				TBody(Group(rows)),
			),
		),
	)
}

func templateDetailPage(stats session.Stats, run *templateRun, results panelData) Node {
	tmpl := run.Template
	base := "/ui/templates/" + url.PathEscape(tmpl.Name)

	var warnings []Node
	var selects []Node
	for _, p := range run.Params {
		if p.Warning != "" {
			warnings = append(warnings, warningCard(p.Warning))
			continue
		}
		name := p.Decl.VarName()
		chosen := run.Values.Get(name)
		opts := make([]Node, 0, len(p.Options))
		for _, o := range p.Options {
			opts = append(opts, Option(Value(o), If(o == chosen, Selected()), Text(o)))
		}
		selects = append(selects, Div(
			Class("form-group"),
			Label(For("param-"+name), Text(p.Decl.DisplayLabel())),
			Select(ID("param-"+name), Name(name), Class("form-select"),
				Attr("onchange", "this.form.submit()"),
				Group(opts),
			),
		))
	}

	download := base + "/download.csv"
	if len(run.Values) > 0 {
		download += "?" + run.Values.Encode()
	}

	return appPage(tmpl.Title, "templates", stats,
		Div(
			Class(cardClass()),
			P(Class(mutedClass()), Text(tmpl.Description)),
			If(len(selects) > 0, Form(
				Method("get"),
				Action(base),
				Class("d-flex flex-wrap flex-items-end gap-2"),
				Group(selects),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Run")),
			)),
		),
		Group(warnings),
		panelCard(results),
		If(results.Err == nil && !results.Table.Empty(),
			P(A(Href(download), Class(secondaryButtonClass()), Text("Download CSV"))),
		),
		Details(Class(cardClass()),
			Summary(Text("Template text")),
			Pre(Code(Text(tmpl.Text))),
		),
	)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	out := values[0]
	for i := 1; i < len(values); i++ {
		out += ", " + values[i]
	}
	return out
}
