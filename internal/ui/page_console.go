package ui

import (
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/session"
)

func consolePage(stats session.Stats, d consoleData, csrf Node) Node {
	presets := make([]Node, 0, len(d.Presets))
	for i, p := range d.Presets {
		className := "preset-link"
		if i == d.Preset {
			className += " active"
		}
		presets = append(presets, Li(A(Href("/ui/console?preset="+strconv.Itoa(i)), Class(className), Text(p.Title))))
	}

	var outcome Node
	switch {
	case !d.Ran:
	case d.Err != nil:
		outcome = errorCard("Error while executing SPARQL query:", d.Err.Error())
	case d.Table == nil:
		outcome = Div(Class(cardClass()), P(Class("mb-0"), Text(d.Message)))
	default:
		outcome = Div(
			Class(cardClass()),
			P(Text(d.Message), If(d.Duration != "", Span(Class(mutedClass()), Text(" ("+d.Duration+")")))),
			resultTable(d.Table),
		)
	}

	return appPage("SPARQL Query Console", "console", stats,
		If(len(presets) > 0, Div(
			Class(cardClass()),
			H2(Class("card-title"), Text("Presets")),
			Ul(Class("preset-list"), Group(presets)),
		)),
		Div(
			Class(cardClass()),
			Form(
				Method("post"),
				Action("/ui/console"),
				csrf,
				Label(For("query"), Class("sr-only"), Text("SPARQL query")),
				Textarea(ID("query"), Name("query"), Class("form-control query-editor"), Rows("16"), Attr("spellcheck", "false"), Text(d.Query)),
				Div(
					Class("d-flex flex-items-center gap-2 mt-2"),
					Label(Input(Type("checkbox"), Name("raw"), Value("1"), If(d.Raw, Checked())), Text(" Show full IRIs")),
					Button(Type("submit"), Class(primaryButtonClass()), Text("Run query")),
				),
			),
		),
		outcome,
	)
}
