package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/session"
)

type failureDetailData struct {
	Options    []string
	Selected   string
	Impact     panelData
	Actions    []string
	ActionsErr error
}

func failuresEmptyPage(stats session.Stats) Node {
	return appPage("Failures", "failures", stats,
		emptyStateCard("No ErrorContext instances found in the graph.", "", ""),
	)
}

func failureDetailPage(stats session.Stats, d failureDetailData) Node {
	opts := make([]Node, 0, len(d.Options))
	for _, o := range d.Options {
		opts = append(opts, Option(Value(o), If(o == d.Selected, Selected()), Text(o)))
	}

	var actions Node
	switch {
	case d.ActionsErr != nil:
		actions = errorCard("Error while executing SPARQL query:", d.ActionsErr.Error())
	case len(d.Actions) == 0:
		actions = P(Class(mutedClass()), Text("(none)"))
	default:
		items := make([]Node, 0, len(d.Actions))
		for _, a := range d.Actions {
			items = append(items, Li(Text(a)))
		}
		actions = Ul(Class("action-list"), Group(items))
	}

	return appPage("Failures", "failures", stats,
		Div(
			Class(cardClass("toolbar")),
			Form(
				Method("get"),
				Action("/ui/failures"),
				Class("d-flex flex-items-center gap-2"),
				Label(For("failure-select"), Text("Failure selection")),
				Select(ID("failure-select"), Name(failureVar), Class("form-select"),
					Attr("onchange", "this.form.submit()"),
					Group(opts),
				),
				Button(Type("submit"), Class(secondaryButtonClass()), Text("Show")),
			),
		),
		panelCard(d.Impact),
		Div(
			Class(cardClass()),
			H2(Class("card-title"), Text("Recommended actions")),
			actions,
		),
	)
}
