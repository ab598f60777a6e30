package ui

import (
	"fmt"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"ontomaint/internal/service/alerts"
	"ontomaint/internal/session"
)

func overviewPage(stats session.Stats, panels []panelData, last *alerts.Check) Node {
	cards := make([]Node, 0, len(panels))
	for _, p := range panels {
		cards = append(cards, panelCard(p))
	}
	return appPage("Overview", "home", stats,
		Div(Class("overview-grid"),
			graphStatsCard(stats),
			alertCheckCard(last),
		),
		Group(cards),
	)
}

func panelCard(p panelData) Node {
	var body Node
	switch {
	case p.Err != nil:
		body = errorCard("Error while executing SPARQL query:", p.Err.Error())
	case p.Table.Empty():
		body = P(Class(mutedClass()), Text(p.Empty))
	default:
		body = resultTable(p.Table)
	}

	links := make([]Node, 0, len(p.Actions))
	for _, a := range p.Actions {
		links = append(links, A(Href(a.Href), Text(a.Label)))
	}

	return Div(
		Class(cardClass()),
		H2(Class("card-title"), Text(p.Title)),
		body,
		If(len(links) > 0, P(Class("mt-2 mb-0"), Group(links))),
	)
}

func graphStatsCard(stats session.Stats) Node {
	return Div(
		Class(cardClass()),
		H2(Class("card-title"), Text("Graph")),
		Dl(Class("stats"),
			Dt(Text("State")), Dd(Text(stats.State.String())),
			Dt(Text("Files")), Dd(Text(fmt.Sprintf("%d", stats.Files))),
			Dt(Text("Loaded triples")), Dd(Text(fmt.Sprintf("%d", stats.LoadedTriples))),
			Dt(Text("Inferred triples")), Dd(Text(fmt.Sprintf("%d", stats.InferredTriples))),
			Dt(Text("Load time")), Dd(Text(stats.LoadDuration.String())),
			Dt(Text("Reasoning time")), Dd(Text(stats.ReasonDuration.String())),
		),
	)
}

func alertCheckCard(last *alerts.Check) Node {
	if last == nil {
		return Div(
			Class(cardClass()),
			H2(Class("card-title"), Text("Scheduled alert check")),
			P(Class(mutedClass()), Text("No scheduled check has run yet.")),
		)
	}

	var summary Node
	switch {
	case last.Err != nil:
		summary = errorCard("Last check failed:", last.Err.Error())
	case last.Alerts == 0:
		summary = P(Text("No abnormal sensor events found."))
	default:
		summary = P(Strong(Text(fmt.Sprintf("%d sensor alerts", last.Alerts))))
	}

	return Div(
		Class(cardClass()),
		H2(Class("card-title"), Text("Scheduled alert check")),
		P(Class(mutedClass()), Text("Last run "+formatTime(last.At)+" "), historyStatusLabel(last.Status())),
		summary,
	)
}
