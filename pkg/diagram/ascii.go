package diagram

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderASCII renders a parsed graph as plain box-drawing text for the
// terminal. Nodes are laid out rank by rank; edges between consecutive
// ranks become connector arrows, and everything else (skips, cycles,
// labeled edges) is listed underneath so no connection is silently lost.
func RenderASCII(g *Graph) string {
	var sb strings.Builder

	ranks := g.Ranks()
	rankOf := make(map[string]int, len(g.Nodes))
	for r, ids := range ranks {
		for _, id := range ids {
			rankOf[id] = r
		}
	}

	for r, ids := range ranks {
		if r > 0 {
			sb.WriteString(connectorLine(g, ranks, rankOf, r))
		}
		sb.WriteString(rankLine(g, ids))
	}

	if extra := extraEdgeLines(g, rankOf); extra != "" {
		sb.WriteString("\n")
		sb.WriteString(extra)
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// rankLine draws the boxes of one rank side by side.
func rankLine(g *Graph, ids []string) string {
	const gap = "  "

	tops := make([]string, len(ids))
	mids := make([]string, len(ids))
	bots := make([]string, len(ids))

	for i, id := range ids {
		n, _ := g.Node(id)
		label := n.Label
		w := runewidth.StringWidth(label)

		switch n.Shape {
		case ShapeRound:
			tops[i] = "╭" + strings.Repeat("─", w+2) + "╮"
			mids[i] = "│ " + label + " │"
			bots[i] = "╰" + strings.Repeat("─", w+2) + "╯"
		case ShapeDecision:
			tops[i] = "◇" + strings.Repeat("─", w+2) + "◇"
			mids[i] = "│ " + label + " │"
			bots[i] = "◇" + strings.Repeat("─", w+2) + "◇"
		default:
			tops[i] = "┌" + strings.Repeat("─", w+2) + "┐"
			mids[i] = "│ " + label + " │"
			bots[i] = "└" + strings.Repeat("─", w+2) + "┘"
		}
	}

	return strings.Join(tops, gap) + "\n" +
		strings.Join(mids, gap) + "\n" +
		strings.Join(bots, gap) + "\n"
}

// connectorLine draws a simple vertical arrow between rank r-1 and rank r
// when at least one edge crosses that boundary.
func connectorLine(g *Graph, ranks [][]string, rankOf map[string]int, r int) string {
	for _, e := range g.Edges {
		if rankOf[e.From] == r-1 && rankOf[e.To] == r {
			return "    │\n    ▼\n"
		}
	}
	return "\n"
}

// extraEdgeLines lists edges with labels plus edges that are not a simple
// hop to the next rank (skips, cross-links, cycles).
func extraEdgeLines(g *Graph, rankOf map[string]int) string {
	var lines []string
	for _, e := range g.Edges {
		adjacent := rankOf[e.To] == rankOf[e.From]+1
		if adjacent && e.Label == "" {
			continue
		}

		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		arrow := "─▶"
		switch e.Style {
		case EdgeDotted:
			arrow = "┄▶"
		case EdgeThick:
			arrow = "═▶"
		}
		line := from.Label + " " + arrow + " " + to.Label
		if e.Label != "" {
			line += "  (" + e.Label + ")"
		}
		lines = append(lines, "  "+line)
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
