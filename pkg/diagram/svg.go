package diagram

import (
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"
)

// Layout geometry shared by the SVG and PNG renderers.
const (
	nodeW   = 180
	nodeH   = 52
	rankGap = 64
	colGap  = 28
	margin  = 24
)

// Dracula-ish palette matching the TUI theme.
const (
	svgBackdrop = "#282a36"
	svgNodeFill = "#44475a"
	svgDecision = "#6272a4"
	svgStroke   = "#bd93f9"
	svgText     = "#f8f8f2"
	svgSubtle   = "#bfbfbf"
	svgEdge     = "#6272a4"
)

type layoutNode struct {
	Node
	X, Y int
}

type layout struct {
	Width  int
	Height int
	Nodes  map[string]layoutNode
}

// computeLayout positions nodes on a rank grid. Top-down graphs stack ranks
// vertically; left-right graphs stack them horizontally.
func computeLayout(g *Graph) layout {
	ranks := g.Ranks()

	maxPerRank := 0
	for _, ids := range ranks {
		if len(ids) > maxPerRank {
			maxPerRank = len(ids)
		}
	}

	l := layout{Nodes: make(map[string]layoutNode, len(g.Nodes))}

	for r, ids := range ranks {
		for c, id := range ids {
			n, _ := g.Node(id)
			var x, y int
			if g.Direction == LeftRight {
				x = margin + r*(nodeW+rankGap)
				y = margin + c*(nodeH+colGap)
			} else {
				x = margin + c*(nodeW+colGap)
				y = margin + r*(nodeH+rankGap)
			}
			l.Nodes[id] = layoutNode{Node: n, X: x, Y: y}
		}
	}

	if g.Direction == LeftRight {
		l.Width = 2*margin + len(ranks)*nodeW + (len(ranks)-1)*rankGap
		l.Height = 2*margin + maxPerRank*nodeH + (maxPerRank-1)*colGap
	} else {
		l.Width = 2*margin + maxPerRank*nodeW + (maxPerRank-1)*colGap
		l.Height = 2*margin + len(ranks)*nodeH + (len(ranks)-1)*rankGap
	}
	return l
}

// edgeEndpoints returns the anchor points of an edge for the current
// direction: bottom→top centers for top-down, right→left centers otherwise.
func edgeEndpoints(g *Graph, l layout, e Edge) (x1, y1, x2, y2 int) {
	from := l.Nodes[e.From]
	to := l.Nodes[e.To]
	if g.Direction == LeftRight {
		return from.X + nodeW, from.Y + nodeH/2, to.X, to.Y + nodeH/2
	}
	return from.X + nodeW/2, from.Y + nodeH, to.X + nodeW/2, to.Y
}

// WriteSVG renders the graph as an SVG document.
func WriteSVG(w io.Writer, g *Graph) error {
	l := computeLayout(g)

	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", svgBackdrop))

	for _, e := range g.Edges {
		x1, y1, x2, y2 := edgeEndpoints(g, l, e)

		style := fmt.Sprintf("stroke:%s;stroke-width:2", svgEdge)
		switch e.Style {
		case EdgeDotted:
			style += ";stroke-dasharray:6 4"
		case EdgeThick:
			style = fmt.Sprintf("stroke:%s;stroke-width:4", svgEdge)
		}
		canvas.Line(x1, y1, x2, y2, style)

		// arrow head pointing along the flow direction
		if g.Direction == LeftRight {
			canvas.Polygon(
				[]int{x2, x2 - 8, x2 - 8},
				[]int{y2, y2 + 4, y2 - 4},
				fmt.Sprintf("fill:%s", svgEdge),
			)
		} else {
			canvas.Polygon(
				[]int{x2, x2 - 4, x2 + 4},
				[]int{y2, y2 - 8, y2 - 8},
				fmt.Sprintf("fill:%s", svgEdge),
			)
		}

		if e.Label != "" {
			mx := (x1 + x2) / 2
			my := (y1+y2)/2 - 4
			canvas.Text(mx, my, e.Label,
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", svgSubtle))
		}
	}

	for _, n := range l.Nodes {
		fill := svgNodeFill
		radius := 8
		switch n.Shape {
		case ShapeRound:
			radius = nodeH / 2
		case ShapeDecision:
			fill = svgDecision
		}
		canvas.Roundrect(n.X, n.Y, nodeW, nodeH, radius, radius,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", fill, svgStroke))
		canvas.Text(n.X+nodeW/2, n.Y+nodeH/2+5, n.Label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;text-anchor:middle", svgText))
	}

	canvas.End()
	return nil
}

// SaveSVG renders the graph to an SVG file.
func SaveSVG(path string, g *Graph) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteSVG(file, g)
}
