package diagram

import (
	"image/color"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

var (
	pngBackdrop = color.RGBA{0x28, 0x2a, 0x36, 0xff}
	pngNodeFill = color.RGBA{0x44, 0x47, 0x5a, 0xff}
	pngDecision = color.RGBA{0x62, 0x72, 0xa4, 0xff}
	pngStroke   = color.RGBA{0xbd, 0x93, 0xf9, 0xff}
	pngText     = color.RGBA{0xf8, 0xf8, 0xf2, 0xff}
	pngSubtle   = color.RGBA{0xbf, 0xbf, 0xbf, 0xff}
	pngEdge     = color.RGBA{0x62, 0x72, 0xa4, 0xff}
)

// SavePNG renders the graph to a PNG file using the same layout as the SVG
// renderer.
func SavePNG(path string, g *Graph) error {
	l := computeLayout(g)

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(pngBackdrop)
	dc.Clear()

	for _, e := range g.Edges {
		x1, y1, x2, y2 := edgeEndpoints(g, l, e)
		fx1, fy1, fx2, fy2 := float64(x1), float64(y1), float64(x2), float64(y2)

		dc.SetColor(pngEdge)
		dc.SetLineWidth(2)
		if e.Style == EdgeThick {
			dc.SetLineWidth(4)
		}
		if e.Style == EdgeDotted {
			dc.SetDash(6, 4)
		}
		dc.DrawLine(fx1, fy1, fx2, fy2)
		dc.Stroke()
		dc.SetDash()

		drawArrowHead(dc, fx2, fy2, g.Direction)

		if e.Label != "" {
			dc.SetColor(pngSubtle)
			dc.DrawStringAnchored(e.Label, (fx1+fx2)/2, (fy1+fy2)/2-6, 0.5, 0.5)
		}
	}

	for _, n := range l.Nodes {
		fill := pngNodeFill
		radius := 8.0
		switch n.Shape {
		case ShapeRound:
			radius = nodeH / 2
		case ShapeDecision:
			fill = pngDecision
		}

		x, y := float64(n.X), float64(n.Y)
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(x, y, nodeW, nodeH, radius)
		dc.Fill()
		dc.SetColor(pngStroke)
		dc.SetLineWidth(1.2)
		dc.DrawRoundedRectangle(x, y, nodeW, nodeH, radius)
		dc.Stroke()

		dc.SetColor(pngText)
		dc.DrawStringAnchored(n.Label, x+nodeW/2, y+nodeH/2, 0.5, 0.5)
	}

	return dc.SavePNG(path)
}

func drawArrowHead(dc *gg.Context, x, y float64, dir Direction) {
	dc.SetColor(pngEdge)
	dc.NewSubPath()
	dc.MoveTo(x, y)
	if dir == LeftRight {
		dc.LineTo(x-8, y+4)
		dc.LineTo(x-8, y-4)
	} else {
		dc.LineTo(x-4, y-8)
		dc.LineTo(x+4, y-8)
	}
	dc.ClosePath()
	dc.Fill()
}
