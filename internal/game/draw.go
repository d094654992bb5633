package game

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/fincraft/internal/sim"
)

var (
	colGroundA     = color.RGBA{R: 70, G: 112, B: 64, A: 255}
	colGroundB     = color.RGBA{R: 64, G: 104, B: 58, A: 255}
	colProtected   = color.RGBA{R: 88, G: 118, B: 70, A: 255}
	colGridLine    = color.RGBA{R: 40, G: 64, B: 36, A: 120}
	colHighlight   = color.RGBA{R: 255, G: 235, B: 120, A: 255}
	colPreviewOK   = color.RGBA{R: 40, G: 140, B: 60, A: 110}
	colPreviewBad  = color.RGBA{R: 160, G: 40, B: 40, A: 110}
	colShadow      = color.RGBA{R: 0, G: 0, B: 0, A: 70}
	colGold        = color.RGBA{R: 240, G: 200, B: 60, A: 255}
	colRed         = color.RGBA{R: 225, G: 70, B: 60, A: 255}
	colTooltipBG   = color.RGBA{R: 18, G: 22, B: 32, A: 235}
	colTooltipEdge = color.RGBA{R: 120, G: 130, B: 160, A: 255}
	colText        = color.RGBA{R: 230, G: 232, B: 240, A: 255}
)

// categoryColor is the procedural body colour of a building.
var categoryColor = map[sim.Category]color.RGBA{
	sim.CategoryDepository:  {R: 196, G: 170, B: 120, A: 255},
	sim.CategoryInvestments: {R: 110, G: 150, B: 205, A: 255},
	sim.CategoryCreditCards: {R: 150, G: 60, B: 70, A: 255},
	sim.CategoryLoans:       {R: 120, G: 70, B: 110, A: 255},
	sim.CategoryOthers:      {R: 160, G: 160, B: 150, A: 255},
}

func dim(c color.RGBA) color.RGBA {
	f := func(v uint8) uint8 { return uint8(uint16(v) * 2 / 3) }
	return color.RGBA{R: f(c.R), G: f(c.G), B: f(c.B), A: c.A}
}

func shade(c color.RGBA, f float64) color.RGBA {
	s := func(v uint8) uint8 { return uint8(math.Min(255, float64(v)*f)) }
	return color.RGBA{R: s(c.R), G: s(c.G), B: s(c.B), A: c.A}
}

// drawText draws s with its top-left corner at (x, y).
func drawText(dst *ebiten.Image, s string, face text.Face, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(dst, s, face, op)
}

// drawTextCentred draws s centred horizontally on x with alpha applied.
func drawTextCentred(dst *ebiten.Image, s string, face text.Face, x, y float64, clr color.Color, alpha float64) {
	w, _ := text.Measure(s, face, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(x-w/2, y)
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(float32(alpha))
	text.Draw(dst, s, face, op)
}

func fillPath(dst *ebiten.Image, p *vector.Path, clr color.Color) {
	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(clr)
	vector.FillPath(dst, p, &vector.FillOptions{}, op)
}

// diamondPath outlines the square of size cells whose top-left cell is tl,
// in viewport coordinates.
func diamondPath(cam *sim.Camera, tl sim.Cell, size int) *vector.Path {
	x0, y0 := float64(tl.X), float64(tl.Y)
	n := float64(size)
	corners := [4][2]float64{{x0, y0}, {x0 + n, y0}, {x0 + n, y0 + n}, {x0, y0 + n}}
	var p vector.Path
	for i, c := range corners {
		sx, sy := cam.WorldToScreen(sim.ToScreen(c[0], c[1]))
		if i == 0 {
			p.MoveTo(float32(sx), float32(sy))
			continue
		}
		p.LineTo(float32(sx), float32(sy))
	}
	p.Close()
	return &p
}

func strokeDiamond(dst *ebiten.Image, cam *sim.Camera, tl sim.Cell, size int, width float32, clr color.Color) {
	x0, y0 := float64(tl.X), float64(tl.Y)
	n := float64(size)
	corners := [5][2]float64{{x0, y0}, {x0 + n, y0}, {x0 + n, y0 + n}, {x0, y0 + n}, {x0, y0}}
	for i := 0; i < 4; i++ {
		ax, ay := cam.WorldToScreen(sim.ToScreen(corners[i][0], corners[i][1]))
		bx, by := cam.WorldToScreen(sim.ToScreen(corners[i+1][0], corners[i+1][1]))
		vector.StrokeLine(dst, float32(ax), float32(ay), float32(bx), float32(by), width, clr, true)
	}
}

// drawGround tiles the map, tinting the hub's protected zone.
func (g *Game) drawGround(screen *ebiten.Image) {
	cam := &g.state.Camera
	grass := g.assets.Get("grass")
	for y := 0; y < sim.MapH; y++ {
		for x := 0; x < sim.MapW; x++ {
			c := sim.Cell{X: x, Y: y}
			if grass.Image != nil {
				sx, sy := cam.WorldToScreen(sim.ToScreen(float64(x)+0.5, float64(y)+0.5))
				screen.DrawImage(grass.Image, spriteOptions(grass, sx, sy, cam.Zoom, false))
				continue
			}
			col := colGroundA
			if (x+y)%2 == 1 {
				col = colGroundB
			}
			if sim.Protected(c) {
				col = colProtected
			}
			fillPath(screen, diamondPath(cam, c, 1), col)
		}
	}
	for i := 0; i <= sim.MapW; i++ {
		ax, ay := cam.WorldToScreen(sim.ToScreen(float64(i), 0))
		bx, by := cam.WorldToScreen(sim.ToScreen(float64(i), sim.MapH))
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), 1, colGridLine, false)
		ax, ay = cam.WorldToScreen(sim.ToScreen(0, float64(i)))
		bx, by = cam.WorldToScreen(sim.ToScreen(sim.MapW, float64(i)))
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), 1, colGridLine, false)
	}
}

// drawSelection draws the selection highlight and, while dragging, the
// snapped placement preview.
func (g *Game) drawSelection(screen *ebiten.Image) {
	cam := &g.state.Camera
	if tl, blocked, ok := g.state.DragPreview(); ok {
		col := colPreviewOK
		if blocked {
			col = colPreviewBad
		}
		fillPath(screen, diamondPath(cam, tl, 2), premul(col))
	}
	if tl, size, ok := g.state.Highlight(); ok {
		strokeDiamond(screen, cam, tl, size, 2, colHighlight)
	}
}

// drawBox is the procedural stand-in for building art: an isometric block
// whose height grows with level.
func drawBox(dst *ebiten.Image, cam *sim.Camera, ax, ay, halfW, height float64, body color.RGBA) {
	z := cam.Zoom
	cx, cy := cam.WorldToScreen(ax, ay)
	hw, hh, h := halfW*z, halfW*z/2, height*z
	left := func(dy float64) (float32, float32) { return float32(cx - hw), float32(cy + dy) }
	right := func(dy float64) (float32, float32) { return float32(cx + hw), float32(cy + dy) }

	var side vector.Path
	lx, ly := left(0)
	side.MoveTo(lx, ly)
	side.LineTo(float32(cx), float32(cy+hh))
	side.LineTo(float32(cx), float32(cy+hh-h))
	lx, ly = left(-h)
	side.LineTo(lx, ly)
	side.Close()
	fillPath(dst, &side, shade(body, 0.75))

	var side2 vector.Path
	rx, ry := right(0)
	side2.MoveTo(rx, ry)
	side2.LineTo(float32(cx), float32(cy+hh))
	side2.LineTo(float32(cx), float32(cy+hh-h))
	rx, ry = right(-h)
	side2.LineTo(rx, ry)
	side2.Close()
	fillPath(dst, &side2, shade(body, 0.9))

	var top vector.Path
	top.MoveTo(float32(cx), float32(cy-hh-h))
	rx, ry = right(-h)
	top.LineTo(rx, ry)
	top.LineTo(float32(cx), float32(cy+hh-h))
	lx, ly = left(-h)
	top.LineTo(lx, ly)
	top.Close()
	fillPath(dst, &top, shade(body, 1.15))
}

// drawTooltip draws the eased info panel.
func (g *Game) drawTooltip(screen *ebiten.Image) {
	tt := &g.state.Tooltip
	if !tt.Visible() || tt.Title == "" {
		return
	}
	const pad, lineH = 8.0, 16.0
	w := 0.0
	for _, l := range append([]string{tt.Title}, tt.Lines...) {
		lw, _ := text.Measure(l, g.fonts.body, 0)
		w = math.Max(w, lw)
	}
	w += 2 * pad
	h := 2*pad + lineH*float64(1+len(tt.Lines))
	x, y := tt.X, tt.Y-h

	a := float32(tt.Opacity)
	bg := colTooltipBG
	bg.A = uint8(float32(bg.A) * a)
	vector.FillRect(screen, float32(x), float32(y), float32(w), float32(h), premul(bg), false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, premul(color.RGBA{R: colTooltipEdge.R, G: colTooltipEdge.G, B: colTooltipEdge.B, A: uint8(255 * a)}), false)

	drawTextAlpha(screen, tt.Title, g.fonts.bold, x+pad, y+pad, colHighlight, tt.Opacity)
	for i, l := range tt.Lines {
		drawTextAlpha(screen, l, g.fonts.body, x+pad, y+pad+lineH*float64(i+1), colText, tt.Opacity)
	}
}

func drawTextAlpha(dst *ebiten.Image, s string, face text.Face, x, y float64, clr color.Color, alpha float64) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.ColorScale.ScaleAlpha(float32(alpha))
	text.Draw(dst, s, face, op)
}

// premul converts a straight-alpha colour into the premultiplied form
// color.RGBA expects.
func premul(c color.RGBA) color.RGBA {
	f := float64(c.A) / 255
	return color.RGBA{R: uint8(float64(c.R) * f), G: uint8(float64(c.G) * f), B: uint8(float64(c.B) * f), A: c.A}
}
