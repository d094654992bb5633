package game

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/fincraft/internal/sim"
)

// buildingVisual is the level-dependent look of a building, rebuilt whenever
// the building's revision moves.
type buildingVisual struct {
	revision int
	tier     int
	height   float64
	scale    float64
	body     color.RGBA
	roof     color.RGBA
}

func newBuildingVisual(b *sim.Building) buildingVisual {
	body, ok := categoryColor[b.Category]
	if !ok {
		body = categoryColor[sim.CategoryOthers]
	}
	roof := colGold
	if b.IsDebt {
		roof = colRed
	}
	tier := visualTier(b.Level)
	return buildingVisual{
		revision: b.Revision,
		tier:     tier,
		height:   18 + 9*float64(tier),
		scale:    1 + 0.08*float64(tier),
		body:     body,
		roof:     roof,
	}
}

func (g *Game) visual(b *sim.Building) buildingVisual {
	v, ok := g.visuals[b]
	if !ok || v.revision != b.Revision {
		v = newBuildingVisual(b)
		g.visuals[b] = v
	}
	return v
}

// pruneVisuals forgets buildings that no longer exist.
func (g *Game) pruneVisuals() {
	live := make(map[*sim.Building]bool, len(g.state.Buildings()))
	for _, b := range g.state.Buildings() {
		live[b] = true
	}
	for b := range g.visuals {
		if !live[b] {
			delete(g.visuals, b)
		}
	}
}

func (g *Game) drawShadow(screen *ebiten.Image, ax, ay, r float64) {
	cam := &g.state.Camera
	sx, sy := cam.WorldToScreen(ax, ay)
	z := cam.Zoom
	var p vector.Path
	p.MoveTo(float32(sx-r*z), float32(sy))
	p.LineTo(float32(sx), float32(sy-r*z/2))
	p.LineTo(float32(sx+r*z), float32(sy))
	p.LineTo(float32(sx), float32(sy+r*z/2))
	p.Close()
	fillPath(screen, &p, colShadow)
}

func (g *Game) drawLandmark(screen *ebiten.Image, l *sim.Landmark) {
	cam := &g.state.Camera
	ax, ay := l.Anchor()
	tier := float64(visualTier(l.Level))
	if art := g.assets.Tier(landmarkSprite(l.Kind), l.Level); art.Image != nil {
		sx, sy := cam.WorldToScreen(ax, ay)
		screen.DrawImage(art.Image, spriteOptions(art, sx, sy, cam.Zoom*(1+0.05*tier), false))
		return
	}
	half := float64(l.Size) * sim.TileW / 4
	g.drawShadow(screen, ax, ay, half*1.2)
	if l.Kind == sim.LandmarkHub {
		body := color.RGBA{R: 180, G: 150, B: 110, A: 255}
		drawBox(screen, cam, ax, ay, half, 30+8*tier, body)
		// Spire marks the town hall.
		drawBox(screen, cam, ax, ay-30-8*tier, half/3, 26, colGold)
		return
	}
	drawBox(screen, cam, ax, ay, half, 20, color.RGBA{R: 90, G: 90, B: 100, A: 255})
	sx, sy := cam.WorldToScreen(ax, ay-24)
	vector.FillCircle(screen, float32(sx), float32(sy), float32(6*cam.Zoom), colGold, true)
}

func (g *Game) drawBuilding(screen *ebiten.Image, b *sim.Building) {
	cam := &g.state.Camera
	ax, ay := b.Anchor()
	v := g.visual(b)
	if art := g.assets.Tier(buildingSprite(b.Category), v.tier); art.Image != nil {
		sx, sy := cam.WorldToScreen(ax, ay)
		op := spriteOptions(art, sx, sy, cam.Zoom*v.scale, b.FacingRight)
		if b.Dragging {
			op.ColorScale.ScaleAlpha(0.7)
		}
		screen.DrawImage(art.Image, op)
		return
	}
	half := sim.TileW / 2 * 0.8
	g.drawShadow(screen, ax, ay, half*1.2)
	body := v.body
	if b.Dragging {
		body = dim(body)
	}
	drawBox(screen, cam, ax, ay, half, v.height, body)
	// Roof band: gold for assets, red for debts; the side it sits on shows facing.
	off := -half / 2
	if b.FacingRight {
		off = half / 2
	}
	sx, sy := cam.WorldToScreen(ax+off, ay-v.height-2)
	vector.FillRect(screen, float32(sx-5*cam.Zoom), float32(sy-4*cam.Zoom), float32(10*cam.Zoom), float32(8*cam.Zoom), v.roof, true)

	if cam.Zoom >= 0.8 {
		lx, ly := cam.WorldToScreen(ax, ay+sim.TileH/2)
		drawTextCentred(screen, b.Name, g.fonts.small, lx, ly, colText, 0.9)
	}
}

// unitColor tints a unit by kind, and transaction walkers by class.
func unitColor(u *sim.Unit) color.RGBA {
	switch u.Kind {
	case sim.UnitIncomeCarrier:
		return colGold
	case sim.UnitInterestThreat:
		r := uint8(150 + 100*u.Intensity)
		return color.RGBA{R: r, G: 40, B: 50, A: 255}
	case sim.UnitExpenseAttacker:
		return color.RGBA{R: 170, G: 50, B: 40, A: 255}
	case sim.UnitPaymentResponder:
		return color.RGBA{R: 80, G: 150, B: 230, A: 255}
	}
	switch u.Class {
	case sim.TxIncome:
		return colGold
	case sim.TxTransfer:
		return color.RGBA{R: 120, G: 190, B: 220, A: 255}
	}
	return colRed
}

func (g *Game) drawUnit(screen *ebiten.Image, u *sim.Unit) {
	cam := &g.state.Camera
	scale := u.Scale()
	if art := g.assets.Get(unitSprite(u.Kind)); art.Image != nil {
		sx, sy := cam.WorldToScreen(u.X, u.Y)
		screen.DrawImage(art.Image, spriteOptions(art, sx, sy, cam.Zoom*scale, u.HeadX > 0))
		return
	}
	g.drawShadow(screen, u.X, u.Y, 7*scale)
	// Four-frame walk bob.
	bob := []float64{0, -1.5, 0, 1}[u.Frame%4]
	sx, sy := cam.WorldToScreen(u.X, u.Y-8*scale+bob)
	r := float32(6 * scale * cam.Zoom)
	if u.Kind == sim.UnitInterestThreat {
		r *= float32(0.8 + 0.6*u.Intensity)
	}
	col := unitColor(u)
	vector.FillCircle(screen, float32(sx), float32(sy), r, col, true)
	vector.StrokeCircle(screen, float32(sx), float32(sy), r, 1, dim(col), true)

	if u.Kind == sim.UnitTransactionNPC && u.Label != "" && cam.Zoom >= 1 {
		drawTextCentred(screen, u.Label, g.fonts.small, sx, sy-float64(r)-14, colText, 0.8)
	}
}

func (g *Game) drawEffect(screen *ebiten.Image, e *sim.Effect) {
	cam := &g.state.Camera
	sx, sy := cam.WorldToScreen(e.X, e.Y)
	col := colRed
	if e.Positive {
		col = colGold
	}
	drawTextCentred(screen, e.Text(), g.fonts.bold, sx, sy-20, col, math.Max(0, e.Alpha))
}
