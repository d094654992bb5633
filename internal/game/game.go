// Package game is the Ebiten front end: it polls devices into sim inputs,
// steps the simulation once per frame and draws its render list.
package game

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Garsondee/fincraft/internal/sim"
)

// publishEvery is how often, in ticks, a summary goes to observers.
const publishEvery = 30

// Options configures the front end.
type Options struct {
	Width, Height int
	AssetsDir     string
	Audio         bool
	Publish       func(sim.Summary) // called every publishEvery ticks when set
	Logger        *slog.Logger
}

type fonts struct {
	body  text.Face
	small text.Face
	bold  text.Face
}

func loadFonts() (fonts, error) {
	regular, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return fonts{}, fmt.Errorf("load regular font: %w", err)
	}
	bold, err := text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	if err != nil {
		return fonts{}, fmt.Errorf("load bold font: %w", err)
	}
	return fonts{
		body:  &text.GoTextFace{Source: regular, Size: 13},
		small: &text.GoTextFace{Source: regular, Size: 11},
		bold:  &text.GoTextFace{Source: bold, Size: 14},
	}, nil
}

// Game implements ebiten.Game around a headless sim.State.
type Game struct {
	state  *sim.State
	opts   Options
	log    *slog.Logger
	width  int
	height int

	assets  *Assets
	chimes  *Chimes
	ledger  *LedgerLog
	input   inputTranslator
	fonts   fonts
	visuals map[*sim.Building]buildingVisual
	showHUD bool
	cursor  ebiten.CursorShapeType

	// Window size reported by Layout, applied on the next Update.
	layoutW, layoutH int
}

// New wires a front end to state. Asset and audio problems are logged and
// degrade to procedural art and silence; only a font failure is fatal.
func New(state *sim.State, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f, err := loadFonts()
	if err != nil {
		return nil, err
	}
	g := &Game{
		state:   state,
		opts:    opts,
		log:     logger,
		width:   opts.Width,
		height:  opts.Height,
		ledger:  NewLedgerLog(),
		fonts:   f,
		visuals: make(map[*sim.Building]buildingVisual),
		showHUD: true,
		layoutW: opts.Width,
		layoutH: opts.Height,
	}

	assets, results := LoadAssets(opts.AssetsDir)
	g.assets = assets
	loaded := 0
	for _, r := range results {
		if r.Loaded {
			loaded++
			continue
		}
		if r.Err != nil {
			logger.Debug("sprite missing, using procedural art", "sprite", r.Spec.Name, "error", r.Err)
			state.Log.AddVerbose(0, r.Spec.Name, "asset", "fallback", r.Err.Error(), 0)
		}
	}
	logger.Info("assets loaded", "dir", opts.AssetsDir, "loaded", loaded, "total", len(results))
	msg := fmt.Sprintf("%d/%d sprites", loaded, len(results))
	state.Log.Add(0, "--", "asset", "loaded", msg, float64(loaded))
	g.ledger.Add(0, "--", ToneNeutral, "assets "+msg)

	if opts.Audio {
		g.chimes = NewChimes()
	}
	state.HandleInput(sim.Input{Kind: sim.InputResize, X: float64(g.viewW()), Y: float64(g.height)})
	return g, nil
}

// viewW is the width of the world viewport, left of the ledger panel.
func (g *Game) viewW() int {
	w := g.width - logPanelWidth
	if w < 1 {
		w = 1
	}
	return w
}

func (g *Game) Update() error {
	if g.layoutW != g.width || g.layoutH != g.height {
		g.width, g.height = g.layoutW, g.layoutH
		g.state.HandleInput(sim.Input{Kind: sim.InputResize, X: float64(g.viewW()), Y: float64(g.height)})
	}

	f := g.input.poll()
	for _, in := range g.input.translate(f) {
		// The ledger panel swallows pointer input.
		if isPointer(in.Kind) && in.X >= float64(g.viewW()) && !g.state.UI.Dragging() {
			continue
		}
		g.state.HandleInput(in)
	}
	if c := cursorFor(g.state); c != g.cursor {
		ebiten.SetCursorShape(c)
		g.cursor = c
	}
	g.handleFrontEndKeys(f)
	g.step()
	return nil
}

func isPointer(k sim.InputKind) bool {
	return k == sim.InputPointerDown || k == sim.InputPointerMove || k == sim.InputWheel
}

// cursorFor picks the mouse cursor: a move cursor while the view or a
// building is being dragged, a pointer over anything clickable.
func cursorFor(s *sim.State) ebiten.CursorShapeType {
	switch {
	case s.Camera.Panning(), s.UI.Dragging():
		return ebiten.CursorShapeMove
	case !s.UI.Hover.None():
		return ebiten.CursorShapePointer
	}
	return ebiten.CursorShapeDefault
}

// handleFrontEndKeys covers shortcuts that never reach the simulation's
// interaction state machine.
func (g *Game) handleFrontEndKeys(f deviceFrame) {
	switch {
	case f.justPressed(ebiten.KeyC):
		g.copySelection()
	case f.justPressed(ebiten.KeyH):
		g.showHUD = !g.showHUD
	case f.justPressed(ebiten.KeyT):
		g.state.SetTimeView(nextTimeView(g.state.TimeView))
	case f.justPressed(ebiten.KeyPeriod):
		g.state.SetPlaybackSpeed(stepSpeed(g.state.Speed, 1))
	case f.justPressed(ebiten.KeyComma):
		g.state.SetPlaybackSpeed(stepSpeed(g.state.Speed, -1))
	}
}

// nextTimeView cycles through the time views.
func nextTimeView(v sim.TimeView) sim.TimeView {
	for i, k := range sim.TimeViews {
		if k == v {
			return sim.TimeViews[(i+1)%len(sim.TimeViews)]
		}
	}
	return sim.View1M
}

// stepSpeed moves one notch through the offered playback speeds.
func stepSpeed(cur float64, dir int) float64 {
	speeds := sim.PlaybackSpeeds
	idx := 0
	for i, s := range speeds {
		if s <= cur {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(speeds) {
		idx = len(speeds) - 1
	}
	return speeds[idx]
}

func (g *Game) copySelection() {
	tick := g.state.CurrentTick()
	if err := copyTooltip(g.state.Tooltip.Text()); err != nil {
		g.log.Debug("copy failed", "error", err)
		g.state.Log.Add(tick, "--", "clipboard", "failed", err.Error(), 0)
		g.ledger.Add(tick, "--", ToneNegative, "copy failed: "+err.Error())
		return
	}
	g.state.Log.Add(tick, "--", "clipboard", "copied", g.state.Tooltip.Title, 0)
	g.ledger.Add(tick, "--", ToneNeutral, "copied "+g.state.Tooltip.Title)
}

// step advances the simulation one tick and fans its output out to the
// ledger, the chimes and any summary observer.
func (g *Game) step() {
	g.state.Tick()
	tick := g.state.CurrentTick()
	g.ledger.Ingest(g.state.Log.Entries())
	for _, e := range g.state.FreshEffects() {
		if err := g.chimes.Play(e.Amount, e.Positive, tick); err != nil {
			g.log.Warn("chime failed, muting", "error", err)
			g.chimes = nil
			break
		}
	}
	if len(g.visuals) > len(g.state.Buildings()) {
		g.pruneVisuals()
	}
	if g.opts.Publish != nil && tick%publishEvery == 0 {
		g.opts.Publish(g.state.Summarize())
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 28, G: 40, B: 30, A: 255})
	g.drawGround(screen)
	g.drawSelection(screen)
	for _, it := range g.state.RenderList() {
		switch it.Kind {
		case sim.RenderLandmark:
			g.drawLandmark(screen, it.Landmark)
		case sim.RenderBuilding:
			g.drawBuilding(screen, it.Building)
		case sim.RenderUnit:
			g.drawUnit(screen, it.Unit)
		case sim.RenderEffect:
			g.drawEffect(screen, it.Effect)
		}
	}
	g.drawTooltip(screen)
	if g.showHUD {
		g.drawHUD(screen)
	}
	g.ledger.Draw(screen, g.fonts.small, g.viewW(), g.height)
}

// drawHUD renders status and key hints in the bottom-left corner.
func (g *Game) drawHUD(screen *ebiten.Image) {
	s := g.state
	mode := "off"
	if s.BuildMode {
		mode = "ON"
	}
	lines := []string{
		fmt.Sprintf("Net worth %s   Town Hall level %d", sim.FormatMoney(s.NetWorth), s.Hub.Level),
		fmt.Sprintf("View %s (T)   Speed %.1fx (,/.)   Build mode %s (E)", s.TimeView, s.Speed, mode),
		fmt.Sprintf("Units %d   Queue %d   Zoom %.2fx", len(s.Units()), s.Queue.Len(), s.Camera.Zoom),
		"Drag/WASD pan   wheel/+- zoom   0 recentre   R flip   C copy   H hide",
	}
	const lineH, pad = 15, 6
	boxH := float32(len(lines)*lineH + 2*pad)
	by := float32(g.height) - boxH - 6
	vector.FillRect(screen, 6, by, 430, boxH, color.RGBA{R: 10, G: 12, B: 18, A: 200}, false)
	vector.StrokeRect(screen, 6, by, 430, boxH, 1, color.RGBA{R: 70, G: 80, B: 110, A: 200}, false)
	for i, l := range lines {
		drawText(screen, l, g.fonts.small, 6+pad, float64(by)+pad+float64(i*lineH), colText)
	}
}

func (g *Game) Layout(outsideW, outsideH int) (int, int) {
	g.layoutW, g.layoutH = outsideW, outsideH
	return outsideW, outsideH
}
