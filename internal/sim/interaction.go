package sim

import (
	"fmt"
	"math"
)

// InputKind enumerates the device events the front end feeds the simulation.
type InputKind int

const (
	InputPointerDown InputKind = iota
	InputPointerMove
	InputPointerUp
	InputWheel // Delta: notches, positive zooms in
	InputPinch // Delta: scale ratio since the previous pinch event
	InputKeyDown
	InputKeyUp
	InputResize // X, Y: new viewport width and height
)

// Key is a logical key, already mapped from the physical keyboard.
type Key int

const (
	KeyNone Key = iota
	KeyPanUp
	KeyPanDown
	KeyPanLeft
	KeyPanRight
	KeyZoomIn
	KeyZoomOut
	KeyRecentre
	KeyToggleBuild
	KeyEscape
	KeyFlip
)

// Input is one explicit device event in viewport coordinates.
type Input struct {
	Kind  InputKind
	X, Y  float64
	Delta float64
	Key   Key
}

// Target is the result of a hit test: a landmark, a building, or nothing.
type Target struct {
	Landmark *Landmark
	Building *Building
}

// None reports whether the target is empty.
func (t Target) None() bool {
	return t.Landmark == nil && t.Building == nil
}

// Anchor returns the target's world anchor.
func (t Target) Anchor() (float64, float64) {
	if t.Building != nil {
		return t.Building.Anchor()
	}
	if t.Landmark != nil {
		return t.Landmark.Anchor()
	}
	return 0, 0
}

func (t Target) label() string {
	switch {
	case t.Building != nil:
		return t.Building.Label()
	case t.Landmark != nil:
		return t.Landmark.Kind.String()
	}
	return "--"
}

// Interaction holds hover, selection, drag and deferred-pan state.
type Interaction struct {
	Hover    Target
	Selected Target

	PointerX, PointerY float64

	pointerDown bool
	pendingPan  bool
	pendX       float64
	pendY       float64

	drag *dragState

	resizePending bool
	resizeW       float64
	resizeH       float64
}

type dragState struct {
	building *Building
	offX     float64 // building anchor minus pointer, world space
	offY     float64
	origin   Cell
	preview  Cell
	blocked  bool
}

// Dragging reports whether a building drag is in progress.
func (in *Interaction) Dragging() bool {
	return in.drag != nil
}

// Hit-box extents around an anchor, world units: half width, height above, depth below.
type hitBox struct {
	halfW, up, down float64
}

var (
	buildingHit = hitBox{halfW: 32, up: 70, down: 16}
	hubHit      = hitBox{halfW: 60, up: 100, down: 24}
	mineHit     = hitBox{halfW: 40, up: 60, down: 16}
)

func (h hitBox) contains(ax, ay, wx, wy float64) bool {
	return wx >= ax-h.halfW && wx <= ax+h.halfW && wy >= ay-h.up && wy <= ay+h.down
}

// HitTest returns the front-most interactive entity at a world point. Front-most is
// the largest depth key (anchor y).
func (s *State) HitTest(wx, wy float64) Target {
	var best Target
	bestDepth := math.Inf(-1)
	consider := func(t Target, h hitBox) {
		ax, ay := t.Anchor()
		if h.contains(ax, ay, wx, wy) && ay > bestDepth {
			best, bestDepth = t, ay
		}
	}
	consider(Target{Landmark: s.Hub}, hubHit)
	consider(Target{Landmark: s.Mine}, mineHit)
	for _, b := range s.buildings {
		consider(Target{Building: b}, buildingHit)
	}
	return best
}

// HandleInput dispatches one device event to the interaction state machine.
func (s *State) HandleInput(in Input) {
	switch in.Kind {
	case InputPointerDown:
		s.pointerDown(in.X, in.Y)
	case InputPointerMove:
		s.pointerMove(in.X, in.Y)
	case InputPointerUp:
		s.pointerUp()
	case InputWheel:
		s.Camera.Wheel(in.Delta, in.X, in.Y)
	case InputPinch:
		s.Camera.Pinch(in.Delta, in.X, in.Y)
	case InputKeyDown:
		s.keyDown(in.Key)
	case InputKeyUp:
		s.keyUp(in.Key)
	case InputResize:
		s.Resize(in.X, in.Y)
	}
}

func (s *State) pointerDown(x, y float64) {
	ui := &s.UI
	ui.PointerX, ui.PointerY = x, y
	ui.pointerDown = true
	wx, wy := s.Camera.ScreenToWorld(x, y)
	hit := s.HitTest(wx, wy)

	if hit.Building != nil && s.BuildMode {
		s.beginDrag(hit.Building, wx, wy)
		return
	}
	if !hit.None() {
		if ui.Selected == hit {
			s.deselect()
			return
		}
		s.selectTarget(hit)
		return
	}
	// Empty ground: the pan only starts once the next tick confirms no entity
	// claimed this press.
	s.deselect()
	ui.pendingPan = true
	ui.pendX, ui.pendY = x, y
}

func (s *State) pointerMove(x, y float64) {
	ui := &s.UI
	ui.PointerX, ui.PointerY = x, y
	wx, wy := s.Camera.ScreenToWorld(x, y)

	if d := ui.drag; d != nil {
		b := d.building
		b.DragX, b.DragY = wx+d.offX, wy+d.offY
		d.preview = CellAt(b.DragX, b.DragY).Add(-1, -1)
		d.blocked = footprintProtected(d.preview)
		return
	}
	if s.Camera.Panning() {
		dx, dy := s.Camera.PanTo(x, y)
		if math.Abs(dx) > panCloseThresh || math.Abs(dy) > panCloseThresh {
			s.deselect()
		}
		return
	}
	ui.Hover = s.HitTest(wx, wy)
}

func (s *State) pointerUp() {
	ui := &s.UI
	ui.pointerDown = false
	ui.pendingPan = false
	if ui.drag != nil {
		s.endDrag(true)
	}
	s.Camera.EndPan()
}

// confirmPendingPan starts a deferred pan if the press is still held and no entity
// claimed it.
func (s *State) confirmPendingPan() {
	ui := &s.UI
	if !ui.pendingPan {
		return
	}
	ui.pendingPan = false
	if !ui.pointerDown || ui.drag != nil {
		return
	}
	s.Camera.BeginPan(ui.pendX, ui.pendY)
}

func (s *State) keyDown(k Key) {
	switch k {
	case KeyPanUp:
		s.Camera.HoldPan(PanUp, true)
	case KeyPanDown:
		s.Camera.HoldPan(PanDown, true)
	case KeyPanLeft:
		s.Camera.HoldPan(PanLeft, true)
	case KeyPanRight:
		s.Camera.HoldPan(PanRight, true)
	case KeyZoomIn:
		s.Camera.StepZoom(true)
	case KeyZoomOut:
		s.Camera.StepZoom(false)
	case KeyRecentre:
		s.Recentre()
	case KeyToggleBuild:
		s.SetBuildMode(!s.BuildMode)
	case KeyEscape:
		if s.BuildMode {
			s.SetBuildMode(false)
			return
		}
		s.deselect()
	case KeyFlip:
		s.FlipSelected()
	}
}

func (s *State) keyUp(k Key) {
	switch k {
	case KeyPanUp:
		s.Camera.HoldPan(PanUp, false)
	case KeyPanDown:
		s.Camera.HoldPan(PanDown, false)
	case KeyPanLeft:
		s.Camera.HoldPan(PanLeft, false)
	case KeyPanRight:
		s.Camera.HoldPan(PanRight, false)
	}
}

func (s *State) beginDrag(b *Building, wx, wy float64) {
	ax, ay := b.Anchor()
	s.deselect()
	s.UI.drag = &dragState{
		building: b,
		offX:     ax - wx,
		offY:     ay - wy,
		origin:   b.Cell,
		preview:  b.Cell,
		blocked:  footprintProtected(b.Cell),
	}
	b.DragX, b.DragY = ax, ay
	b.Dragging = true
	s.Log.Add(s.tick, b.Label(), "interact", "drag_start", cellString(b.Cell), 0)
}

// endDrag finishes a drag. When commit is true and the preview is outside the
// protected zone the building snaps there and the placement is saved; otherwise it
// returns to where the drag began.
func (s *State) endDrag(commit bool) {
	d := s.UI.drag
	s.UI.drag = nil
	b := d.building
	b.Dragging = false
	if commit && !d.blocked {
		b.Cell = d.preview
		s.Log.Add(s.tick, b.Label(), "interact", "drag_drop", cellString(b.Cell), 0)
		s.savePlacement(b)
	} else {
		b.Cell = d.origin
		s.Log.Add(s.tick, b.Label(), "interact", "drag_revert", cellString(d.preview), 0)
	}
	s.applyDeferredResize()
}

// DragPreview returns the footprint the dragged building would drop onto and whether
// that footprint is protected.
func (s *State) DragPreview() (topLeft Cell, blocked, ok bool) {
	if s.UI.drag == nil {
		return Cell{}, false, false
	}
	return s.UI.drag.preview, s.UI.drag.blocked, true
}

// DraggedBuilding returns the building being dragged, if any.
func (s *State) DraggedBuilding() *Building {
	if s.UI.drag == nil {
		return nil
	}
	return s.UI.drag.building
}

func (s *State) selectTarget(t Target) {
	s.UI.Selected = t
	s.refreshTooltip()
	s.Tooltip.show()
	s.Log.Add(s.tick, t.label(), "interact", "select", "", 0)
}

func (s *State) deselect() {
	if s.UI.Selected.None() {
		return
	}
	s.Log.Add(s.tick, s.UI.Selected.label(), "interact", "deselect", "", 0)
	s.UI.Selected = Target{}
	s.Tooltip.hide()
}

// Highlight returns the ground footprint to highlight for the selection.
func (s *State) Highlight() (topLeft Cell, size int, ok bool) {
	t := s.UI.Selected
	switch {
	case t.Building != nil:
		return t.Building.Cell, buildingSize, true
	case t.Landmark != nil:
		return t.Landmark.Cell, t.Landmark.Size, true
	}
	return Cell{}, 0, false
}

// SetBuildMode toggles build mode. Leaving build mode mid-drag reverts the drag.
func (s *State) SetBuildMode(on bool) {
	if s.BuildMode == on {
		return
	}
	s.BuildMode = on
	if !on && s.UI.drag != nil {
		s.endDrag(false)
	}
	s.Log.Add(s.tick, "--", "interact", "build_mode", fmt.Sprint(on), 0)
}

// FlipSelected mirrors the selected building and persists its orientation.
func (s *State) FlipSelected() bool {
	b := s.UI.Selected.Building
	if b == nil {
		return false
	}
	b.FacingRight = !b.FacingRight
	s.Log.Add(s.tick, b.Label(), "interact", "flip", fmt.Sprint(b.FacingRight), 0)
	s.savePlacement(b)
	return true
}

// Recentre frames the hub at 1× zoom. It is refused while a drag is in progress.
func (s *State) Recentre() bool {
	if s.UI.drag != nil {
		s.Log.Add(s.tick, "--", "camera", "recentre_refused", "drag active", 0)
		return false
	}
	ax, ay := s.Hub.Anchor()
	s.Camera.CentreOn(ax, ay)
	s.Log.Add(s.tick, "--", "camera", "recentre", "", 0)
	return true
}

// Resize applies a new viewport size and recentres. During a drag the resize is held
// until the drag ends.
func (s *State) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	if s.UI.drag != nil {
		s.UI.resizePending = true
		s.UI.resizeW, s.UI.resizeH = w, h
		s.Log.Add(s.tick, "--", "camera", "resize_deferred", fmt.Sprintf("%.0fx%.0f", w, h), 0)
		return
	}
	s.Camera.ViewW, s.Camera.ViewH = w, h
	s.Recentre()
}

func (s *State) applyDeferredResize() {
	if !s.UI.resizePending {
		return
	}
	s.UI.resizePending = false
	s.Resize(s.UI.resizeW, s.UI.resizeH)
}
