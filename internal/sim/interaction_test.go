package sim

import (
	"strings"
	"testing"
)

func checkingState(ps *memPlacements) *State {
	opts := []Option{
		WithViewport(1280, 720),
		WithAccounts(Snapshot{Depository: []Account{{ID: "chk", Name: "Checking", Balance: 100}}}),
	}
	if ps != nil {
		opts = append(opts, WithPlacementStore(ps))
	}
	return New(opts...)
}

func click(s *State, x, y float64) {
	s.HandleInput(Input{Kind: InputPointerDown, X: x, Y: y})
	s.HandleInput(Input{Kind: InputPointerUp, X: x, Y: y})
}

func TestInteraction_ClickTogglesSelection(t *testing.T) {
	s := checkingState(nil)
	b, _ := s.Building(CategoryDepository, "chk")
	sx, sy := s.Camera.WorldToScreen(b.Anchor())

	click(s, sx, sy)
	if s.UI.Selected.Building != b {
		t.Fatal("expected the building to be selected")
	}
	s.Tick()
	if !s.Tooltip.Visible() || s.Tooltip.Title != "Checking" {
		t.Fatalf("expected tooltip for Checking, got %q", s.Tooltip.Title)
	}
	if s.Tooltip.Lines[0] != "Balance: $100.00" {
		t.Fatalf("unexpected balance line %q", s.Tooltip.Lines[0])
	}
	if tl, size, ok := s.Highlight(); !ok || tl != b.Cell || size != 2 {
		t.Fatalf("expected 2x2 highlight at %v, got %v size %d", b.Cell, tl, size)
	}

	click(s, sx, sy)
	if !s.UI.Selected.None() {
		t.Fatal("second click must deselect")
	}
	s.RunTicks(60)
	if s.Tooltip.Visible() {
		t.Fatal("tooltip should have faded out")
	}
}

func TestInteraction_HubSelectionHighlights3x3(t *testing.T) {
	s := checkingState(nil)
	sx, sy := s.Camera.WorldToScreen(s.Hub.Anchor())
	click(s, sx, sy)
	if s.UI.Selected.Landmark != s.Hub {
		t.Fatal("expected hub selected")
	}
	if _, size, ok := s.Highlight(); !ok || size != 3 {
		t.Fatalf("expected 3x3 hub highlight, got %d", size)
	}
	s.Tick()
	if s.Tooltip.Title != "Town Hall" {
		t.Fatalf("unexpected title %q", s.Tooltip.Title)
	}
}

func TestInteraction_ClickEmptyDeselects(t *testing.T) {
	s := checkingState(nil)
	sx, sy := s.Camera.WorldToScreen(s.Hub.Anchor())
	click(s, sx, sy)
	click(s, 5, 5)
	if !s.UI.Selected.None() {
		t.Fatal("clicking empty ground must deselect")
	}
}

func TestInteraction_PanDeferredOneTick(t *testing.T) {
	s := checkingState(nil)
	startX := s.Camera.PanX

	s.HandleInput(Input{Kind: InputPointerDown, X: 5, Y: 5})
	if s.Camera.Panning() {
		t.Fatal("pan must not start before the deferral resolves")
	}
	s.Tick()
	if !s.Camera.Panning() {
		t.Fatal("pan should start on the next tick")
	}
	s.HandleInput(Input{Kind: InputPointerMove, X: 25, Y: 5})
	if s.Camera.PanX != startX+20 {
		t.Fatalf("expected pan +20, got %.1f", s.Camera.PanX-startX)
	}
	s.HandleInput(Input{Kind: InputPointerUp, X: 25, Y: 5})
	if s.Camera.Panning() {
		t.Fatal("pointer up ends the pan")
	}
}

func TestInteraction_ReleasedBeforeTickNeverPans(t *testing.T) {
	s := checkingState(nil)
	click(s, 5, 5)
	s.Tick()
	if s.Camera.Panning() {
		t.Fatal("a click released before the deferral must not pan")
	}
}

func TestInteraction_BuildingPressNeverPans(t *testing.T) {
	s := checkingState(nil)
	b, _ := s.Building(CategoryDepository, "chk")
	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})
	s.Tick()
	if s.Camera.Panning() {
		t.Fatal("pressing a building must not start a pan")
	}
}

func TestInteraction_DragSnapsAndPersists(t *testing.T) {
	ps := newMemPlacements()
	s := checkingState(ps)
	s.SetBuildMode(true)
	b, _ := s.Building(CategoryDepository, "chk")

	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})
	if !s.UI.Dragging() || !b.Dragging {
		t.Fatal("expected a drag in build mode")
	}

	tx, ty := s.Camera.WorldToScreen(ToScreen(3, 3))
	s.HandleInput(Input{Kind: InputPointerMove, X: tx + 4, Y: ty - 3})
	preview, blocked, ok := s.DragPreview()
	if !ok || preview != (Cell{2, 2}) || blocked {
		t.Fatalf("expected free preview at (2,2), got %v blocked=%v", preview, blocked)
	}
	s.HandleInput(Input{Kind: InputPointerUp, X: tx, Y: ty})

	if b.Cell != (Cell{2, 2}) || b.Dragging {
		t.Fatalf("expected building snapped to (2,2), got %v", b.Cell)
	}
	if p := ps.saved["chk"]; ps.saves != 1 || p.GridX != 2 || p.GridY != 2 {
		t.Fatalf("expected placement saved, got %+v (saves=%d)", p, ps.saves)
	}
}

func TestInteraction_DragIntoProtectedZoneReverts(t *testing.T) {
	ps := newMemPlacements()
	s := checkingState(ps)
	s.SetBuildMode(true)
	b, _ := s.Building(CategoryDepository, "chk")
	origin := b.Cell

	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})
	tx, ty := s.Camera.WorldToScreen(ToScreen(16, 16))
	s.HandleInput(Input{Kind: InputPointerMove, X: tx, Y: ty})
	if _, blocked, _ := s.DragPreview(); !blocked {
		t.Fatal("preview over the hub must be blocked")
	}
	s.HandleInput(Input{Kind: InputPointerUp, X: tx, Y: ty})

	if b.Cell != origin {
		t.Fatalf("expected revert to %v, got %v", origin, b.Cell)
	}
	if ps.saves != 0 {
		t.Fatal("a reverted drag must not persist")
	}
	if !s.Log.HasEntry("interact", "drag_revert", "") {
		t.Fatal("expected revert in the log")
	}
}

func TestInteraction_LandmarksNotDraggable(t *testing.T) {
	s := checkingState(nil)
	s.SetBuildMode(true)
	sx, sy := s.Camera.WorldToScreen(s.Hub.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})
	if s.UI.Dragging() {
		t.Fatal("the hub must never be dragged")
	}
	if s.UI.Selected.Landmark != s.Hub {
		t.Fatal("pressing the hub in build mode still selects it")
	}
}

func TestInteraction_RecentreRefusedDuringDrag(t *testing.T) {
	s := checkingState(nil)
	s.SetBuildMode(true)
	b, _ := s.Building(CategoryDepository, "chk")
	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})

	panX := s.Camera.PanX
	s.HandleInput(Input{Kind: InputKeyDown, Key: KeyRecentre})
	if s.Camera.PanX != panX {
		t.Fatal("recentre must be refused while dragging")
	}

	s.HandleInput(Input{Kind: InputResize, X: 800, Y: 600})
	if s.Camera.ViewW != 1280 {
		t.Fatal("resize must wait for the drag to finish")
	}
	s.HandleInput(Input{Kind: InputPointerUp, X: sx, Y: sy})

	hx, hy := s.Hub.Anchor()
	cx, cy := s.Camera.WorldToScreen(hx, hy)
	if s.Camera.ViewW != 800 || cx != 400 || cy != 300 {
		t.Fatalf("expected deferred resize to recentre on the hub, got view %.0f hub at (%.0f,%.0f)",
			s.Camera.ViewW, cx, cy)
	}
}

func TestInteraction_LeavingBuildModeCancelsDrag(t *testing.T) {
	s := checkingState(nil)
	s.SetBuildMode(true)
	b, _ := s.Building(CategoryDepository, "chk")
	origin := b.Cell
	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerDown, X: sx, Y: sy})
	s.HandleInput(Input{Kind: InputPointerMove, X: sx + 200, Y: sy + 150})
	s.HandleInput(Input{Kind: InputKeyDown, Key: KeyEscape})
	if s.BuildMode || s.UI.Dragging() || b.Cell != origin {
		t.Fatal("escape must leave build mode and revert the drag")
	}
}

func TestInteraction_FlipPersists(t *testing.T) {
	ps := newMemPlacements()
	s := checkingState(ps)
	b, _ := s.Building(CategoryDepository, "chk")
	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	click(s, sx, sy)
	s.HandleInput(Input{Kind: InputKeyDown, Key: KeyFlip})
	if !b.FacingRight || !ps.saved["chk"].FacingRight {
		t.Fatal("flip must mirror the building and persist it")
	}
}

func TestInteraction_KeyboardPanAndZoom(t *testing.T) {
	s := checkingState(nil)
	x0 := s.Camera.PanX
	s.HandleInput(Input{Kind: InputKeyDown, Key: KeyPanLeft})
	s.RunTicks(3)
	s.HandleInput(Input{Kind: InputKeyUp, Key: KeyPanLeft})
	s.RunTicks(3)
	if s.Camera.PanX != x0+3*keyPanSpeed {
		t.Fatalf("expected 3 ticks of pan, got %.0f", s.Camera.PanX-x0)
	}
	s.HandleInput(Input{Kind: InputKeyDown, Key: KeyZoomOut})
	s.RunTicks(120)
	if !near(s.Camera.Zoom, 1/keyZoomStep) {
		t.Fatalf("expected eased zoom %.3f, got %.3f", 1/keyZoomStep, s.Camera.Zoom)
	}
}

func TestInteraction_HoverTracksPointer(t *testing.T) {
	s := checkingState(nil)
	b, _ := s.Building(CategoryDepository, "chk")
	sx, sy := s.Camera.WorldToScreen(b.Anchor())
	s.HandleInput(Input{Kind: InputPointerMove, X: sx, Y: sy - 20})
	if s.UI.Hover.Building != b {
		t.Fatal("expected hover on the building")
	}
	s.HandleInput(Input{Kind: InputPointerMove, X: 3, Y: 3})
	if !s.UI.Hover.None() {
		t.Fatal("expected hover cleared")
	}
}

func TestTooltip_TextForCopy(t *testing.T) {
	s := New(WithAccounts(oneCard(1234.5, 19.99)))
	b, _ := s.Building(CategoryCreditCards, "visa")
	s.selectTarget(Target{Building: b})
	text := s.Tooltip.Text()
	for _, want := range []string{"Visa", "Balance: $1,234.50", "APR: 19.99%", "Spawns threats", "Level 1"} {
		if !strings.Contains(text, want) {
			t.Fatalf("tooltip %q missing %q", text, want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[float64]string{
		0:          "$0.00",
		5:          "$5.00",
		1234.5:     "$1,234.50",
		-987654.32: "-$987,654.32",
		1000000:    "$1,000,000.00",
	}
	for in, want := range cases {
		if got := FormatMoney(in); got != want {
			t.Errorf("FormatMoney(%v) = %q, want %q", in, got, want)
		}
	}
}
