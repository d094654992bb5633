package sim

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCamera_WheelKeepsPointerAnchored(t *testing.T) {
	c := NewCamera(800, 600)
	c.PanX, c.PanY = 120, -40
	wx, wy := c.ScreenToWorld(300, 200)
	c.Wheel(1, 300, 200)
	if !near(c.Zoom, wheelZoomIn) {
		t.Fatalf("expected zoom %.2f got %.4f", wheelZoomIn, c.Zoom)
	}
	wx2, wy2 := c.ScreenToWorld(300, 200)
	if !near(wx, wx2) || !near(wy, wy2) {
		t.Fatalf("world point under pointer moved: (%.3f,%.3f) → (%.3f,%.3f)", wx, wy, wx2, wy2)
	}
	if c.TargetZoom != c.Zoom {
		t.Fatal("wheel zoom must not leave an easing target behind")
	}
}

func TestCamera_ZoomClamped(t *testing.T) {
	c := NewCamera(800, 600)
	for i := 0; i < 50; i++ {
		c.Wheel(1, 10, 10)
	}
	if c.Zoom != MaxZoom {
		t.Fatalf("expected max zoom, got %.3f", c.Zoom)
	}
	for i := 0; i < 80; i++ {
		c.Wheel(-1, 10, 10)
	}
	if c.Zoom != MinZoom {
		t.Fatalf("expected min zoom, got %.3f", c.Zoom)
	}
	c.Pinch(100, 0, 0)
	if c.Zoom != MaxZoom {
		t.Fatalf("pinch must clamp, got %.3f", c.Zoom)
	}
}

func TestCamera_StepZoomEasesAroundCentre(t *testing.T) {
	c := NewCamera(800, 600)
	wx, wy := c.ScreenToWorld(400, 300)
	c.StepZoom(true)
	c.Ease()
	if c.Zoom <= 1 || c.Zoom >= keyZoomStep {
		t.Fatalf("expected partial ease, got %.4f", c.Zoom)
	}
	for i := 0; i < 200; i++ {
		c.Ease()
	}
	if c.Zoom != keyZoomStep {
		t.Fatalf("expected zoom to settle on %.2f, got %.6f", keyZoomStep, c.Zoom)
	}
	wx2, wy2 := c.ScreenToWorld(400, 300)
	if math.Abs(wx-wx2) > 1e-6 || math.Abs(wy-wy2) > 1e-6 {
		t.Fatal("eased zoom must keep the viewport centre fixed")
	}
}

func TestCamera_HeldPanKeys(t *testing.T) {
	c := NewCamera(800, 600)
	c.HoldPan(PanLeft, true)
	c.HoldPan(PanUp, true)
	c.Ease()
	if c.PanX != keyPanSpeed || c.PanY != keyPanSpeed {
		t.Fatalf("expected pan (8,8), got (%.0f,%.0f)", c.PanX, c.PanY)
	}
	c.HoldPan(PanLeft, false)
	c.HoldPan(PanUp, false)
	c.Ease()
	c.Ease()
	if c.PanX != keyPanSpeed || c.PanY != keyPanSpeed {
		t.Fatal("released keys must stop panning")
	}
}

func TestCamera_PointerPan(t *testing.T) {
	c := NewCamera(800, 600)
	if dx, dy := c.PanTo(50, 50); dx != 0 || dy != 0 {
		t.Fatal("PanTo without BeginPan must do nothing")
	}
	c.BeginPan(10, 10)
	c.PanTo(30, 5)
	if c.PanX != 20 || c.PanY != -5 {
		t.Fatalf("expected pan (20,-5), got (%.0f,%.0f)", c.PanX, c.PanY)
	}
	c.EndPan()
	if c.Panning() {
		t.Fatal("expected pan to end")
	}
}

func TestCamera_CentreOn(t *testing.T) {
	c := NewCamera(800, 600)
	c.Wheel(1, 0, 0)
	c.CentreOn(100, 200)
	sx, sy := c.WorldToScreen(100, 200)
	if c.Zoom != 1 || sx != 400 || sy != 300 {
		t.Fatalf("expected centred at 1x, got zoom %.2f screen (%.0f,%.0f)", c.Zoom, sx, sy)
	}
}
