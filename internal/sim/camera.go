package sim

import "math"

// Zoom limits and easing.
const (
	MinZoom        = 0.4
	MaxZoom        = 2.0
	wheelZoomIn    = 1.1
	wheelZoomOut   = 0.9
	keyZoomStep    = 1.25
	zoomEasing     = 0.15
	keyPanSpeed    = 8.0 // screen pixels per tick
	panCloseThresh = 2.0 // pan movement that dismisses the tooltip
)

// PanDir is one keyboard pan direction.
type PanDir int

const (
	PanUp PanDir = iota
	PanDown
	PanLeft
	PanRight
	panDirCount
)

// Camera maps world space to the viewport: screen = world*Zoom + Pan.
type Camera struct {
	PanX, PanY   float64
	Zoom         float64
	TargetZoom   float64
	ViewW, ViewH float64

	panning  bool
	lastPanX float64
	lastPanY float64
	keysHeld [panDirCount]bool
}

// NewCamera returns a camera at 1× zoom with the given viewport size.
func NewCamera(w, h float64) Camera {
	return Camera{Zoom: 1, TargetZoom: 1, ViewW: w, ViewH: h}
}

// ScreenToWorld converts a viewport point to world space.
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - c.PanX) / c.Zoom, (sy - c.PanY) / c.Zoom
}

// WorldToScreen converts a world point to viewport space.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*c.Zoom + c.PanX, wy*c.Zoom + c.PanY
}

// ZoomAt sets the zoom (clamped) keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(zoom, sx, sy float64) {
	zoom = clamp(zoom, MinZoom, MaxZoom)
	if zoom == c.Zoom {
		return
	}
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = zoom
	c.PanX = sx - wx*c.Zoom
	c.PanY = sy - wy*c.Zoom
}

// Wheel applies one wheel notch immediately, anchored at the pointer.
// Positive delta zooms in.
func (c *Camera) Wheel(delta, sx, sy float64) {
	if delta == 0 {
		return
	}
	f := wheelZoomOut
	if delta > 0 {
		f = wheelZoomIn
	}
	c.ZoomAt(c.Zoom*f, sx, sy)
	c.TargetZoom = c.Zoom
}

// Pinch scales the zoom by ratio around the gesture midpoint, immediately.
func (c *Camera) Pinch(ratio, sx, sy float64) {
	if ratio <= 0 {
		return
	}
	c.ZoomAt(c.Zoom*ratio, sx, sy)
	c.TargetZoom = c.Zoom
}

// StepZoom moves the eased target zoom one key step in or out.
func (c *Camera) StepZoom(in bool) {
	if in {
		c.TargetZoom *= keyZoomStep
	} else {
		c.TargetZoom /= keyZoomStep
	}
	c.TargetZoom = clamp(c.TargetZoom, MinZoom, MaxZoom)
}

// Ease moves the zoom toward TargetZoom around the viewport centre and applies held
// pan keys.
func (c *Camera) Ease() {
	var dx, dy float64
	if c.keysHeld[PanUp] {
		dy += keyPanSpeed
	}
	if c.keysHeld[PanDown] {
		dy -= keyPanSpeed
	}
	if c.keysHeld[PanLeft] {
		dx += keyPanSpeed
	}
	if c.keysHeld[PanRight] {
		dx -= keyPanSpeed
	}
	c.PanX += dx
	c.PanY += dy

	diff := c.TargetZoom - c.Zoom
	if math.Abs(diff) < 1e-3 {
		if diff != 0 {
			c.ZoomAt(c.TargetZoom, c.ViewW/2, c.ViewH/2)
		}
		return
	}
	c.ZoomAt(c.Zoom+diff*zoomEasing, c.ViewW/2, c.ViewH/2)
}

// HoldPan records whether a pan key is down.
func (c *Camera) HoldPan(d PanDir, down bool) {
	if d >= 0 && d < panDirCount {
		c.keysHeld[d] = down
	}
}

// BeginPan starts a pointer drag-to-pan at (sx, sy).
func (c *Camera) BeginPan(sx, sy float64) {
	c.panning = true
	c.lastPanX, c.lastPanY = sx, sy
}

// PanTo moves the view with the pointer and returns the movement applied.
func (c *Camera) PanTo(sx, sy float64) (float64, float64) {
	if !c.panning {
		return 0, 0
	}
	dx, dy := sx-c.lastPanX, sy-c.lastPanY
	c.PanX += dx
	c.PanY += dy
	c.lastPanX, c.lastPanY = sx, sy
	return dx, dy
}

// EndPan stops a pointer pan.
func (c *Camera) EndPan() {
	c.panning = false
}

// Panning reports whether a pointer pan is active.
func (c *Camera) Panning() bool {
	return c.panning
}

// CentreOn snaps zoom to 1 and places world point (wx, wy) at the viewport centre.
func (c *Camera) CentreOn(wx, wy float64) {
	c.Zoom = 1
	c.TargetZoom = 1
	c.PanX = c.ViewW/2 - wx
	c.PanY = c.ViewH/2 - wy
}
