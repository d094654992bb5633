package game

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Garsondee/fincraft/internal/sim"
)

// keyBindings maps physical keys onto the simulation's logical keys.
var keyBindings = map[ebiten.Key]sim.Key{
	ebiten.KeyArrowUp:        sim.KeyPanUp,
	ebiten.KeyW:              sim.KeyPanUp,
	ebiten.KeyArrowDown:      sim.KeyPanDown,
	ebiten.KeyS:              sim.KeyPanDown,
	ebiten.KeyArrowLeft:      sim.KeyPanLeft,
	ebiten.KeyA:              sim.KeyPanLeft,
	ebiten.KeyArrowRight:     sim.KeyPanRight,
	ebiten.KeyD:              sim.KeyPanRight,
	ebiten.KeyEqual:          sim.KeyZoomIn,
	ebiten.KeyNumpadAdd:      sim.KeyZoomIn,
	ebiten.KeyMinus:          sim.KeyZoomOut,
	ebiten.KeyNumpadSubtract: sim.KeyZoomOut,
	ebiten.Key0:              sim.KeyRecentre,
	ebiten.KeyNumpad0:        sim.KeyRecentre,
	ebiten.KeyE:              sim.KeyToggleBuild,
	ebiten.KeyEscape:         sim.KeyEscape,
	ebiten.KeyR:              sim.KeyFlip,
}

// touchPoint is one active touch in viewport coordinates.
type touchPoint struct {
	id   ebiten.TouchID
	x, y float64
}

// deviceFrame is everything read from the devices in one Update.
type deviceFrame struct {
	cursorX, cursorY float64
	leftPressed      bool
	wheelY           float64
	touches          []touchPoint
	keysDown         []ebiten.Key
	keysUp           []ebiten.Key
}

// inputTranslator turns successive device frames into explicit sim inputs.
// It remembers just enough to report edges: the last pointer position, whether
// the pointer was down, and the previous pinch span.
type inputTranslator struct {
	pointerDown bool
	lastX       float64
	lastY       float64
	havePointer bool
	pinchSpan   float64

	keysBuf  []ebiten.Key
	touchIDs []ebiten.TouchID
}

// poll reads the current device state.
func (t *inputTranslator) poll() deviceFrame {
	cx, cy := ebiten.CursorPosition()
	_, wy := ebiten.Wheel()
	f := deviceFrame{
		cursorX:     float64(cx),
		cursorY:     float64(cy),
		leftPressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		wheelY:      wy,
	}
	t.touchIDs = ebiten.AppendTouchIDs(t.touchIDs[:0])
	for _, id := range t.touchIDs {
		x, y := ebiten.TouchPosition(id)
		f.touches = append(f.touches, touchPoint{id: id, x: float64(x), y: float64(y)})
	}
	t.keysBuf = inpututil.AppendJustPressedKeys(t.keysBuf[:0])
	f.keysDown = append(f.keysDown, t.keysBuf...)
	t.keysBuf = inpututil.AppendJustReleasedKeys(t.keysBuf[:0])
	f.keysUp = append(f.keysUp, t.keysBuf...)
	return f
}

// translate converts one frame into inputs, in the order the simulation
// should see them: keys, wheel, pinch, then the pointer.
func (t *inputTranslator) translate(f deviceFrame) []sim.Input {
	var out []sim.Input
	for _, k := range f.keysDown {
		if lk, ok := keyBindings[k]; ok {
			out = append(out, sim.Input{Kind: sim.InputKeyDown, Key: lk})
		}
	}
	for _, k := range f.keysUp {
		if lk, ok := keyBindings[k]; ok {
			out = append(out, sim.Input{Kind: sim.InputKeyUp, Key: lk})
		}
	}
	if f.wheelY != 0 {
		out = append(out, sim.Input{Kind: sim.InputWheel, X: f.cursorX, Y: f.cursorY, Delta: f.wheelY})
	}

	// Two fingers pinch; one finger behaves like the mouse.
	px, py, pressed := f.cursorX, f.cursorY, f.leftPressed
	switch len(f.touches) {
	case 0:
		t.pinchSpan = 0
	case 1:
		t.pinchSpan = 0
		px, py, pressed = f.touches[0].x, f.touches[0].y, true
	default:
		a, b := f.touches[0], f.touches[1]
		span := math.Hypot(a.x-b.x, a.y-b.y)
		cx, cy := (a.x+b.x)/2, (a.y+b.y)/2
		if t.pinchSpan > 0 && span > 0 {
			out = append(out, sim.Input{Kind: sim.InputPinch, X: cx, Y: cy, Delta: span / t.pinchSpan})
		}
		t.pinchSpan = span
		// A pinch never drags or pans.
		if t.pointerDown {
			out = append(out, sim.Input{Kind: sim.InputPointerUp, X: t.lastX, Y: t.lastY})
			t.pointerDown = false
		}
		return out
	}

	moved := !t.havePointer || px != t.lastX || py != t.lastY
	switch {
	case pressed && !t.pointerDown:
		if moved {
			out = append(out, sim.Input{Kind: sim.InputPointerMove, X: px, Y: py})
		}
		out = append(out, sim.Input{Kind: sim.InputPointerDown, X: px, Y: py})
	case !pressed && t.pointerDown:
		if moved {
			out = append(out, sim.Input{Kind: sim.InputPointerMove, X: px, Y: py})
		}
		out = append(out, sim.Input{Kind: sim.InputPointerUp, X: px, Y: py})
	case moved:
		out = append(out, sim.Input{Kind: sim.InputPointerMove, X: px, Y: py})
	}
	t.pointerDown = pressed
	t.lastX, t.lastY = px, py
	t.havePointer = true
	return out
}

// justPressed reports whether k went down this frame.
func (f deviceFrame) justPressed(k ebiten.Key) bool {
	for _, d := range f.keysDown {
		if d == k {
			return true
		}
	}
	return false
}
