package sim

import "math"

// Isometric tile dimensions in world (screen-space, unzoomed) units.
const (
	TileW = 64
	TileH = 32
)

// Map dimensions in grid cells. The hub sits on the centre cell.
const (
	MapW = 32
	MapH = 32
)

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// Add returns c offset by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Manhattan returns the L1 distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return absInt(c.X-o.X) + absInt(c.Y-o.Y)
}

// ToScreen projects a grid coordinate onto the isometric plane.
// The result is the top vertex of the tile's diamond.
func ToScreen(gx, gy float64) (float64, float64) {
	return (gx - gy) * (TileW / 2), (gx + gy) * (TileH / 2)
}

// ToGrid is the exact inverse of ToScreen.
func ToGrid(x, y float64) (float64, float64) {
	u := x / (TileW / 2) // gx - gy
	v := y / (TileH / 2) // gx + gy
	return (u + v) / 2, (v - u) / 2
}

// CellScreen returns the screen position of a cell's top vertex.
func CellScreen(c Cell) (float64, float64) {
	return ToScreen(float64(c.X), float64(c.Y))
}

// CellAt returns the grid cell nearest to a screen-space point.
func CellAt(x, y float64) Cell {
	gx, gy := ToGrid(x, y)
	return Cell{X: int(math.Round(gx)), Y: int(math.Round(gy))}
}

// CellContaining returns the cell whose diamond contains a screen-space point.
func CellContaining(x, y float64) Cell {
	gx, gy := ToGrid(x, y)
	return Cell{X: int(math.Floor(gx)), Y: int(math.Floor(gy))}
}

// MapCentre is the hub's cell.
func MapCentre() Cell {
	return Cell{X: MapW / 2, Y: MapH / 2}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
