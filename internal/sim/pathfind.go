package sim

import "math"

// neighbours is the 8-cell ring, orthogonals first. Ties resolve to the earlier entry.
var neighbours = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// destinationSlack is the Manhattan radius around a unit's final target inside which
// static obstacles stop blocking, so destinations are always reachable.
const destinationSlack = 2

// headingSmoothing is the per-tick exponential easing toward the lookahead heading.
const headingSmoothing = 0.08

// Obstacles is the static blocking set: hub, income source and building footprints.
type Obstacles struct {
	Landmarks []*Landmark
	Buildings []*Building
}

// Blocked reports whether c may not be entered by a unit heading to target.
func (o Obstacles) Blocked(c, target Cell) bool {
	if c.Manhattan(target) <= destinationSlack {
		return false
	}
	for _, l := range o.Landmarks {
		if l.Footprint(c) {
			return true
		}
	}
	for _, b := range o.Buildings {
		if b.Footprint(c) {
			return true
		}
	}
	return false
}

// NextStep greedily picks the neighbour of from closest (Euclidean) to to that is not
// blocked. When every neighbour is blocked the closest blocked one is returned so a
// unit never stalls permanently; it may then overlap building art for a few frames.
// When from == to, from is returned.
func NextStep(from, to Cell, blocked func(Cell) bool) Cell {
	if from == to {
		return from
	}
	bestFree, bestAny := from, from
	freeScore, anyScore := math.MaxFloat64, math.MaxFloat64
	foundFree := false
	for _, d := range neighbours {
		n := from.Add(d[0], d[1])
		dx := float64(n.X - to.X)
		dy := float64(n.Y - to.Y)
		score := math.Sqrt(dx*dx + dy*dy)
		if score < anyScore {
			anyScore = score
			bestAny = n
		}
		if blocked != nil && blocked(n) {
			continue
		}
		if score < freeScore {
			freeScore = score
			bestFree = n
			foundFree = true
		}
	}
	if foundFree {
		return bestFree
	}
	return bestAny
}

// Lookahead returns the cell two greedy steps ahead of from.
func Lookahead(from, to Cell, blocked func(Cell) bool) Cell {
	first := NextStep(from, to, blocked)
	return NextStep(first, to, blocked)
}
