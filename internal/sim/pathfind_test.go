package sim

import (
	"math/rand"
	"testing"
)

func isNeighbour(a, b Cell) bool {
	dx, dy := absInt(a.X-b.X), absInt(a.Y-b.Y)
	return dx <= 1 && dy <= 1 && (dx+dy) > 0
}

func TestNextStep_AlwaysInRing(t *testing.T) {
	rng := rand.New(rand.NewSource(7)) // #nosec G404 -- test
	for i := 0; i < 5000; i++ {
		from := Cell{rng.Intn(40) - 4, rng.Intn(40) - 4}
		to := Cell{rng.Intn(40) - 4, rng.Intn(40) - 4}
		if from == to {
			continue
		}
		blockedSet := make(map[Cell]bool)
		for j := 0; j < rng.Intn(9); j++ {
			blockedSet[from.Add(rng.Intn(3)-1, rng.Intn(3)-1)] = true
		}
		got := NextStep(from, to, func(c Cell) bool { return blockedSet[c] })
		if got == from {
			t.Fatalf("NextStep(%v,%v) returned the start cell", from, to)
		}
		if !isNeighbour(from, got) {
			t.Fatalf("NextStep(%v,%v) = %v, not in the 8-cell ring", from, to, got)
		}
	}
}

func TestNextStep_SameCell(t *testing.T) {
	c := Cell{3, 4}
	if got := NextStep(c, c, nil); got != c {
		t.Fatalf("expected %v got %v", c, got)
	}
}

func TestNextStep_GreedyDirection(t *testing.T) {
	cases := []struct {
		to   Cell
		want Cell
	}{
		{Cell{5, 0}, Cell{1, 0}},
		{Cell{-5, 0}, Cell{-1, 0}},
		{Cell{0, 5}, Cell{0, 1}},
		{Cell{5, 5}, Cell{1, 1}},
		{Cell{-5, 5}, Cell{-1, 1}},
	}
	for _, c := range cases {
		if got := NextStep(Cell{}, c.to, nil); got != c.want {
			t.Errorf("NextStep to %v = %v, want %v", c.to, got, c.want)
		}
	}
}

func TestNextStep_AvoidsBlocked(t *testing.T) {
	blocked := func(c Cell) bool { return c == Cell{1, 0} }
	got := NextStep(Cell{}, Cell{5, 0}, blocked)
	// (1,1) and (1,-1) tie; the earlier diagonal in the ring wins.
	if got != (Cell{1, 1}) {
		t.Fatalf("expected (1,1) got %v", got)
	}
}

func TestNextStep_AllBlockedFallsBack(t *testing.T) {
	got := NextStep(Cell{}, Cell{5, 0}, func(Cell) bool { return true })
	if got != (Cell{1, 0}) {
		t.Fatalf("expected best blocked neighbour (1,0), got %v", got)
	}
}

func TestLookahead_TwoSteps(t *testing.T) {
	if got := Lookahead(Cell{}, Cell{10, 0}, nil); got != (Cell{2, 0}) {
		t.Fatalf("expected (2,0) got %v", got)
	}
}

func TestObstacles_BlockedExceptNearTarget(t *testing.T) {
	hub := &Landmark{Kind: LandmarkHub, Cell: hubTopLeft, Size: hubSize}
	b := &Building{Cell: Cell{4, 4}}
	obs := Obstacles{Landmarks: []*Landmark{hub}, Buildings: []*Building{b}}

	far := Cell{0, 0}
	if !obs.Blocked(Cell{16, 16}, far) {
		t.Fatal("hub centre should be blocked for a far target")
	}
	if !obs.Blocked(Cell{5, 5}, far) {
		t.Fatal("building footprint should be blocked for a far target")
	}
	if obs.Blocked(Cell{6, 6}, far) {
		t.Fatal("cell outside every footprint should be free")
	}
	if obs.Blocked(Cell{5, 5}, Cell{5, 6}) {
		t.Fatal("footprint within 2 of the target must be enterable")
	}
	if obs.Blocked(Cell{15, 15}, Cell{16, 16}) {
		t.Fatal("hub corner within 2 of the hub centre must be enterable")
	}
}
