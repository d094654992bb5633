package sim

import (
	"sort"
	"time"
)

// RenderKind tags a render list entry.
type RenderKind int

const (
	RenderLandmark RenderKind = iota
	RenderBuilding
	RenderUnit
	RenderEffect
)

// RenderItem is one drawable entity. Exactly one pointer field is set.
type RenderItem struct {
	Kind     RenderKind
	Depth    float64 // screen-space y of the ground contact
	Landmark *Landmark
	Building *Building
	Unit     *Unit
	Effect   *Effect
}

// Tick advances the simulation one frame:
//
//  0. drain external commands and confirm deferred pans
//  1. keyboard pan and zoom easing
//  2. tooltip easing
//  3. one event-queue pop, spawning an attacker or responder
//  4. balance-driven threats and carriers
//  5. unit movement, retirement, animation and effect ageing
//  6. transaction replay and day-boundary interest waves
//  7. depth sort of the render list
func (s *State) Tick() {
	s.tick++
	s.clock = time.Duration(s.tick) * time.Second / TicksPerSecond
	s.fresh = s.fresh[:0]

	s.drainInbox()
	s.confirmPendingPan()

	s.Camera.Ease()

	s.refreshTooltip()
	s.Tooltip.ease()

	if ev, ok := s.Queue.PopIfReady(s.clock); ok {
		s.Stats.Popped++
		s.spawnForEvent(ev)
	}

	s.balanceSpawns()

	s.moveUnits()
	s.ageEffects()

	s.replayTransactions()

	s.buildRenderList()
}

// RunTicks advances the simulation n ticks.
func (s *State) RunTicks(n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

// RunUntil advances up to maxTicks, stopping early once predicate holds. It returns
// the tick at which the predicate was satisfied, or -1.
func (s *State) RunUntil(predicate func(*State) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		s.Tick()
		if predicate(s) {
			return s.tick
		}
	}
	return -1
}

func (s *State) buildRenderList() {
	r := s.render[:0]
	for _, l := range []*Landmark{s.Hub, s.Mine} {
		_, y := l.Anchor()
		r = append(r, RenderItem{Kind: RenderLandmark, Depth: y, Landmark: l})
	}
	for _, b := range s.buildings {
		_, y := b.Anchor()
		r = append(r, RenderItem{Kind: RenderBuilding, Depth: y, Building: b})
	}
	for _, u := range s.units {
		r = append(r, RenderItem{Kind: RenderUnit, Depth: u.Y, Unit: u})
	}
	for _, e := range s.effects {
		r = append(r, RenderItem{Kind: RenderEffect, Depth: e.Y, Effect: e})
	}
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].Depth < r[j].Depth
	})
	s.render = r
}

// RenderList returns the entities in far-to-near draw order as of the last tick.
func (s *State) RenderList() []RenderItem {
	return s.render
}
