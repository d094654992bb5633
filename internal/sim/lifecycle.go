package sim

import (
	"fmt"
	"math"
)

// Fixed landmark placement. The hub's 3×3 footprint is centred on the map centre.
var (
	hubTopLeft  = Cell{X: MapW/2 - 1, Y: MapH/2 - 1}
	mineTopLeft = Cell{X: 3, Y: 17}
)

const (
	hubSize  = 3
	mineSize = 2

	// protectedRadius is the Chebyshev radius around the hub centre that buildings
	// may not be dropped into.
	protectedRadius = 5

	zoneColumns = 3
	zoneSpacing = 2
)

// zoneOrigins are category zone corners relative to the map centre.
var zoneOrigins = map[Category]Cell{
	CategoryDepository:  {X: -8, Y: -4},
	CategoryInvestments: {X: -4, Y: -8},
	CategoryCreditCards: {X: 8, Y: -4},
	CategoryLoans:       {X: 4, Y: 8},
	CategoryOthers:      {X: -8, Y: 8},
}

// maxLevel caps LevelFor so huge balances cannot overflow int.
const maxLevel = math.MaxInt32

// LevelFor derives a building level from a balance: floor(balance/1000), never
// negative and never above maxLevel.
func LevelFor(balance float64) int {
	if balance <= 0 || math.IsNaN(balance) {
		return 0
	}
	q := math.Floor(balance / 1000)
	if q >= maxLevel {
		return maxLevel
	}
	return int(q)
}

// ZoneCell returns the default top-left cell for the idx-th account of a category.
// Accounts tile row-major, three per row, two cells apart.
func ZoneCell(c Category, idx int) Cell {
	o, ok := zoneOrigins[c]
	if !ok {
		o = zoneOrigins[CategoryOthers]
	}
	centre := MapCentre()
	return centre.Add(o.X+(idx%zoneColumns)*zoneSpacing, o.Y+(idx/zoneColumns)*zoneSpacing)
}

// Protected reports whether c lies within the hub's protected zone.
func Protected(c Cell) bool {
	centre := MapCentre()
	return absInt(c.X-centre.X) <= protectedRadius && absInt(c.Y-centre.Y) <= protectedRadius
}

// footprintProtected reports whether any cell of a 2×2 footprint at topLeft is protected.
func footprintProtected(topLeft Cell) bool {
	for dx := 0; dx < buildingSize; dx++ {
		for dy := 0; dy < buildingSize; dy++ {
			if Protected(topLeft.Add(dx, dy)) {
				return true
			}
		}
	}
	return false
}

type buildingKey struct {
	category Category
	id       string
}

// SyncAccounts reconciles buildings with an accounts snapshot: missing accounts are
// destroyed, new ones created at their saved or zone-default position, and existing
// ones updated in place. A level change bumps the building's visual revision.
func (s *State) SyncAccounts(snap Snapshot) {
	present := make(map[buildingKey]bool)
	for _, c := range Categories {
		for _, a := range snap.List(c) {
			present[buildingKey{c, a.ID}] = true
		}
	}

	kept := s.buildings[:0]
	for _, b := range s.buildings {
		if present[buildingKey{b.Category, b.AccountID}] {
			kept = append(kept, b)
			continue
		}
		s.destroyBuilding(b)
	}
	for i := len(kept); i < len(s.buildings); i++ {
		s.buildings[i] = nil
	}
	s.buildings = kept

	for _, c := range Categories {
		for idx, a := range snap.List(c) {
			k := buildingKey{c, a.ID}
			if b, ok := s.byAccount[k]; ok {
				s.updateBuilding(b, a)
				continue
			}
			s.createBuilding(c, idx, a)
		}
	}
}

func (s *State) createBuilding(c Category, idx int, a Account) {
	b := &Building{
		AccountID: a.ID,
		Category:  c,
		Name:      a.Name,
		Balance:   a.Balance,
		APR:       a.APR,
		IsDebt:    c.IsDebt(),
		Cell:      ZoneCell(c, idx),
		Level:     LevelFor(a.Balance),
	}
	if p, ok := s.loadPlacement(a.ID); ok {
		b.Cell = Cell{X: p.GridX, Y: p.GridY}
		b.FacingRight = p.FacingRight
	}
	s.buildings = append(s.buildings, b)
	s.byAccount[buildingKey{c, a.ID}] = b
	s.Log.Add(s.tick, b.Label(), "building", "created",
		fmt.Sprintf("%s at %s level %d", a.Name, cellString(b.Cell), b.Level), a.Balance)
}

func (s *State) updateBuilding(b *Building, a Account) {
	b.Name = a.Name
	b.Balance = a.Balance
	b.APR = a.APR
	if lv := LevelFor(a.Balance); lv != b.Level {
		s.Log.Add(s.tick, b.Label(), "level", "changed",
			fmt.Sprintf("%d → %d", b.Level, lv), float64(lv))
		b.Level = lv
		b.Revision++
	}
}

func (s *State) destroyBuilding(b *Building) {
	delete(s.byAccount, buildingKey{b.Category, b.AccountID})
	if s.UI.Selected.Building == b {
		s.deselect()
	}
	if s.UI.Hover.Building == b {
		s.UI.Hover = Target{}
	}
	if s.UI.drag != nil && s.UI.drag.building == b {
		s.UI.drag = nil
		s.applyDeferredResize()
	}
	s.Log.Add(s.tick, b.Label(), "building", "destroyed", b.Name, b.Balance)
}

// SetNetWorth drives the hub level with the same /1000 rule as buildings.
func (s *State) SetNetWorth(nw float64) {
	s.NetWorth = nw
	if lv := LevelFor(nw); lv != s.Hub.Level {
		s.Log.Add(s.tick, "hub", "level", "changed",
			fmt.Sprintf("%d → %d", s.Hub.Level, lv), float64(lv))
		s.Hub.Level = lv
		s.Hub.Revision++
	}
}

// Buildings returns the buildings in sync order.
func (s *State) Buildings() []*Building {
	return s.buildings
}

// Building looks up a building by category and account id.
func (s *State) Building(c Category, accountID string) (*Building, bool) {
	b, ok := s.byAccount[buildingKey{c, accountID}]
	return b, ok
}

// BuildingByAccount looks up a building by account id alone, in sync order.
func (s *State) BuildingByAccount(accountID string) (*Building, bool) {
	for _, b := range s.buildings {
		if b.AccountID == accountID {
			return b, true
		}
	}
	return nil, false
}

func (s *State) obstacles() Obstacles {
	return Obstacles{Landmarks: []*Landmark{s.Hub, s.Mine}, Buildings: s.buildings}
}

func cellString(c Cell) string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
