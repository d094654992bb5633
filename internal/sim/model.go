package sim

import (
	"fmt"
	"math"
)

// EntityID indexes units and effects in the arena.
type EntityID int

// Building is the settlement structure for one account.
type Building struct {
	AccountID   string
	Category    Category
	Name        string
	Balance     float64
	APR         float64
	IsDebt      bool
	Cell        Cell // top-left of the 2×2 footprint
	Level       int
	Revision    int // bumped whenever the level-dependent visual must be rebuilt
	FacingRight bool
	SpawnTicks  int // ticks since the last interest threat
	IncomeTicks int // ticks since the last income carrier

	// Drag preview position in world space, valid while Dragging.
	DragX, DragY float64
	Dragging     bool
}

// Anchor is the world point at the centre of the building's footprint, where the
// art's ground contact sits.
func (b *Building) Anchor() (float64, float64) {
	if b.Dragging {
		return b.DragX, b.DragY
	}
	return footprintAnchor(b.Cell, buildingSize)
}

// Footprint reports whether c lies inside the building's 2×2 footprint.
func (b *Building) Footprint(c Cell) bool {
	return inSquare(c, b.Cell, buildingSize)
}

// Label is the short name used in logs.
func (b *Building) Label() string {
	return fmt.Sprintf("%s/%s", b.Category, b.AccountID)
}

// LandmarkKind identifies the singleton buildings.
type LandmarkKind int

const (
	LandmarkHub LandmarkKind = iota
	LandmarkIncomeSource
)

func (k LandmarkKind) String() string {
	if k == LandmarkHub {
		return "hub"
	}
	return "mine"
}

// Landmark is a fixed singleton building: the hub ("town hall") or the income source ("mine").
type Landmark struct {
	Kind     LandmarkKind
	Cell     Cell // top-left of the footprint
	Size     int
	Level    int
	Revision int
}

// Anchor is the centre of the landmark footprint in world space.
func (l *Landmark) Anchor() (float64, float64) {
	return footprintAnchor(l.Cell, l.Size)
}

// Footprint reports whether c lies inside the landmark.
func (l *Landmark) Footprint(c Cell) bool {
	return inSquare(c, l.Cell, l.Size)
}

// Centre returns the cell nearest the footprint centre.
func (l *Landmark) Centre() Cell {
	return l.Cell.Add(l.Size/2, l.Size/2)
}

// UnitKind tags the mobile unit variants.
type UnitKind int

const (
	UnitIncomeCarrier UnitKind = iota
	UnitInterestThreat
	UnitExpenseAttacker
	UnitPaymentResponder
	UnitTransactionNPC
	unitKindCount
)

var unitKindNames = [unitKindCount]string{
	UnitIncomeCarrier:    "carrier",
	UnitInterestThreat:   "threat",
	UnitExpenseAttacker:  "attacker",
	UnitPaymentResponder: "responder",
	UnitTransactionNPC:   "npc",
}

func (k UnitKind) String() string {
	if k < 0 || k >= unitKindCount {
		return "unknown"
	}
	return unitKindNames[k]
}

// unitTuning holds the per-kind movement constants.
type unitTuning struct {
	arrivalRadius float64
	wanderPeriod  int
	wanderX       float64
	wanderY       float64
	minSpeed      float64
	speedJitter   float64
	ttl           int
	positive      bool // sign of the feedback effect on arrival
}

var unitTunings = [unitKindCount]unitTuning{
	UnitIncomeCarrier:    {arrivalRadius: 30, wanderPeriod: 30, wanderX: 20, wanderY: 10, minSpeed: 1, speedJitter: 0.5, ttl: 1800, positive: true},
	UnitInterestThreat:   {arrivalRadius: 35, wanderPeriod: 40, wanderX: 30, wanderY: 15, minSpeed: 0.5, speedJitter: 0.3, ttl: 2400, positive: false},
	UnitExpenseAttacker:  {arrivalRadius: 32, wanderPeriod: 40, wanderX: 24, wanderY: 12, minSpeed: 0.9, speedJitter: 0.4, ttl: 2400, positive: false},
	UnitPaymentResponder: {arrivalRadius: 30, wanderPeriod: 30, wanderX: 16, wanderY: 8, minSpeed: 1.2, speedJitter: 0.4, ttl: 1800, positive: true},
	UnitTransactionNPC:   {arrivalRadius: 30, wanderPeriod: 30, wanderX: 20, wanderY: 10, minSpeed: 0.9, speedJitter: 0.5, ttl: 2400, positive: true},
}

// Unit is a transient mobile entity.
type Unit struct {
	ID     EntityID
	Kind   UnitKind
	X, Y   float64 // world position
	Target Cell    // final destination cell
	TX, TY float64 // world point the unit homes on once near the target

	Speed     float64
	HeadX     float64 // smoothed heading, starts at rest
	HeadY     float64
	WanderX   float64
	WanderY   float64
	wanderAge int

	Amount    float64 // signed currency magnitude
	Intensity float64 // 0..1, drives tint and size
	TTL       int
	Frame     int
	frameAge  int

	Label string // short caption (transaction payee, account name)
	Class TxClass
}

// tuning returns the unit's kind constants.
func (u *Unit) tuning() unitTuning {
	return unitTunings[u.Kind]
}

// ArrivalRadius is the distance at which the unit is considered arrived.
func (u *Unit) ArrivalRadius() float64 {
	return u.tuning().arrivalRadius
}

// Scale maps the amount magnitude onto a sprite scale in [0.8, 1.8].
func (u *Unit) Scale() float64 {
	m := math.Abs(u.Amount)
	if m <= 0 {
		return 1
	}
	s := 0.8 + math.Log10(1+m)/4
	return clamp(s, 0.8, 1.8)
}

// Effect is a short-lived floating feedback marker spawned when a unit retires.
type Effect struct {
	ID       EntityID
	X, Y     float64
	Amount   float64
	Positive bool
	Alpha    float64
	Age      int
}

const (
	effectRise     = 0.8
	effectFade     = 0.025
	effectMaxTicks = 40
)

// Text returns the caption drawn for the effect.
func (e *Effect) Text() string {
	if e.Positive {
		return "+$"
	}
	return "-$"
}

const buildingSize = 2

func footprintAnchor(topLeft Cell, size int) (float64, float64) {
	half := float64(size) / 2
	return ToScreen(float64(topLeft.X)+half, float64(topLeft.Y)+half)
}

func inSquare(c, topLeft Cell, size int) bool {
	return c.X >= topLeft.X && c.X < topLeft.X+size &&
		c.Y >= topLeft.Y && c.Y < topLeft.Y+size
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
