package sim

import (
	"fmt"
	"math"
)

const (
	minSpawnTicks  = 30.0
	spawnNumerator = 120000.0
	incomeFactor   = 2.0
	threatAPRScale = 25.0
	frameTicks     = 8
	animFrames     = 4
)

// SpawnInterval is the tick count between balance-driven spawns:
// max(30, 120000/balance) / (speed × multiplier). ok is false when the balance or
// speed is non-positive, in which case nothing ever spawns.
func SpawnInterval(balance, speed float64, view TimeView) (float64, bool) {
	if balance <= 0 || speed <= 0 || math.IsNaN(balance) {
		return 0, false
	}
	return math.Max(minSpawnTicks, spawnNumerator/balance) / (speed * view.Multiplier()), true
}

// ThreatIntensity maps an APR onto [0, 1].
func ThreatIntensity(apr float64) float64 {
	return clamp(apr/threatAPRScale, 0, 1)
}

func unitName(u *Unit) string {
	return fmt.Sprintf("u%d", u.ID)
}

// spawnUnit places a unit at rest on from's point, heading for to.
func (s *State) spawnUnit(kind UnitKind, from, to Endpoint, amount float64) *Unit {
	t := unitTunings[kind]
	s.nextID++
	u := &Unit{
		ID:     s.nextID,
		Kind:   kind,
		Target: to.TargetCell(),
		Speed:  t.minSpeed + s.rng.Float64()*t.speedJitter,
		Amount: amount,
		TTL:    t.ttl,
	}
	u.X, u.Y = from.Point()
	u.TX, u.TY = to.Point()
	s.units = append(s.units, u)
	s.Stats.Spawned[kind]++
	return u
}

// spawnThreat sends an interest threat from a debt building to the hub.
func (s *State) spawnThreat(b *Building) *Unit {
	u := s.spawnUnit(UnitInterestThreat, buildingEnd(b), s.hubEnd(), -b.Balance)
	u.Intensity = ThreatIntensity(b.APR)
	u.Label = b.Name
	s.Log.Add(s.tick, unitName(u), "spawn", "threat",
		fmt.Sprintf("%s → hub apr %.1f", b.Label(), b.APR), u.Intensity)
	return u
}

// spawnCarrier sends an income carrier from an asset building to the hub.
func (s *State) spawnCarrier(b *Building) *Unit {
	u := s.spawnUnit(UnitIncomeCarrier, buildingEnd(b), s.hubEnd(), b.Balance)
	u.Label = b.Name
	s.Log.Add(s.tick, unitName(u), "spawn", "carrier", b.Label()+" → hub", b.Balance)
	return u
}

// balanceSpawns advances every building's spawn counters.
func (s *State) balanceSpawns() {
	for _, b := range s.buildings {
		switch {
		case b.IsDebt:
			b.SpawnTicks++
			iv, ok := SpawnInterval(b.Balance, s.Speed, s.TimeView)
			if ok && float64(b.SpawnTicks) >= iv {
				b.SpawnTicks = 0
				s.spawnThreat(b)
			}
		case b.Category.IsAsset():
			b.IncomeTicks++
			iv, ok := SpawnInterval(b.Balance, s.Speed, s.TimeView)
			if ok && float64(b.IncomeTicks) >= iv*incomeFactor {
				b.IncomeTicks = 0
				s.spawnCarrier(b)
			}
		}
	}
}

// spawnForEvent turns a popped queue event into an attacker or responder.
func (s *State) spawnForEvent(ev Event) {
	label := fmt.Sprintf("$%.0f", ev.Amount)
	if ev.Count > 1 {
		label = fmt.Sprintf("$%.0f ×%d", ev.Amount, ev.Count)
	}
	switch ev.Type {
	case EventExpense:
		to := s.hubEnd()
		if b := s.eventTarget(ev); b != nil {
			to = buildingEnd(b)
		} else if b := s.preferredDepository(); b != nil {
			to = buildingEnd(b)
		}
		u := s.spawnUnit(UnitExpenseAttacker, s.randomEdge(), to, -ev.Amount)
		u.Label = label
		s.Log.Add(s.tick, unitName(u), "spawn", "attacker",
			fmt.Sprintf("%s → %s count %d", label, to.Name(), ev.Count), ev.Amount)

	case EventDebtPayment:
		from, to := s.hubEnd(), Endpoint{}
		if b := s.eventTarget(ev); b != nil && b.IsDebt {
			to = buildingEnd(b)
		} else if b := s.firstDebt(); b != nil {
			to = buildingEnd(b)
		} else {
			from, to = s.mineEnd(), s.hubEnd()
		}
		u := s.spawnUnit(UnitPaymentResponder, from, to, ev.Amount)
		u.Label = label
		s.Log.Add(s.tick, unitName(u), "spawn", "responder",
			fmt.Sprintf("%s %s → %s count %d", label, from.Name(), to.Name(), ev.Count), ev.Amount)

	default:
		s.Log.Add(s.tick, "--", "queue", "unknown_type", string(ev.Type), ev.Amount)
	}
}

func (s *State) eventTarget(ev Event) *Building {
	if ev.TargetID == "" {
		return nil
	}
	if ev.Category != "" {
		if b, ok := s.Building(ev.Category, ev.TargetID); ok {
			return b
		}
	}
	b, _ := s.BuildingByAccount(ev.TargetID)
	return b
}

func (s *State) firstDebt() *Building {
	for _, b := range s.buildings {
		if b.IsDebt {
			return b
		}
	}
	return nil
}

// moveUnits steps every unit and retires arrivals and timeouts.
func (s *State) moveUnits() {
	obs := s.obstacles()
	kept := s.units[:0]
	for _, u := range s.units {
		if s.stepUnit(u, obs) {
			kept = append(kept, u)
		}
	}
	for i := len(kept); i < len(s.units); i++ {
		s.units[i] = nil
	}
	s.units = kept
}

// stepUnit advances one unit and reports whether it is still alive.
func (s *State) stepUnit(u *Unit, obs Obstacles) bool {
	t := u.tuning()

	u.wanderAge++
	if u.wanderAge >= t.wanderPeriod {
		u.wanderAge = 0
		u.WanderX = (s.rng.Float64() - 0.5) * t.wanderX
		u.WanderY = (s.rng.Float64() - 0.5) * t.wanderY
	}

	gx, gy := u.TX+u.WanderX, u.TY+u.WanderY
	if math.Hypot(gx-u.X, gy-u.Y) < t.arrivalRadius {
		s.retire(u, "arrive")
		return false
	}
	u.TTL--
	if u.TTL <= 0 {
		s.retire(u, "expire")
		return false
	}

	wx, wy := gx, gy
	cur := CellContaining(u.X, u.Y)
	if cur.Manhattan(u.Target) > destinationSlack {
		blocked := func(c Cell) bool { return obs.Blocked(c, u.Target) }
		ahead := Lookahead(cur, u.Target, blocked)
		wx, wy = ToScreen(float64(ahead.X)+0.5, float64(ahead.Y)+0.5)
	}
	dx, dy := wx-u.X, wy-u.Y
	if d := math.Hypot(dx, dy); d > 0 {
		dx, dy = dx/d, dy/d
	}
	u.HeadX += (dx - u.HeadX) * headingSmoothing
	u.HeadY += (dy - u.HeadY) * headingSmoothing

	step := u.Speed * s.Speed
	u.X += u.HeadX * step
	u.Y += u.HeadY * step

	u.frameAge++
	if u.frameAge >= frameTicks {
		u.frameAge = 0
		u.Frame = (u.Frame + 1) % animFrames
	}
	s.Log.AddVerbose(s.tick, unitName(u), "move", "step",
		fmt.Sprintf("(%.0f,%.0f) cell %s", u.X, u.Y, cellString(cur)), step)
	return true
}

// retire removes a unit's presence and leaves a feedback effect where it stood.
func (s *State) retire(u *Unit, why string) {
	positive := u.tuning().positive
	if u.Kind == UnitTransactionNPC {
		positive = u.Amount >= 0
	}
	s.nextID++
	e := &Effect{
		ID:       s.nextID,
		X:        u.X,
		Y:        u.Y,
		Amount:   u.Amount,
		Positive: positive,
		Alpha:    1,
	}
	s.effects = append(s.effects, e)
	s.fresh = append(s.fresh, e)
	if why == "arrive" {
		s.Stats.Arrived[u.Kind]++
	} else {
		s.Stats.Expired[u.Kind]++
	}
	s.Log.Add(s.tick, unitName(u), why, u.Kind.String(), u.Label, u.Amount)
}

// ageEffects floats and fades feedback effects, dropping spent ones.
func (s *State) ageEffects() {
	kept := s.effects[:0]
	for _, e := range s.effects {
		e.Age++
		e.Y -= effectRise
		e.Alpha -= effectFade
		if e.Alpha <= 0 || e.Age >= effectMaxTicks {
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(s.effects); i++ {
		s.effects[i] = nil
	}
	s.effects = kept
}

// Units returns the live units.
func (s *State) Units() []*Unit {
	return s.units
}

// Effects returns the live feedback effects.
func (s *State) Effects() []*Effect {
	return s.effects
}

// FreshEffects returns the effects spawned during the most recent tick.
func (s *State) FreshEffects() []*Effect {
	return s.fresh
}
