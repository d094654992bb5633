package sim

import (
	"fmt"
	"time"
)

// Replay pacing: pool/60 spawns per second, so a 30-row pool spawns every two seconds.
const (
	replayPoolDivisor = 60.0
	replayMinRate     = 0.3
	replayMaxRate     = 2.0
)

type replayState struct {
	next    int
	accum   float64
	lastDay time.Time
	haveDay bool
}

// ReplayRate is the transaction spawn rate in spawns per second for a pool size.
func ReplayRate(poolSize int, speed float64) float64 {
	if poolSize <= 0 || speed <= 0 {
		return 0
	}
	return clamp(float64(poolSize)/replayPoolDivisor, replayMinRate, replayMaxRate) * speed
}

// replayTransactions advances the replay accumulator by one tick and spawns every
// transaction that came due.
func (s *State) replayTransactions() {
	rate := ReplayRate(len(s.pool), s.Speed)
	if rate == 0 {
		return
	}
	s.replay.accum += rate / TicksPerSecond
	for s.replay.accum >= 1 {
		s.replay.accum--
		s.spawnNextTransaction()
	}
}

func (s *State) spawnNextTransaction() {
	if s.replay.next >= len(s.pool) {
		s.replay.next = 0
		s.replay.haveDay = false
		s.Log.Add(s.tick, "--", "replay", "wrap", "", float64(len(s.pool)))
	}
	p := s.pool[s.replay.next]
	s.replay.next++

	day := p.Day()
	if s.replay.haveDay && day.After(s.replay.lastDay) {
		s.interestWave(day)
	}
	s.replay.lastDay = day
	s.replay.haveDay = true

	r := s.RouteTransaction(p)
	amt := p.Amount.Neg().InexactFloat64()
	if p.Class == TxTransfer {
		amt = p.Amount.Abs().InexactFloat64()
	}
	u := s.spawnUnit(UnitTransactionNPC, r.From, r.To, amt)
	u.Class = p.Class
	u.Label = p.Tx.Name
	s.Log.Add(s.tick, unitName(u), "replay", p.Class.String(),
		fmt.Sprintf("%s %s %s → %s", p.Tx.Name, p.Amount.StringFixed(2), r.From.Name(), r.To.Name()), amt)
}

// interestWave spawns one interest threat per indebted building.
func (s *State) interestWave(day time.Time) {
	n := 0
	for _, b := range s.buildings {
		if b.IsDebt && b.Balance > 0 {
			s.spawnThreat(b)
			n++
		}
	}
	s.Log.Add(s.tick, "--", "replay", "day_boundary", day.Format("2006-01-02"), float64(n))
}
