package sim

import (
	"context"
	"errors"
	"testing"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, s *State) {
	t.Helper()
	entries := s.Log.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

// memPlacements is an in-memory PlacementStore.
type memPlacements struct {
	saved map[string]Placement
	saves int
	fail  bool
}

func newMemPlacements() *memPlacements {
	return &memPlacements{saved: make(map[string]Placement)}
}

func (m *memPlacements) LoadPlacement(_ context.Context, id string) (Placement, bool, error) {
	if m.fail {
		return Placement{}, false, errors.New("corrupt placement record")
	}
	p, ok := m.saved[id]
	return p, ok, nil
}

func (m *memPlacements) SavePlacement(_ context.Context, p Placement) error {
	if m.fail {
		return errors.New("disk full")
	}
	m.saved[p.AccountID] = p
	m.saves++
	return nil
}

// memTransactions is an in-memory TransactionStore.
type memTransactions struct {
	txs []Transaction
}

func (m *memTransactions) LoadTransactions(context.Context) ([]Transaction, error) {
	return m.txs, nil
}

func (m *memTransactions) SaveTransactions(_ context.Context, txs []Transaction) error {
	m.txs = append([]Transaction(nil), txs...)
	return nil
}

func oneCard(balance, apr float64) Snapshot {
	return Snapshot{CreditCards: []Account{{ID: "visa", Name: "Visa", Balance: balance, APR: apr}}}
}

func countKind(s *State, k UnitKind) int {
	n := 0
	for _, u := range s.Units() {
		if u.Kind == k {
			n++
		}
	}
	return n
}
