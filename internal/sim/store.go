package sim

import (
	"context"
	"time"
)

// Placement is the persisted position and orientation of one account's building.
type Placement struct {
	AccountID   string `json:"accountId"`
	GridX       int    `json:"gridX"`
	GridY       int    `json:"gridY"`
	FacingRight bool   `json:"facingRight"`
}

// PlacementStore persists building placements keyed by account id.
// LoadPlacement returns ok=false when nothing is saved for the account.
type PlacementStore interface {
	LoadPlacement(ctx context.Context, accountID string) (Placement, bool, error)
	SavePlacement(ctx context.Context, p Placement) error
}

// TransactionStore persists the imported transaction pool.
type TransactionStore interface {
	LoadTransactions(ctx context.Context) ([]Transaction, error)
	SaveTransactions(ctx context.Context, txs []Transaction) error
}

const defaultStoreTimeout = 250 * time.Millisecond

// loadPlacement reads a saved placement, treating every failure as "no saved data".
func (s *State) loadPlacement(accountID string) (Placement, bool) {
	if s.placements == nil {
		return Placement{}, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	p, ok, err := s.placements.LoadPlacement(ctx, accountID)
	if err != nil {
		s.logger.Warn("placement load failed", "account", accountID, "error", err)
		s.Log.Add(s.tick, accountID, "store", "load_failed", err.Error(), 0)
		return Placement{}, false
	}
	return p, ok
}

func (s *State) savePlacement(b *Building) {
	if s.placements == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	p := Placement{AccountID: b.AccountID, GridX: b.Cell.X, GridY: b.Cell.Y, FacingRight: b.FacingRight}
	if err := s.placements.SavePlacement(ctx, p); err != nil {
		s.logger.Warn("placement save failed", "account", b.AccountID, "error", err)
		s.Log.Add(s.tick, b.Label(), "store", "save_failed", err.Error(), 0)
		return
	}
	s.Log.Add(s.tick, b.Label(), "store", "saved", cellString(b.Cell), 0)
}

// RestoreTransactions loads the persisted pool, if a store is configured.
func (s *State) RestoreTransactions() {
	if s.txStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	txs, err := s.txStore.LoadTransactions(ctx)
	if err != nil {
		s.logger.Warn("transaction pool load failed", "error", err)
		s.Log.Add(s.tick, "--", "store", "load_failed", err.Error(), 0)
		return
	}
	s.LoadTransactions(txs)
}

// ImportTransactions replaces the pool and persists it.
func (s *State) ImportTransactions(txs []Transaction) {
	s.LoadTransactions(txs)
	if s.txStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
	defer cancel()
	if err := s.txStore.SaveTransactions(ctx, txs); err != nil {
		s.logger.Warn("transaction pool save failed", "error", err)
		s.Log.Add(s.tick, "--", "store", "save_failed", err.Error(), 0)
	}
}
