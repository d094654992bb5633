package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Garsondee/fincraft/internal/sim"
)

func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	url := os.Getenv("FINCRAFT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FINCRAFT_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p, err := OpenPostgres(ctx, url, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestPostgres_PlacementUpsert(t *testing.T) {
	p := openTestPostgres(t)
	ctx := context.Background()
	id := "test-" + time.Now().Format("150405.000000")
	if _, ok, err := p.LoadPlacement(ctx, id); ok || err != nil {
		t.Fatalf("expected missing placement, got ok=%v err=%v", ok, err)
	}
	for _, x := range []int{3, 7} {
		if err := p.SavePlacement(ctx, sim.Placement{AccountID: id, GridX: x, GridY: 1}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	got, ok, err := p.LoadPlacement(ctx, id)
	if err != nil || !ok || got.GridX != 7 {
		t.Fatalf("expected upserted placement, got %+v ok=%v err=%v", got, ok, err)
	}
}

func TestPostgres_TransactionsKeepOrder(t *testing.T) {
	p := openTestPostgres(t)
	ctx := context.Background()
	txs := []sim.Transaction{{Name: "first", Amount: "1"}, {Name: "second", Amount: "2"}}
	if err := p.SaveTransactions(ctx, txs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := p.LoadTransactions(ctx)
	if err != nil || len(got) != 2 || got[0].Name != "first" || got[1].Name != "second" {
		t.Fatalf("unexpected pool %+v err=%v", got, err)
	}
}
