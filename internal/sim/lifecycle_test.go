package sim

import (
	"math"
	"testing"
)

func TestLevelFor_Values(t *testing.T) {
	cases := []struct {
		balance float64
		want    int
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{2500, 2},
		{-50, 0},
		{1e22, maxLevel},
		{1e300, maxLevel},
		{math.Inf(1), maxLevel},
	}
	for _, c := range cases {
		if got := LevelFor(c.balance); got != c.want {
			t.Errorf("LevelFor(%v) = %d, want %d", c.balance, got, c.want)
		}
	}
}

func TestZoneCell_RowMajor(t *testing.T) {
	cases := []struct {
		c    Category
		idx  int
		want Cell
	}{
		{CategoryDepository, 0, Cell{8, 12}},
		{CategoryDepository, 1, Cell{10, 12}},
		{CategoryDepository, 2, Cell{12, 12}},
		{CategoryDepository, 3, Cell{8, 14}},
		{CategoryInvestments, 0, Cell{12, 8}},
		{CategoryCreditCards, 0, Cell{24, 12}},
		{CategoryLoans, 4, Cell{22, 26}},
		{CategoryOthers, 0, Cell{8, 24}},
	}
	for _, c := range cases {
		if got := ZoneCell(c.c, c.idx); got != c.want {
			t.Errorf("ZoneCell(%s, %d) = %v, want %v", c.c, c.idx, got, c.want)
		}
	}
}

func TestProtected_HubBuffer(t *testing.T) {
	if !Protected(MapCentre()) {
		t.Fatal("hub centre must be protected")
	}
	if !Protected(Cell{21, 11}) {
		t.Fatal("cell 5 tiles out should be protected")
	}
	if Protected(Cell{22, 16}) {
		t.Fatal("cell 6 tiles out should be free")
	}
	for _, c := range Categories {
		if footprintProtected(ZoneCell(c, 0)) {
			t.Fatalf("%s default zone overlaps the protected zone", c)
		}
	}
}

func TestSyncAccounts_CreateUpdateDestroy(t *testing.T) {
	s := New()
	s.SyncAccounts(Snapshot{
		Depository:  []Account{{ID: "chk", Name: "Checking", Balance: 1500}},
		CreditCards: []Account{{ID: "visa", Name: "Visa", Balance: 800, APR: 22}},
	})
	if len(s.Buildings()) != 2 {
		t.Fatalf("expected 2 buildings, got %d", len(s.Buildings()))
	}
	chk, _ := s.Building(CategoryDepository, "chk")
	visa, _ := s.Building(CategoryCreditCards, "visa")
	if chk.IsDebt || !visa.IsDebt {
		t.Fatal("isDebt must follow the category")
	}
	if chk.Level != 1 || visa.Level != 0 {
		t.Fatalf("unexpected levels %d/%d", chk.Level, visa.Level)
	}

	// Same level: updated in place, no visual refresh.
	s.SyncAccounts(Snapshot{
		Depository:  []Account{{ID: "chk", Name: "Main Checking", Balance: 1900}},
		CreditCards: []Account{{ID: "visa", Name: "Visa", Balance: 800, APR: 22}},
	})
	if chk.Name != "Main Checking" || chk.Balance != 1900 || chk.Revision != 0 {
		t.Fatalf("expected in-place update without refresh, got %+v", chk)
	}

	// Level change bumps the revision; visa disappears.
	s.SyncAccounts(Snapshot{
		Depository: []Account{{ID: "chk", Name: "Main Checking", Balance: 3200}},
	})
	if chk.Level != 3 || chk.Revision != 1 {
		t.Fatalf("expected level 3 revision 1, got level %d revision %d", chk.Level, chk.Revision)
	}
	if _, ok := s.Building(CategoryCreditCards, "visa"); ok {
		t.Fatal("visa building should be destroyed")
	}
	if len(s.Buildings()) != 1 {
		t.Fatalf("expected 1 building, got %d", len(s.Buildings()))
	}
	if !s.Log.HasEntry("level", "changed", "1 → 3") {
		t.Fatal("expected level change in the log")
	}
}

func TestSyncAccounts_SameIDDifferentCategory(t *testing.T) {
	s := New()
	s.SyncAccounts(Snapshot{
		Depository: []Account{{ID: "x", Name: "Cash", Balance: 10}},
		Loans:      []Account{{ID: "x", Name: "Car", Balance: 9000}},
	})
	if len(s.Buildings()) != 2 {
		t.Fatalf("expected 2 buildings, got %d", len(s.Buildings()))
	}
	s.SyncAccounts(Snapshot{Loans: []Account{{ID: "x", Name: "Car", Balance: 9000}}})
	if _, ok := s.Building(CategoryDepository, "x"); ok {
		t.Fatal("depository x should be gone")
	}
	if _, ok := s.Building(CategoryLoans, "x"); !ok {
		t.Fatal("loan x should remain")
	}
}

func TestSyncAccounts_AppliesSavedPlacement(t *testing.T) {
	ps := newMemPlacements()
	ps.saved["visa"] = Placement{AccountID: "visa", GridX: 3, GridY: 4, FacingRight: true}
	s := New(WithPlacementStore(ps), WithAccounts(oneCard(100, 10)))
	b, _ := s.Building(CategoryCreditCards, "visa")
	if b.Cell != (Cell{3, 4}) || !b.FacingRight {
		t.Fatalf("expected saved placement, got %v facingRight=%v", b.Cell, b.FacingRight)
	}
}

func TestSyncAccounts_StoreFailureFallsBackToZone(t *testing.T) {
	ps := newMemPlacements()
	ps.fail = true
	s := New(WithPlacementStore(ps), WithAccounts(oneCard(100, 10)))
	b, _ := s.Building(CategoryCreditCards, "visa")
	if b.Cell != ZoneCell(CategoryCreditCards, 0) {
		t.Fatalf("expected zone default, got %v", b.Cell)
	}
	if !s.Log.HasEntry("store", "load_failed", "") {
		t.Fatal("expected store failure to be logged")
	}
}

func TestSyncAccounts_DestroyClearsSelection(t *testing.T) {
	s := New(WithAccounts(oneCard(100, 10)))
	b, _ := s.Building(CategoryCreditCards, "visa")
	s.selectTarget(Target{Building: b})
	s.SyncAccounts(Snapshot{})
	if !s.UI.Selected.None() {
		t.Fatal("selection must be cleared when its building is destroyed")
	}
}

func TestSetNetWorth_HubLevel(t *testing.T) {
	s := New()
	s.SetNetWorth(4200)
	if s.Hub.Level != 4 || s.Hub.Revision != 1 {
		t.Fatalf("expected hub level 4 revision 1, got %d/%d", s.Hub.Level, s.Hub.Revision)
	}
	s.SetNetWorth(4900)
	if s.Hub.Revision != 1 {
		t.Fatal("same level must not refresh the hub visual")
	}
	s.SetNetWorth(-3000)
	if s.Hub.Level != 0 || s.Hub.Revision != 2 {
		t.Fatalf("expected hub level 0 revision 2, got %d/%d", s.Hub.Level, s.Hub.Revision)
	}
}

func TestSnapshot_NetWorthAndValidate(t *testing.T) {
	snap := Snapshot{
		Depository:  []Account{{ID: "a", Balance: 1000}},
		Investments: []Account{{ID: "b", Balance: 500}},
		CreditCards: []Account{{ID: "c", Balance: 300}},
		Loans:       []Account{{ID: "d", Balance: 200}},
		Others:      []Account{{ID: "e", Balance: 50}},
	}
	if nw := snap.NetWorth(); nw != 1050 {
		t.Fatalf("expected 1050, got %v", nw)
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap.Loans = append(snap.Loans, Account{ID: "d"})
	if err := snap.Validate(); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
