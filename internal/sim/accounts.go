package sim

import "fmt"

// Category groups accounts. Categories never overlap.
type Category string

const (
	CategoryDepository  Category = "depository"
	CategoryInvestments Category = "investments"
	CategoryCreditCards Category = "creditCards"
	CategoryLoans       Category = "loans"
	CategoryOthers      Category = "others"
)

// Categories lists every category in sync order.
var Categories = [...]Category{
	CategoryDepository,
	CategoryInvestments,
	CategoryCreditCards,
	CategoryLoans,
	CategoryOthers,
}

// IsDebt reports whether accounts of this category are liabilities.
func (c Category) IsDebt() bool {
	return c == CategoryCreditCards || c == CategoryLoans
}

// IsAsset reports whether accounts of this category emit income carriers.
func (c Category) IsAsset() bool {
	return c == CategoryDepository || c == CategoryInvestments
}

// Account is one external account record.
type Account struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	APR     float64 `json:"apr,omitempty"`
}

// Snapshot is the full accounts list pushed by the form UI on every edit.
type Snapshot struct {
	Depository  []Account `json:"depository"`
	Investments []Account `json:"investments"`
	CreditCards []Account `json:"creditCards"`
	Loans       []Account `json:"loans"`
	Others      []Account `json:"others"`
}

// List returns the accounts of one category.
func (s *Snapshot) List(c Category) []Account {
	switch c {
	case CategoryDepository:
		return s.Depository
	case CategoryInvestments:
		return s.Investments
	case CategoryCreditCards:
		return s.CreditCards
	case CategoryLoans:
		return s.Loans
	case CategoryOthers:
		return s.Others
	}
	return nil
}

// Validate checks that ids are unique within their category.
func (s *Snapshot) Validate() error {
	for _, c := range Categories {
		seen := make(map[string]bool)
		for _, a := range s.List(c) {
			if a.ID == "" {
				return fmt.Errorf("%s: account %q has no id", c, a.Name)
			}
			if seen[a.ID] {
				return fmt.Errorf("%s: duplicate account id %q", c, a.ID)
			}
			seen[a.ID] = true
		}
	}
	return nil
}

// NetWorth is assets minus debts.
func (s *Snapshot) NetWorth() float64 {
	total := 0.0
	for _, c := range Categories {
		for _, a := range s.List(c) {
			if c.IsDebt() {
				total -= a.Balance
			} else {
				total += a.Balance
			}
		}
	}
	return total
}

// TimeView is a coarse time-scale selector.
type TimeView string

const (
	View1W  TimeView = "1W"
	View1M  TimeView = "1M"
	View3M  TimeView = "3M"
	ViewYTD TimeView = "YTD"
	View1Y  TimeView = "1Y"
)

// TimeViews lists the views in UI order.
var TimeViews = [...]TimeView{View1W, View1M, View3M, ViewYTD, View1Y}

// Multiplier is the spawn-pacing scalar for a view. Unknown views pace like 1M.
func (v TimeView) Multiplier() float64 {
	switch v {
	case View1W:
		return 0.2
	case View1M:
		return 1
	case View3M:
		return 3
	case ViewYTD:
		return 6
	case View1Y:
		return 12
	}
	return 1
}

// Compressed reports whether pushed events aggregate under this view.
func (v TimeView) Compressed() bool {
	return v == View3M || v == ViewYTD || v == View1Y
}

// Valid reports whether v is one of the known views.
func (v TimeView) Valid() bool {
	for _, k := range TimeViews {
		if k == v {
			return true
		}
	}
	return false
}

// PlaybackSpeeds are the multipliers the controls offer.
var PlaybackSpeeds = []float64{0.5, 1, 1.5, 2, 4}

// ValidSpeed reports whether s is an offered playback speed.
func ValidSpeed(s float64) bool {
	for _, v := range PlaybackSpeeds {
		if v == s {
			return true
		}
	}
	return false
}
