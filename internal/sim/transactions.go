package sim

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one imported row as the form UI hands it over. Amount and Date are
// kept as text; a positive amount is money leaving the account.
type Transaction struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Account     string `json:"account"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	Excluded    bool   `json:"excluded,omitempty"`
}

// UnmarshalJSON accepts the amount either as a JSON string or a bare number.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var raw struct {
		plain
		Amount json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction(raw.plain)
	amt := bytes.TrimSpace(raw.Amount)
	switch {
	case len(amt) == 0 || bytes.Equal(amt, []byte("null")):
		t.Amount = ""
	case amt[0] == '"':
		return json.Unmarshal(amt, &t.Amount)
	default:
		t.Amount = string(amt)
	}
	return nil
}

// TxClass is the classification of a transaction.
type TxClass int

const (
	TxExpense TxClass = iota
	TxIncome
	TxTransfer
)

func (c TxClass) String() string {
	switch c {
	case TxIncome:
		return "income"
	case TxTransfer:
		return "transfer"
	}
	return "expense"
}

// ParsedTx is a transaction with its amount and date resolved.
type ParsedTx struct {
	Tx     Transaction
	Amount decimal.Decimal
	Date   time.Time
	Class  TxClass
}

// Day returns the calendar day the transaction falls on.
func (p ParsedTx) Day() time.Time {
	y, m, d := p.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseAmount reads a currency string such as "$1,234.50", "-20" or "(15.00)".
// Anything unparseable is zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

// ParseDate reads a transaction date in any of the common export layouts.
// Anything unparseable is now.
func ParseDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// transferWords mark a row as money moving between the user's own accounts.
var transferWords = []string{
	"transfer", "payment", "deposit", "autopay", "ach", "401k", "ira",
	"roth", "xfer", "zelle", "withdrawal", "rollover", "contribution",
}

// institutions are financial-institution names that identify inter-account moves.
var institutions = []string{
	"chase", "bank of america", "wells fargo", "citi", "citibank", "capital one",
	"american express", "amex", "discover", "fidelity", "vanguard", "schwab",
	"ally", "sofi", "robinhood", "navient", "nelnet", "synchrony", "barclays",
	"us bank", "pnc", "marcus", "betterment", "wealthfront",
}

// genericWords are stripped before fuzzy name matching.
var genericWords = map[string]bool{
	"checking": true, "savings": true, "account": true, "acct": true,
	"card": true, "credit": true, "bank": true, "the": true, "of": true,
	"and": true, "my": true, "debit": true, "loan": true, "plus": true,
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasWord reports whether w, or its plural, is one of ws.
func hasWord(ws []string, w string) bool {
	for _, x := range ws {
		if x == w || x == w+"s" {
			return true
		}
	}
	return false
}

// containsPhrase matches a multi-word phrase against the word list on word boundaries.
func containsPhrase(ws []string, phrase string) bool {
	return strings.Contains(" "+strings.Join(ws, " ")+" ", " "+phrase+" ")
}

// Classify decides whether a row is income, expense or transfer.
//
// Explicit type or excluded flags win. "payroll" anywhere in the text is income, so
// payroll direct deposits are not mistaken for transfers. Otherwise transfer keywords
// and institution names mark a transfer, a negative amount is income, and the rest
// are expenses.
func Classify(tx Transaction, amount decimal.Decimal) TxClass {
	switch strings.ToLower(strings.TrimSpace(tx.Type)) {
	case "transfer", "internal":
		return TxTransfer
	case "income", "credit":
		return TxIncome
	case "expense", "debit":
		return TxExpense
	}
	if tx.Excluded {
		return TxTransfer
	}
	text := words(tx.Name + " " + tx.Description + " " + tx.Category)
	if hasWord(text, "payroll") {
		return TxIncome
	}
	for _, w := range transferWords {
		if hasWord(text, w) {
			return TxTransfer
		}
	}
	for _, inst := range institutions {
		if containsPhrase(text, inst) {
			return TxTransfer
		}
	}
	if amount.IsNegative() {
		return TxIncome
	}
	return TxExpense
}

// matchKey normalises a name for fuzzy matching. When every word is generic the
// unstripped form is used so an account called just "Checking" still matches.
func matchKey(s string) string {
	ws := words(s)
	var kept []string
	for _, w := range ws {
		if !genericWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.Join(ws, " ")
	}
	return strings.Join(kept, " ")
}

// matchBuilding returns the building whose name best matches text, or nil. A match is
// substring containment either way between the normalised forms; the longest building
// key wins and ties keep sync order.
func (s *State) matchBuilding(text string, skip *Building) *Building {
	key := matchKey(text)
	if key == "" {
		return nil
	}
	var best *Building
	bestLen := 0
	for _, b := range s.buildings {
		if b == skip {
			continue
		}
		bk := matchKey(b.Name)
		if bk == "" {
			continue
		}
		if !strings.Contains(key, bk) && !strings.Contains(bk, key) {
			continue
		}
		if len(bk) > bestLen {
			best, bestLen = b, len(bk)
		}
	}
	return best
}

// preferredDepository returns a depository building, preferring one named "checking".
func (s *State) preferredDepository() *Building {
	var first *Building
	for _, b := range s.buildings {
		if b.Category != CategoryDepository {
			continue
		}
		if hasWord(words(b.Name), "checking") {
			return b
		}
		if first == nil {
			first = b
		}
	}
	return first
}

// Endpoint is one end of a route: a building, a landmark, or a bare map cell.
type Endpoint struct {
	Building *Building
	Landmark *Landmark
	Cell     Cell
}

// Point returns the world point units leave from or home on.
func (e Endpoint) Point() (float64, float64) {
	switch {
	case e.Building != nil:
		return e.Building.Anchor()
	case e.Landmark != nil:
		return e.Landmark.Anchor()
	}
	return ToScreen(float64(e.Cell.X)+0.5, float64(e.Cell.Y)+0.5)
}

// TargetCell returns the cell the pathfinder aims at.
func (e Endpoint) TargetCell() Cell {
	switch {
	case e.Building != nil:
		return e.Building.Cell.Add(1, 1)
	case e.Landmark != nil:
		return e.Landmark.Centre()
	}
	return e.Cell
}

// Name labels the endpoint in logs.
func (e Endpoint) Name() string {
	switch {
	case e.Building != nil:
		return e.Building.Label()
	case e.Landmark != nil:
		return e.Landmark.Kind.String()
	}
	return cellString(e.Cell)
}

// Route is where a transaction NPC starts and where it walks.
type Route struct {
	From, To Endpoint
}

func (s *State) hubEnd() Endpoint  { return Endpoint{Landmark: s.Hub} }
func (s *State) mineEnd() Endpoint { return Endpoint{Landmark: s.Mine} }

func buildingEnd(b *Building) Endpoint { return Endpoint{Building: b} }

// randomEdge picks a cell on the map border.
func (s *State) randomEdge() Endpoint {
	i := s.rng.Intn(MapW)
	switch s.rng.Intn(4) {
	case 0:
		return Endpoint{Cell: Cell{X: i, Y: 0}}
	case 1:
		return Endpoint{Cell: Cell{X: i, Y: MapH - 1}}
	case 2:
		return Endpoint{Cell: Cell{X: 0, Y: i % MapH}}
	}
	return Endpoint{Cell: Cell{X: MapW - 1, Y: i % MapH}}
}

// RouteTransaction resolves the endpoints for a classified transaction.
func (s *State) RouteTransaction(p ParsedTx) Route {
	switch p.Class {
	case TxIncome:
		to := s.hubEnd()
		if b := s.matchBuilding(p.Tx.Account, nil); b != nil {
			to = buildingEnd(b)
		} else if b := s.matchBuilding(p.Tx.Name, nil); b != nil {
			to = buildingEnd(b)
		}
		return Route{From: s.mineEnd(), To: to}

	case TxTransfer:
		return s.routeTransfer(p)
	}

	to := s.hubEnd()
	if b := s.matchBuilding(p.Tx.Account, nil); b != nil {
		to = buildingEnd(b)
	} else if b := s.preferredDepository(); b != nil {
		to = buildingEnd(b)
	}
	return Route{From: s.randomEdge(), To: to}
}

// routeTransfer resolves the posting account and the counterparty named in the text.
// A positive amount leaves the posting account; a negative one arrives there.
func (s *State) routeTransfer(p ParsedTx) Route {
	posting := s.matchBuilding(p.Tx.Account, nil)
	other := s.matchBuilding(p.Tx.Name+" "+p.Tx.Description, posting)
	if other == nil && posting == nil {
		other = s.matchBuilding(p.Tx.Name, nil)
	}

	src, dst := posting, other
	if p.Amount.IsNegative() {
		src, dst = other, posting
	}
	switch {
	case src != nil && dst != nil:
		return Route{From: buildingEnd(src), To: buildingEnd(dst)}
	case src != nil:
		return Route{From: buildingEnd(src), To: s.hubEnd()}
	case dst != nil:
		return Route{From: s.hubEnd(), To: buildingEnd(dst)}
	}

	var pool []*Building
	for _, b := range s.buildings {
		if b.Category.IsAsset() {
			pool = append(pool, b)
		}
	}
	if len(pool) == 0 {
		return Route{From: s.mineEnd(), To: s.hubEnd()}
	}
	b := pool[s.rng.Intn(len(pool))]
	if s.rng.Intn(2) == 0 {
		return Route{From: s.hubEnd(), To: buildingEnd(b)}
	}
	return Route{From: buildingEnd(b), To: s.hubEnd()}
}

// LoadTransactions replaces the replay pool. Rows are parsed, classified and sorted
// chronologically; rows without an id get one. The replay cursor restarts.
func (s *State) LoadTransactions(txs []Transaction) {
	now := s.wallNow()
	pool := make([]ParsedTx, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		amt := ParseAmount(tx.Amount)
		pool = append(pool, ParsedTx{
			Tx:     tx,
			Amount: amt,
			Date:   ParseDate(tx.Date, now),
			Class:  Classify(tx, amt),
		})
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Date.Before(pool[j].Date)
	})
	s.pool = pool
	s.replay = replayState{}
	s.Log.Add(s.tick, "--", "replay", "pool_loaded", "", float64(len(pool)))
}

// Pool returns the parsed replay pool in chronological order.
func (s *State) Pool() []ParsedTx {
	return s.pool
}
