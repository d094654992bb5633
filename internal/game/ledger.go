package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/fincraft/internal/sim"
)

const (
	logPanelWidth = 300
	logMaxEntries = 60
	logLineHeight = 14
)

// Tone colours a ledger line.
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
)

// LedgerEntry is a single line in the ledger log.
type LedgerEntry struct {
	Tick    int
	Label   string
	Tone    Tone
	Message string
}

// LedgerLog is a ring buffer of settlement activity rendered on-screen.
type LedgerLog struct {
	entries []LedgerEntry
	head    int
	count   int

	// Position in the sim log already ingested.
	seenTick   int
	seenAtTick int
}

// NewLedgerLog creates a ledger log with a fixed capacity.
func NewLedgerLog() *LedgerLog {
	return &LedgerLog{
		entries:  make([]LedgerEntry, logMaxEntries),
		seenTick: -1,
	}
}

// Add appends an entry, overwriting the oldest once full.
func (l *LedgerLog) Add(tick int, label string, tone Tone, msg string) {
	l.entries[l.head] = LedgerEntry{
		Tick:    tick,
		Label:   label,
		Tone:    tone,
		Message: msg,
	}
	l.head = (l.head + 1) % logMaxEntries
	if l.count < logMaxEntries {
		l.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (l *LedgerLog) Recent() []LedgerEntry {
	result := make([]LedgerEntry, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - l.count + i + logMaxEntries) % logMaxEntries
		result[i] = l.entries[idx]
	}
	return result
}

// Ingest copies sim log entries not seen by an earlier call into the ledger,
// keeping only the ones worth showing a player.
func (l *LedgerLog) Ingest(entries []sim.SimLogEntry) {
	n := len(entries)
	if n == 0 {
		return
	}
	start := n
	for start > 0 && entries[start-1].Tick >= l.seenTick {
		start--
	}
	for skip := 0; start < n && entries[start].Tick == l.seenTick && skip < l.seenAtTick; skip++ {
		start++
	}
	for _, e := range entries[start:] {
		if msg, tone, ok := ledgerLine(e); ok {
			l.Add(e.Tick, e.Entity, tone, msg)
		}
	}
	last := entries[n-1].Tick
	c := 0
	for i := n - 1; i >= 0 && entries[i].Tick == last; i-- {
		c++
	}
	l.seenTick, l.seenAtTick = last, c
}

// ledgerLine picks and phrases the sim log entries worth showing a player.
func ledgerLine(e sim.SimLogEntry) (string, Tone, bool) {
	switch e.Category {
	case "arrive":
		tone := TonePositive
		switch {
		case e.Key == sim.UnitInterestThreat.String(), e.Key == sim.UnitExpenseAttacker.String():
			tone = ToneNegative
		case e.NumVal < 0:
			tone = ToneNegative
		}
		msg := e.Key + " arrived " + sim.FormatMoney(e.NumVal)
		if e.Value != "" {
			msg += " " + e.Value
		}
		return msg, tone, true
	case "replay":
		switch e.Key {
		case "income":
			return e.Value, TonePositive, true
		case "expense":
			return e.Value, ToneNegative, true
		case "transfer":
			return e.Value, ToneNeutral, true
		case "day_boundary":
			return fmt.Sprintf("interest wave: %d threats", int(e.NumVal)), ToneNegative, true
		}
	case "building":
		return e.Key + " " + e.Value, ToneNeutral, true
	case "level":
		return "level " + e.Value, TonePositive, true
	case "store":
		if e.Key != "saved" {
			return "store " + e.Key, ToneNegative, true
		}
		return "placement saved " + e.Value, ToneNeutral, true
	case "interact":
		if e.Key == "drag_revert" {
			return "drag reverted", ToneNegative, true
		}
	case "camera":
		if e.Key == "recentre_refused" {
			return "recentre refused: " + e.Value, ToneNegative, true
		}
	}
	return "", ToneNeutral, false
}

func toneColor(t Tone) color.RGBA {
	switch t {
	case TonePositive:
		return color.RGBA{R: 235, G: 200, B: 80, A: 255}
	case ToneNegative:
		return color.RGBA{R: 220, G: 80, B: 70, A: 255}
	}
	return color.RGBA{R: 150, G: 170, B: 190, A: 255}
}

// Draw renders the ledger panel on the right side of the screen.
func (l *LedgerLog) Draw(screen *ebiten.Image, face text.Face, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 14, G: 16, B: 22, A: 235}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 60, G: 70, B: 90, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 18, color.RGBA{R: 26, G: 30, B: 42, A: 255}, false)
	drawText(screen, "LEDGER", face, float64(panelX+8), 3, color.RGBA{R: 220, G: 225, B: 235, A: 255})
	vector.StrokeLine(screen, float32(panelX), 18, float32(panelX+logPanelWidth), 18, 1.0, color.RGBA{R: 60, G: 70, B: 90, A: 200}, false)

	entries := l.Recent()

	// Newest at the bottom.
	maxVisible := (panelH - 26) / logLineHeight
	startIdx := 0
	if len(entries) > maxVisible {
		startIdx = len(entries) - maxVisible
	}
	visible := entries[startIdx:]
	recent := 3

	y := 22
	for i, e := range visible {
		isRecent := i >= len(visible)-recent
		if isRecent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 34, G: 40, B: 56, A: 160}, false)
		}
		col := toneColor(e.Tone)
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, col, false)
		if !isRecent {
			col = dim(col)
		}
		line := fmt.Sprintf("%5d %s", e.Tick, e.Message)
		drawText(screen, line, face, float64(panelX+12), float64(y), col)
		y += logLineHeight
	}
}
