package sim

import (
	"fmt"
	"sort"
	"strings"
)

// reportWindowTicks is the default sliding window for reports (~10s at 60TPS).
const reportWindowTicks = 600

// BuildingSummary captures one building at one point in time.
type BuildingSummary struct {
	AccountID   string   `json:"accountId"`
	Category    Category `json:"category"`
	Name        string   `json:"name"`
	Balance     float64  `json:"balance"`
	APR         float64  `json:"apr,omitempty"`
	Level       int      `json:"level"`
	GridX       int      `json:"gridX"`
	GridY       int      `json:"gridY"`
	FacingRight bool     `json:"facingRight"`
}

// Summary is a serialisable snapshot of the simulation, published to observers.
type Summary struct {
	Tick      int               `json:"tick"`
	TimeView  TimeView          `json:"timeView"`
	Speed     float64           `json:"speed"`
	BuildMode bool              `json:"buildMode"`
	NetWorth  float64           `json:"netWorth"`
	HubLevel  int               `json:"hubLevel"`
	Units     map[string]int    `json:"units"`
	Effects   int               `json:"effects"`
	Queued    int               `json:"queued"`
	PoolSize  int               `json:"poolSize"`
	Buildings []BuildingSummary `json:"buildings"`
}

// Summarize captures the current state.
func (s *State) Summarize() Summary {
	sum := Summary{
		Tick:      s.tick,
		TimeView:  s.TimeView,
		Speed:     s.Speed,
		BuildMode: s.BuildMode,
		NetWorth:  s.NetWorth,
		HubLevel:  s.Hub.Level,
		Units:     make(map[string]int, unitKindCount),
		Effects:   len(s.effects),
		Queued:    s.Queue.Len(),
		PoolSize:  len(s.pool),
		Buildings: make([]BuildingSummary, 0, len(s.buildings)),
	}
	for _, u := range s.units {
		sum.Units[u.Kind.String()]++
	}
	for _, b := range s.buildings {
		sum.Buildings = append(sum.Buildings, BuildingSummary{
			AccountID:   b.AccountID,
			Category:    b.Category,
			Name:        b.Name,
			Balance:     b.Balance,
			APR:         b.APR,
			Level:       b.Level,
			GridX:       b.Cell.X,
			GridY:       b.Cell.Y,
			FacingRight: b.FacingRight,
		})
	}
	return sum
}

// Reporter collects periodic summaries and reports over a sliding window.
type Reporter struct {
	history     []Summary
	windowTicks int
}

// NewReporter creates a reporter with the given window size.
func NewReporter(windowTicks int) *Reporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &Reporter{windowTicks: windowTicks}
}

// Collect records a summary of the current state.
// Call this periodically (e.g. every 60 ticks / 1s).
func (r *Reporter) Collect(s *State) {
	r.history = append(r.history, s.Summarize())
}

// Latest returns the most recent summary, or nil.
func (r *Reporter) Latest() *Summary {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// History returns all collected summaries.
func (r *Reporter) History() []Summary {
	return r.history
}

// WindowReport is an aggregated summary over the trailing window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int

	AvgUnits    map[string]float64
	AvgEffects  float64
	AvgQueued   float64
	MaxQueued   int
	NetWorthEnd float64
	HubLevelEnd int
}

// WindowSummary aggregates the samples within the trailing window.
func (r *Reporter) WindowSummary() *WindowReport {
	latest := r.Latest()
	if latest == nil {
		return nil
	}
	from := latest.Tick - r.windowTicks
	wr := &WindowReport{
		FromTick: latest.Tick,
		ToTick:   latest.Tick,
		AvgUnits: make(map[string]float64),
	}
	for _, h := range r.history {
		if h.Tick < from {
			continue
		}
		if h.Tick < wr.FromTick {
			wr.FromTick = h.Tick
		}
		wr.SampleCount++
		for k, n := range h.Units {
			wr.AvgUnits[k] += float64(n)
		}
		wr.AvgEffects += float64(h.Effects)
		wr.AvgQueued += float64(h.Queued)
		if h.Queued > wr.MaxQueued {
			wr.MaxQueued = h.Queued
		}
	}
	n := float64(wr.SampleCount)
	for k := range wr.AvgUnits {
		wr.AvgUnits[k] /= n
	}
	wr.AvgEffects /= n
	wr.AvgQueued /= n
	wr.NetWorthEnd = latest.NetWorth
	wr.HubLevelEnd = latest.HubLevel
	return wr
}

// Format returns a human-readable multi-line string of the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Settlement Report (T=%d..%d, %d samples) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount)

	sb.WriteString("\n--- Units on the map (avg) ---\n")
	for k := UnitKind(0); k < unitKindCount; k++ {
		fmt.Fprintf(&sb, "  %-10s %6.1f\n", k, wr.AvgUnits[k.String()])
	}

	sb.WriteString("\n--- Queue & Effects ---\n")
	fmt.Fprintf(&sb, "  queued avg=%.1f max=%d  effects avg=%.1f\n",
		wr.AvgQueued, wr.MaxQueued, wr.AvgEffects)

	sb.WriteString("\n--- Hub ---\n")
	fmt.Fprintf(&sb, "  net worth=%s  level=%d\n", FormatMoney(wr.NetWorthEnd), wr.HubLevelEnd)
	return sb.String()
}

// FormatLatest returns a concise view of the most recent summary.
func (r *Reporter) FormatLatest() string {
	sum := r.Latest()
	if sum == nil {
		return "No data.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Snapshot T=%d view=%s speed=%.1fx ---\n", sum.Tick, sum.TimeView, sum.Speed)
	keys := make([]string, 0, len(sum.Units))
	for k := range sum.Units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sb.WriteString("units: ")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%d ", k, sum.Units[k])
	}
	sb.WriteByte('\n')
	for _, b := range sum.Buildings {
		fmt.Fprintf(&sb, "  %-12s %-20s %12s  L%d  (%d,%d)\n",
			b.Category, b.Name, FormatMoney(b.Balance), b.Level, b.GridX, b.GridY)
	}
	return sb.String()
}

// Totals returns lifetime spawn, arrival and expiry counts by kind name.
func (s *State) Totals() map[string][3]int {
	out := make(map[string][3]int, unitKindCount)
	for k := UnitKind(0); k < unitKindCount; k++ {
		out[k.String()] = [3]int{s.Stats.Spawned[k], s.Stats.Arrived[k], s.Stats.Expired[k]}
	}
	return out
}
