package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/Garsondee/fincraft/internal/sim"
)

type runStats struct {
	runIndex int
	seed     int64

	firstReplayTick int
	firstThreatTick int
	firstLevelTick  int
	firstWaveTick   int

	replayIncome   int
	replayExpense  int
	replayTransfer int
	wraps          int
	dayWaves       int
	levelChanges   int

	inflow      float64
	outflow     float64
	threatHits  int
	spawned     map[string]int
	expired     map[string]int
	touched     map[string]struct{}
	popped      int
	finalTick   int
	finalNet    float64
	finalLevel  int
	windowSumm  *sim.WindowReport
	latestLines string
	summary     sim.Summary
}

type scenario struct {
	accounts     sim.Snapshot
	transactions []sim.Transaction
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var name string
	var view string
	var speed float64
	var accountsPath string
	var txPath string
	var verbose bool
	var asJSON bool

	flag.IntVar(&runs, "runs", 3, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 3600, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&name, "scenario", "household", "built-in scenario (household, indebted, empty)")
	flag.StringVar(&view, "view", string(sim.View1M), "time view label")
	flag.Float64Var(&speed, "speed", 1, "playback speed (0.5, 1, 1.5, 2, 4)")
	flag.StringVar(&accountsPath, "accounts", "", "JSON account snapshot replacing the scenario's accounts")
	flag.StringVar(&txPath, "transactions", "", "JSON transaction list replacing the scenario's transactions")
	flag.BoolVar(&verbose, "verbose", false, "record per-tick movement in the sim log")
	flag.BoolVar(&asJSON, "json", false, "print each run's final summary as JSON")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if !sim.TimeView(view).Valid() {
		fmt.Printf("error: unsupported time view %q\n", view)
		return
	}
	if !sim.ValidSpeed(speed) {
		fmt.Printf("error: unsupported speed %.2f\n", speed)
		return
	}
	sc, ok := builtinScenario(name)
	if !ok {
		fmt.Printf("error: unsupported scenario %q (supported: household, indebted, empty)\n", name)
		return
	}
	if accountsPath != "" {
		if err := readJSON(accountsPath, &sc.accounts); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		if err := sc.accounts.Validate(); err != nil {
			fmt.Printf("error: %s: %v\n", accountsPath, err)
			return
		}
	}
	if txPath != "" {
		if err := readJSON(txPath, &sc.transactions); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
	}

	fmt.Printf("=== Headless Settlement Report ===\n")
	fmt.Printf("scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d view=%s speed=%.1f\n\n",
		name, runs, ticks, seedBase, seedStep, view, speed)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		rs := runScenario(i+1, seed, ticks, sc, sim.TimeView(view), speed, verbose)
		all = append(all, rs)
		printRun(rs)
		if asJSON {
			out, err := json.MarshalIndent(rs.summary, "", "  ")
			if err != nil {
				fmt.Printf("error: encode summary: %v\n", err)
				return
			}
			fmt.Println(string(out))
		}
	}

	printAggregate(all)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func builtinScenario(name string) (scenario, bool) {
	switch name {
	case "household":
		return scenario{
			accounts: sim.Snapshot{
				Depository:  []sim.Account{{ID: "chk", Name: "Everyday Checking", Balance: 4200}, {ID: "sav", Name: "High Yield Savings", Balance: 18000}},
				Investments: []sim.Account{{ID: "brk", Name: "Brokerage", Balance: 52000}},
				CreditCards: []sim.Account{{ID: "visa", Name: "Sapphire Visa", Balance: 1300, APR: 22.9}},
				Loans:       []sim.Account{{ID: "car", Name: "Car Loan", Balance: 9800, APR: 6.4}},
			},
			transactions: []sim.Transaction{
				{Date: "2024-05-01", Amount: "-3200", Name: "ACME Payroll", Account: "Everyday Checking"},
				{Date: "2024-05-01", Amount: "1450", Name: "Rent", Account: "Everyday Checking"},
				{Date: "2024-05-02", Amount: "64.20", Name: "Grocery Mart", Account: "Sapphire Visa"},
				{Date: "2024-05-03", Amount: "4.75", Name: "Coffee House", Account: "Sapphire Visa"},
				{Date: "2024-05-04", Amount: "500", Name: "Payment to Sapphire Visa", Account: "Everyday Checking"},
				{Date: "2024-05-05", Amount: "250", Name: "Online transfer", Account: "High Yield Savings"},
				{Date: "2024-05-06", Amount: "-18.40", Name: "Store refund", Account: "Sapphire Visa"},
			},
		}, true
	case "indebted":
		return scenario{
			accounts: sim.Snapshot{
				Depository:  []sim.Account{{ID: "chk", Name: "Checking", Balance: 310}},
				CreditCards: []sim.Account{{ID: "visa", Name: "Visa", Balance: 8700, APR: 27.5}, {ID: "store", Name: "Store Card", Balance: 2100, APR: 31}},
				Loans:       []sim.Account{{ID: "student", Name: "Student Loan", Balance: 41000, APR: 5.5}},
			},
			transactions: []sim.Transaction{
				{Date: "2024-05-01", Amount: "38.10", Name: "Fast Food", Account: "Visa"},
				{Date: "2024-05-02", Amount: "120", Name: "Electric Bill", Account: "Checking"},
				{Date: "2024-05-03", Amount: "-900", Name: "Payroll", Account: "Checking"},
			},
		}, true
	case "empty":
		return scenario{}, true
	}
	return scenario{}, false
}

func runScenario(runIndex int, seed int64, ticks int, sc scenario, view sim.TimeView, speed float64, verbose bool) runStats {
	opts := []sim.Option{
		sim.WithSeed(seed),
		sim.WithViewport(1280, 720),
		sim.WithTimeView(view),
		sim.WithSpeed(speed),
		sim.WithVerbose(verbose),
		sim.WithAccounts(sc.accounts),
	}
	if len(sc.transactions) > 0 {
		opts = append(opts, sim.WithTransactions(sc.transactions))
	}
	s := sim.New(opts...)
	rep := sim.NewReporter(0)
	for t := 1; t <= ticks; t++ {
		s.Tick()
		if t%60 == 0 {
			rep.Collect(s)
		}
	}
	rep.Collect(s)

	rs := collectStats(s.Log.Entries())
	rs.runIndex = runIndex
	rs.seed = seed
	rs.popped = s.Stats.Popped
	rs.spawned = make(map[string]int)
	rs.expired = make(map[string]int)
	for i, n := range s.Stats.Spawned {
		rs.spawned[sim.UnitKind(i).String()] = n
	}
	for i, n := range s.Stats.Expired {
		rs.expired[sim.UnitKind(i).String()] = n
	}
	rs.summary = s.Summarize()
	rs.finalTick = rs.summary.Tick
	rs.finalNet = rs.summary.NetWorth
	rs.finalLevel = rs.summary.HubLevel
	rs.windowSumm = rep.WindowSummary()
	rs.latestLines = rep.FormatLatest()
	return rs
}

// collectStats folds the sim log into per-run counters.
func collectStats(entries []sim.SimLogEntry) runStats {
	rs := runStats{touched: map[string]struct{}{}}
	for _, e := range entries {
		switch e.Category {
		case "replay":
			switch e.Key {
			case "income":
				rs.replayIncome++
			case "expense":
				rs.replayExpense++
			case "transfer":
				rs.replayTransfer++
			case "wrap":
				rs.wraps++
			case "day_boundary":
				rs.dayWaves++
			}
		case "arrive":
			switch {
			case e.Key == sim.UnitInterestThreat.String(), e.Key == sim.UnitExpenseAttacker.String():
				rs.outflow += math.Abs(e.NumVal)
				rs.threatHits++
			case e.NumVal < 0:
				rs.outflow += -e.NumVal
			default:
				rs.inflow += e.NumVal
			}
			if e.Value != "" {
				rs.touched[e.Value] = struct{}{}
			}
		case "level":
			rs.levelChanges++
		}
	}
	rs.firstReplayTick = firstTick(entries, "replay", "", "")
	rs.firstThreatTick = firstTick(entries, "arrive", sim.UnitInterestThreat.String(), "")
	rs.firstLevelTick = firstTick(entries, "level", "", "")
	rs.firstWaveTick = firstTick(entries, "replay", "day_boundary", "")
	return rs
}

func firstTick(entries []sim.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || (key != "" && e.Key != key) {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

// detectDrain reports whether money leaving the settlement clearly outpaced
// money arriving over the run.
func detectDrain(rs runStats) (bool, string) {
	var reasons []string
	if rs.outflow > 0 && rs.outflow >= 1.5*rs.inflow {
		reasons = append(reasons, fmt.Sprintf("outflow_exceeds_inflow(%.0f>%.0f)", rs.outflow, rs.inflow))
	}
	if rs.threatHits >= 3 && rs.threatHits > rs.replayIncome {
		reasons = append(reasons, fmt.Sprintf("threat_pressure(%d)", rs.threatHits))
	}
	if rs.finalNet >= 0 && len(reasons) < 2 {
		return false, strings.Join(reasons, ",")
	}
	if len(reasons) == 0 {
		return false, ""
	}
	return true, strings.Join(reasons, ",")
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("phase_markers: first_replay=%d first_threat_arrival=%d first_level=%d first_interest_wave=%d\n",
		rs.firstReplayTick, rs.firstThreatTick, rs.firstLevelTick, rs.firstWaveTick)
	fmt.Printf("replay_totals: income=%d expense=%d transfer=%d wraps=%d interest_waves=%d\n",
		rs.replayIncome, rs.replayExpense, rs.replayTransfer, rs.wraps, rs.dayWaves)
	fmt.Printf("flows: inflow=%s outflow=%s threat_hits=%d events_popped=%d level_changes=%d\n",
		sim.FormatMoney(rs.inflow), sim.FormatMoney(rs.outflow), rs.threatHits, rs.popped, rs.levelChanges)
	fmt.Printf("spawned: %s\n", joinCounts(rs.spawned))
	fmt.Printf("expired: %s\n", joinCounts(rs.expired))
	fmt.Printf("touched_labels: %s\n", joinSet(rs.touched))
	if drain, reason := detectDrain(rs); drain {
		fmt.Printf("verdict: draining (%s)\n", reason)
	} else {
		fmt.Printf("verdict: stable\n")
	}
	if rs.windowSumm != nil {
		fmt.Print(rs.windowSumm.Format())
	}
	fmt.Print(rs.latestLines)
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalIncome := 0
	totalExpense := 0
	totalTransfer := 0
	totalWaves := 0
	totalThreat := 0
	totalIn := 0.0
	totalOut := 0.0
	draining := 0

	replayTicks := make([]int, 0, len(all))
	threatTicks := make([]int, 0, len(all))
	levelTicks := make([]int, 0, len(all))
	touchedGlobal := map[string]struct{}{}

	for _, rs := range all {
		totalIncome += rs.replayIncome
		totalExpense += rs.replayExpense
		totalTransfer += rs.replayTransfer
		totalWaves += rs.dayWaves
		totalThreat += rs.threatHits
		totalIn += rs.inflow
		totalOut += rs.outflow
		if rs.firstReplayTick >= 0 {
			replayTicks = append(replayTicks, rs.firstReplayTick)
		}
		if rs.firstThreatTick >= 0 {
			threatTicks = append(threatTicks, rs.firstThreatTick)
		}
		if rs.firstLevelTick >= 0 {
			levelTicks = append(levelTicks, rs.firstLevelTick)
		}
		for label := range rs.touched {
			touchedGlobal[label] = struct{}{}
		}
		if d, _ := detectDrain(rs); d {
			draining++
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d draining_runs=%d\n", len(all), draining)
	fmt.Printf("avg_replay_per_run: income=%.1f expense=%.1f transfer=%.1f interest_waves=%.1f\n",
		avg(totalIncome, len(all)), avg(totalExpense, len(all)), avg(totalTransfer, len(all)), avg(totalWaves, len(all)))
	fmt.Printf("avg_flows_per_run: inflow=%s outflow=%s threat_hits=%.1f\n",
		sim.FormatMoney(totalIn/float64(len(all))), sim.FormatMoney(totalOut/float64(len(all))), avg(totalThreat, len(all)))
	fmt.Printf("phase_marker_avg_ticks: first_replay=%s first_threat_arrival=%s first_level=%s\n",
		avgTickString(replayTicks), avgTickString(threatTicks), avgTickString(levelTicks))
	fmt.Printf("unique_touched_labels=%d [%s]\n", len(touchedGlobal), joinSet(touchedGlobal))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
