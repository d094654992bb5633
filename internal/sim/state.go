package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// TicksPerSecond is the simulation rate.
const TicksPerSecond = 60

// FrameDuration is the simulated time one tick represents, rounded down.
const FrameDuration = time.Second / TicksPerSecond

// inboxSize bounds queued external commands between ticks.
const inboxSize = 256

// Command mutates the state on the simulation goroutine. External collaborators
// (the control API, the window) never touch State directly; they Submit commands
// that the next tick drains before anything else runs.
type Command func(*State)

// Stats counts unit lifecycle outcomes per kind.
type Stats struct {
	Spawned [unitKindCount]int
	Arrived [unitKindCount]int
	Expired [unitKindCount]int
	Popped  int
}

// State is the whole simulation: entities, camera, interaction and pacing. Every
// mutation happens inside Tick or HandleInput on one goroutine.
type State struct {
	TimeView  TimeView
	Speed     float64
	BuildMode bool
	NetWorth  float64

	Hub  *Landmark
	Mine *Landmark

	Queue   *EventQueue
	Camera  Camera
	UI      Interaction
	Tooltip Tooltip

	Log   *SimLog
	Stats Stats

	tick  int
	clock time.Duration

	buildings []*Building
	byAccount map[buildingKey]*Building
	units     []*Unit
	effects   []*Effect
	fresh     []*Effect
	nextID    EntityID
	render    []RenderItem

	pool   []ParsedTx
	replay replayState

	rng          *rand.Rand
	logger       *slog.Logger
	placements   PlacementStore
	txStore      TransactionStore
	storeTimeout time.Duration
	wallNow      func() time.Time
	inbox        chan Command
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra optionKind = iota // seed, viewport, stores, clocks, logging: applied first
	optWorld                   // accounts, transactions, pacing: applied once landmarks exist
)

// Option configures a State during construction.
type Option struct {
	kind optionKind
	fn   func(*State)
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(s *State) {
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- visual jitter only
	}}
}

// WithViewport sets the viewport size the camera frames.
func WithViewport(w, h float64) Option {
	return Option{optInfra, func(s *State) {
		s.Camera.ViewW, s.Camera.ViewH = w, h
	}}
}

// WithVerbose records per-tick movement entries in the SimLog.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(s *State) {
		s.Log = NewSimLog(v, s.Log.limit)
	}}
}

// WithLogLimit caps retained SimLog entries.
func WithLogLimit(n int) Option {
	return Option{optInfra, func(s *State) {
		s.Log = NewSimLog(s.Log.verbose, n)
	}}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return Option{optInfra, func(s *State) {
		if l != nil {
			s.logger = l
		}
	}}
}

// WithPlacementStore persists building positions and orientations.
func WithPlacementStore(ps PlacementStore) Option {
	return Option{optInfra, func(s *State) {
		s.placements = ps
	}}
}

// WithTransactionStore persists the imported transaction pool.
func WithTransactionStore(ts TransactionStore) Option {
	return Option{optInfra, func(s *State) {
		s.txStore = ts
	}}
}

// WithStoreTimeout bounds every persistence call.
func WithStoreTimeout(d time.Duration) Option {
	return Option{optInfra, func(s *State) {
		if d > 0 {
			s.storeTimeout = d
		}
	}}
}

// WithWallClock sets the clock used for event timestamps and undated transactions.
func WithWallClock(now func() time.Time) Option {
	return Option{optInfra, func(s *State) {
		s.wallNow = now
		s.Queue.now = now
	}}
}

// WithTimeView sets the initial time view.
func WithTimeView(v TimeView) Option {
	return Option{optWorld, func(s *State) {
		s.SetTimeView(v)
	}}
}

// WithSpeed sets the initial playback speed.
func WithSpeed(speed float64) Option {
	return Option{optWorld, func(s *State) {
		s.SetPlaybackSpeed(speed)
	}}
}

// WithAccounts syncs an initial snapshot and derives the hub level from it.
func WithAccounts(snap Snapshot) Option {
	return Option{optWorld, func(s *State) {
		s.SyncAccounts(snap)
		s.SetNetWorth(snap.NetWorth())
	}}
}

// WithTransactions loads an initial replay pool.
func WithTransactions(txs []Transaction) Option {
	return Option{optWorld, func(s *State) {
		s.LoadTransactions(txs)
	}}
}

// New constructs a State in two passes: infrastructure options, then landmarks and
// the camera framing, then world options.
func New(opts ...Option) *State {
	s := &State{
		TimeView:     View1M,
		Speed:        1,
		Queue:        NewEventQueue(),
		Camera:       NewCamera(1280, 720),
		Log:          NewSimLog(false, 0),
		byAccount:    make(map[buildingKey]*Building),
		rng:          rand.New(rand.NewSource(1)), // #nosec G404 -- visual jitter only
		logger:       slog.Default(),
		storeTimeout: defaultStoreTimeout,
		wallNow:      time.Now,
		inbox:        make(chan Command, inboxSize),
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(s)
		}
	}
	s.Hub = &Landmark{Kind: LandmarkHub, Cell: hubTopLeft, Size: hubSize}
	s.Mine = &Landmark{Kind: LandmarkIncomeSource, Cell: mineTopLeft, Size: mineSize}
	s.Recentre()
	for _, o := range opts {
		if o.kind == optWorld {
			o.fn(s)
		}
	}
	return s
}

// Submit queues a command for the next tick. It never blocks; when the inbox is
// full the command is dropped and false is returned. Safe for concurrent use.
func (s *State) Submit(cmd Command) bool {
	select {
	case s.inbox <- cmd:
		return true
	default:
		return false
	}
}

func (s *State) drainInbox() {
	for {
		select {
		case cmd := <-s.inbox:
			cmd(s)
		default:
			return
		}
	}
}

// SetTimeView changes spawn pacing and event aggregation. Unknown views are ignored.
func (s *State) SetTimeView(v TimeView) {
	if !v.Valid() {
		s.logger.Warn("ignoring unknown time view", "view", v)
		return
	}
	s.TimeView = v
	s.Queue.SetTimeView(v)
	s.Log.Add(s.tick, "--", "queue", "time_view", string(v), v.Multiplier())
}

// SetPlaybackSpeed scales movement, spawn pacing and the queue pop interval.
// Non-positive speeds are ignored.
func (s *State) SetPlaybackSpeed(speed float64) {
	if speed <= 0 {
		s.logger.Warn("ignoring non-positive playback speed", "speed", speed)
		return
	}
	s.Speed = speed
	s.Queue.SetPlaybackSpeed(speed)
	s.Log.Add(s.tick, "--", "queue", "speed", "", speed)
}

// PushEvent enqueues a financial event.
func (s *State) PushEvent(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.wallNow()
	}
	s.Queue.Push(e)
	s.Log.Add(s.tick, "--", "queue", "push", string(e.Type)+" "+e.TargetID, e.Amount)
}

// ClearEvents drops every pending queue entry.
func (s *State) ClearEvents() {
	n := s.Queue.Len()
	s.Queue.Clear()
	s.Log.Add(s.tick, "--", "queue", "cleared", fmt.Sprintf("%d pending", n), float64(n))
}

// CurrentTick returns the number of ticks run so far.
func (s *State) CurrentTick() int {
	return s.tick
}

// Clock returns the simulated time elapsed.
func (s *State) Clock() time.Duration {
	return s.clock
}
