// Package arbiter implements the Arbiter of spec §4.7: schedule assembly, pairing generation,
// bounded-concurrency dispatch, pause/stop/skip-disabled control, spawn-failure tracking, and
// crash-tolerant resume. It is the orchestrator that owns every other package in this repository.
package arbiter

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"github.com/herohde/morlock/pkg/board"
	"github.com/herohde/morlock/pkg/gameloop"
	"github.com/herohde/morlock/pkg/opening"
	"github.com/herohde/morlock/pkg/pairing"
	"github.com/herohde/morlock/pkg/pgn"
	"github.com/herohde/morlock/pkg/resume"
	"github.com/herohde/morlock/pkg/schedule"
	"github.com/herohde/morlock/pkg/stats"
	"github.com/herohde/morlock/pkg/supervisor"
	"github.com/herohde/morlock/pkg/tconfig"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// EngineSpawnFailureLimit is the number of distinct spawn failures that auto-disables an engine
// for the remainder of the tournament (spec §4.7 Worker).
const EngineSpawnFailureLimit = 3

// EventQueueSize bounds every outbound event channel (spec §5 "Shared-resource policy"): senders
// tolerate a full or closed receiver rather than panic or block indefinitely.
const EventQueueSize = 100

// Toast is the outbound diagnostic event of spec §6: auto-disable notices and critical errors.
type Toast struct {
	EngineID      string
	EngineName    string
	GameID        int
	HasGameID     bool
	Message       string
	FailureCount  int
	Disabled      bool
	CriticalError bool
}

// Events bundles the outbound channels a caller drains to observe a running tournament (spec §6).
// All channels are created with capacity EventQueueSize; Arbiter sends tolerate a full channel by
// dropping rather than blocking, matching spec §5's backpressure policy.
type Events struct {
	Moves      chan gameloop.GameUpdate
	Stats      chan gameloop.EngineStats
	Schedule   chan schedule.ScheduledUpdate
	Tournament chan stats.TournamentStats
	Toasts     chan Toast
}

func newEvents() Events {
	return Events{
		Moves:      make(chan gameloop.GameUpdate, EventQueueSize),
		Stats:      make(chan gameloop.EngineStats, EventQueueSize),
		Schedule:   make(chan schedule.ScheduledUpdate, EventQueueSize),
		Tournament: make(chan stats.TournamentStats, EventQueueSize),
		Toasts:     make(chan Toast, EventQueueSize),
	}
}

func trySend[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// Arbiter owns a single tournament run: the schedule queue, pairing table, disabled-engine set,
// spawn-failure tally, and the stop/pause control flags (spec §4.7).
type Arbiter struct {
	cfg     tconfig.TournamentConfig
	engines []tconfig.EngineConfig
	events  Events

	sched *schedule.Queue
	agg   *stats.Aggregator
	zt    *board.ZobristTable

	stop, pause atomic.Bool

	mu            sync.Mutex
	disabled      map[string]bool
	spawnFailures map[string]int
	live          map[*supervisor.Process]bool

	wg sync.WaitGroup
}

// New constructs an Arbiter from a validated TournamentConfig, building a fresh schedule queue
// (spec §4.7 Start "fresh" path). Use Resume to start from a persisted snapshot instead.
func New(cfg tconfig.TournamentConfig) (*Arbiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, e := range cfg.Engines {
		if err := checkExecutable(e.Path); err != nil {
			return nil, fmt.Errorf("arbiter: engine %v: %w", e.Name, err)
		}
	}

	openings, err := loadOpenings(cfg)
	if err != nil {
		return nil, err
	}

	a := &Arbiter{
		cfg:           cfg,
		engines:       cfg.Engines,
		events:        newEvents(),
		zt:            board.NewZobristTable(1),
		disabled:      map[string]bool{},
		spawnFailures: map[string]int{},
		live:          map[*supervisor.Process]bool{},
	}
	for _, id := range cfg.DisabledEngineIDs {
		a.disabled[id] = true
	}

	pairs := pairing.Generate(cfg.PairingMode(), len(cfg.Engines))
	a.sched = schedule.New(schedule.Config{
		Pairs:           pairs,
		GamesPerPairing: cfg.GamesCount,
		SwapSides:       cfg.SwapSides,
		Openings:        openings,
		Literal:         cfg.Opening.FEN,
		Variant:         cfg.VariantKind(),
		Rand:            rand.New(rand.NewSource(1)),
		Names:           a.engineName,
	})
	a.agg = newAggregator(cfg, len(cfg.Engines))
	return a, nil
}

// Resume reconstructs an Arbiter from a persisted snapshot (spec §4.7 Start "resume" path),
// reverting any Active entry to Pending because the previous run may have crashed mid-game.
func Resume(snap resume.Snapshot) (*Arbiter, error) {
	cfg := snap.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	openings, err := loadOpenings(cfg)
	if err != nil {
		return nil, err
	}

	a := &Arbiter{
		cfg:           cfg,
		engines:       cfg.Engines,
		events:        newEvents(),
		zt:            board.NewZobristTable(1),
		disabled:      map[string]bool{},
		spawnFailures: map[string]int{},
		live:          map[*supervisor.Process]bool{},
	}
	for _, id := range cfg.DisabledEngineIDs {
		a.disabled[id] = true
	}

	a.sched = schedule.FromSnapshot(snap.Schedule, schedule.Config{
		GamesPerPairing: cfg.GamesCount,
		SwapSides:       cfg.SwapSides,
		Openings:        openings,
		Literal:         cfg.Opening.FEN,
		Variant:         cfg.VariantKind(),
		Rand:            rand.New(rand.NewSource(1)),
		Names:           a.engineName,
	})
	a.agg = newAggregator(cfg, len(cfg.Engines))
	for _, g := range a.sched.All() {
		if g.State == schedule.Finished {
			a.agg.Record(g.WhiteEngineIdx, g.BlackEngineIdx, g.Result)
		}
	}
	return a, nil
}

func newAggregator(cfg tconfig.TournamentConfig, n int) *stats.Aggregator {
	sprtCfg, ok := cfg.SPRTConfigValue().V()
	if ok {
		return stats.New(n, 0, &sprtCfg)
	}
	return stats.New(n, 0, nil)
}

func loadOpenings(cfg tconfig.TournamentConfig) ([]string, error) {
	if cfg.Opening.File == "" {
		return nil, nil
	}
	lines, err := opening.Load(cfg.Opening.File)
	if err != nil {
		return nil, fmt.Errorf("arbiter: load openings: %w", err)
	}
	return lines, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("engine path %v: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("engine path %v is a directory", path)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("engine path %v is not executable", path)
	}
	return nil
}

func (a *Arbiter) engineName(idx int) string {
	if idx >= 0 && idx < len(a.engines) {
		if a.engines[idx].Name != "" {
			return a.engines[idx].Name
		}
	}
	return fmt.Sprintf("engine-%d", idx)
}

func (a *Arbiter) engineIdentifier(idx int) string {
	if idx < 0 || idx >= len(a.engines) {
		return ""
	}
	if a.engines[idx].ID != "" {
		return a.engines[idx].ID
	}
	return a.engines[idx].Name
}

// Events returns the outbound event channels a caller drains to observe this run.
func (a *Arbiter) Events() Events { return a.events }

// Progress reports the taskbar-style aggregate progress named in SPEC_FULL's supplemented
// features: the count of non-Removed scheduled games and how many remain non-terminal.
func (a *Arbiter) Progress() (total, remaining int) { return a.sched.Progress() }

// Pause suspends dispatch of further moves; workers already mid-game idle between moves until
// Unpause clears the flag (spec §4.7 Pause).
func (a *Arbiter) Pause() { a.pause.Store(true) }

// Unpause clears a previously set pause flag.
func (a *Arbiter) Unpause() { a.pause.Store(false) }

// Stop requests cancellation: the run loop stops popping new games, every live supervisor is
// force-killed so any in-flight wait unblocks immediately, and Start returns once all workers have
// exited (spec §4.7 Stop, spec §5 "stop also force-kills engine subprocesses").
func (a *Arbiter) Stop() {
	a.stop.Store(true)

	a.mu.Lock()
	procs := make([]*supervisor.Process, 0, len(a.live))
	for p := range a.live {
		procs = append(procs, p)
	}
	a.mu.Unlock()

	for _, p := range procs {
		_ = p.Kill()
	}
}

// UpdateRemainingRounds live-reconfigures every pairing's remaining round count (spec §4.6/§4.7),
// returning the games removed and added so a caller can mirror them as schedule-update events.
func (a *Arbiter) UpdateRemainingRounds(k int) (removed, added []*schedule.Game) {
	return a.sched.UpdateRemainingRounds(k)
}

// Start runs the tournament to completion: the dispatch loop pops Pending games under a
// concurrency semaphore until the queue is empty and no worker is live, or Stop is observed (spec
// §4.7 Start/Worker). A panic inside the top-level run is recovered and surfaced as a
// critical-error toast (SUPPLEMENTED FEATURES #4) rather than crashing the caller.
func (a *Arbiter) Start(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("critical error: %v", r)
			logw.Errorf(ctx, "arbiter: %v", msg)
			trySend(a.events.Toasts, Toast{Message: msg, CriticalError: true})
			err = fmt.Errorf("arbiter: %v", msg)
		}
	}()

	sem := make(chan struct{}, a.cfg.Concurrency)
	done := make(chan struct{}, a.cfg.Concurrency)
	var live atomic.Int64

	for {
		if a.stop.Load() {
			break
		}
		g, ok := a.sched.Pop()
		if !ok {
			if live.Load() == 0 {
				break
			}
			<-done
			continue
		}

		if a.skipIfDisabled(g) {
			continue
		}

		sem <- struct{}{}
		live.Add(1)
		a.wg.Add(1)
		go func(g *schedule.Game) {
			defer func() {
				<-sem
				live.Add(-1)
				select {
				case done <- struct{}{}:
				default: // a wake-up is already pending
				}
				a.wg.Done()
			}()
			defer func() {
				if r := recover(); r != nil {
					msg := fmt.Sprintf("critical error: %v", r)
					logw.Errorf(ctx, "arbiter: game %v: %v", g.ID, msg)
					a.sched.MarkAborted(g)
					trySend(a.events.Toasts, Toast{GameID: g.ID, HasGameID: true, Message: msg, CriticalError: true})
				}
			}()
			a.runWorker(ctx, g)
		}(g)
	}

	a.wg.Wait()
	a.persistOrDelete()
	return nil
}

func (a *Arbiter) skipIfDisabled(g *schedule.Game) bool {
	a.mu.Lock()
	whiteDisabled := a.disabled[a.engineIdentifier(g.WhiteEngineIdx)]
	blackDisabled := a.disabled[a.engineIdentifier(g.BlackEngineIdx)]
	a.mu.Unlock()

	if !whiteDisabled && !blackDisabled {
		return false
	}

	var result string
	switch {
	case whiteDisabled && blackDisabled:
		result = "1/2-1/2 (forfeit)"
	case whiteDisabled:
		result = "0-1 (forfeit)"
	default:
		result = "1-0 (forfeit)"
	}

	a.sched.MarkSkipped(g, result)
	a.agg.Record(g.WhiteEngineIdx, g.BlackEngineIdx, result)
	trySend(a.events.Schedule, schedule.ScheduledUpdate{Game: g})
	trySend(a.events.Tournament, a.agg.Snapshot())
	return true
}

func (a *Arbiter) runWorker(ctx context.Context, g *schedule.Game) {
	a.sched.MarkActive(g)
	trySend(a.events.Schedule, schedule.ScheduledUpdate{Game: g})

	white, whiteOK := a.spawn(ctx, g.WhiteEngineIdx)
	if !whiteOK {
		a.sched.MarkAborted(g)
		trySend(a.events.Schedule, schedule.ScheduledUpdate{Game: g})
		return
	}
	defer a.deregister(white.Process)
	defer white.Process.Quit(ctx, "quit")

	black, blackOK := a.spawn(ctx, g.BlackEngineIdx)
	if !blackOK {
		a.sched.MarkAborted(g)
		trySend(a.events.Schedule, schedule.ScheduledUpdate{Game: g})
		return
	}
	defer a.deregister(black.Process)
	defer black.Process.Quit(ctx, "quit")

	scheduleUpdates := make(chan gameloop.ScheduleUpdate, 1)
	gameCfg := gameloop.Config{
		TimeControl:  a.cfg.TimeControlValue(),
		Variant:      a.cfg.VariantKind(),
		Adjudication: a.cfg.AdjudicationValue(),
		Zobrist:      a.zt,
	}

	var moves []string
	movesSink := make(chan gameloop.GameUpdate, EventQueueSize)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for upd := range movesSink {
			if lm, ok := upd.LastMove.V(); ok {
				moves = append(moves, lm)
			}
			trySend(a.events.Moves, upd)
		}
	}()

	statsSink := make(chan gameloop.EngineStats, EventQueueSize)
	statsDone := make(chan struct{})
	go func() {
		defer close(statsDone)
		for s := range statsSink {
			trySend(a.events.Stats, s)
		}
	}()

	_ = gameloop.Play(ctx, g.ID, white, black, g.StartPos, gameCfg, movesSink, statsSink, scheduleUpdates, &a.stop, &a.pause)
	close(movesSink)
	close(statsSink)
	<-done
	<-statsDone

	upd := <-scheduleUpdates
	switch upd.Status {
	case gameloop.Finished:
		result := upd.Result.String()
		a.sched.MarkFinished(g, result)
		a.agg.Record(g.WhiteEngineIdx, g.BlackEngineIdx, result)
		a.recordPGN(g, result, moves)
	case gameloop.Aborted:
		a.sched.MarkAborted(g)
	}
	trySend(a.events.Schedule, schedule.ScheduledUpdate{Game: g})
	trySend(a.events.Tournament, a.agg.Snapshot())
	a.persistOrDelete()
}

func (a *Arbiter) recordPGN(g *schedule.Game, result string, moves []string) {
	if a.cfg.PGNPath == "" {
		return
	}
	tags := pgn.Tags{
		Event:    a.cfg.EventName,
		White:    g.White,
		Black:    g.Black,
		Result:   result,
		StartPos: g.StartPos,
	}
	if err := pgn.Append(a.cfg.PGNPath, tags, moves); err != nil {
		logw.Warningf(context.Background(), "arbiter: pgn append: %v", err)
	}
}

func (a *Arbiter) spawn(ctx context.Context, engineIdx int) (gameloop.Side, bool) {
	e := a.engines[engineIdx]
	proc, err := supervisor.Spawn(ctx, e.Path, e.Args...)
	if err != nil {
		a.recordSpawnFailure(e)
		return gameloop.Side{}, false
	}
	a.register(proc)

	opts := make([]gameloop.EngineOption, 0, len(e.Options))
	for _, o := range e.Options {
		opts = append(opts, gameloop.EngineOption{Name: o.Name, Value: o.Value})
	}
	return gameloop.Side{Process: proc, EngineIdx: engineIdx, Options: opts}, true
}

func (a *Arbiter) register(p *supervisor.Process) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[p] = true
}

func (a *Arbiter) deregister(p *supervisor.Process) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, p)
}

// recordSpawnFailure increments an engine's failure tally and auto-disables it once the tally
// reaches EngineSpawnFailureLimit (spec §4.7 Worker).
func (a *Arbiter) recordSpawnFailure(e tconfig.EngineConfig) {
	id := e.ID
	if id == "" {
		id = e.Name
	}

	a.mu.Lock()
	a.spawnFailures[id]++
	count := a.spawnFailures[id]
	disabled := count >= EngineSpawnFailureLimit
	if disabled {
		a.disabled[id] = true
	}
	a.mu.Unlock()

	trySend(a.events.Toasts, Toast{
		EngineID:     id,
		EngineName:   e.Name,
		Message:      fmt.Sprintf("failed to spawn %v", e.Path),
		FailureCount: count,
		Disabled:     disabled,
	})
}

func (a *Arbiter) persistOrDelete() {
	if a.cfg.ResumeStatePath == "" {
		return
	}
	_, remaining := a.sched.Progress()
	if remaining == 0 {
		_ = resume.Delete(a.cfg.ResumeStatePath)
		return
	}
	if err := resume.Save(a.cfg.ResumeStatePath, a.cfg, a.sched.All()); err != nil {
		logw.Warningf(context.Background(), "arbiter: snapshot save: %v", err)
	}
}
