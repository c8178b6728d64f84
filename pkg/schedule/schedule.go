// Package schedule materializes a tournament's pairings into an ordered queue of scheduled games
// (spec §4.6), tracks each game's lifecycle, and supports live reconfiguration of the number of
// rounds remaining per pairing.
package schedule

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/herohde/morlock/pkg/pairing"
	"github.com/herohde/morlock/pkg/variant"
)

// State is the lifecycle state of a ScheduledGame (spec §3).
type State int

const (
	Pending State = iota
	Active
	Finished
	Aborted
	Skipped
	Removed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Active:
		return "Active"
	case Finished:
		return "Finished"
	case Aborted:
		return "Aborted"
	case Skipped:
		return "Skipped"
	case Removed:
		return "Removed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether the state is one of the four terminal states spec §3 names.
func (s State) IsTerminal() bool {
	return s == Finished || s == Aborted || s == Skipped || s == Removed
}

// Game is a single scheduled match between two engines, materialized from a pairing and a game
// ordinal within that pairing (spec §3 ScheduledGame).
type Game struct {
	ID                             int                   `json:"id"`
	White                          string                `json:"white,omitempty"`
	Black                          string                `json:"black,omitempty"`
	WhiteEngineIdx                 int                    `json:"white_engine_idx"`
	BlackEngineIdx                 int                    `json:"black_engine_idx"`
	PairA                          int                    `json:"pair_a"`
	PairB                          int                    `json:"pair_b"`
	Ordinal                        int                    `json:"ordinal"`
	StartPos                       string                 `json:"start_pos"`
	State                          State                  `json:"state"`
	Result                         string                `json:"result,omitempty"`
}

// ScheduledUpdate is the outbound "schedule-update" event of spec §6: a snapshot of one game's
// current state, sent whenever the Arbiter transitions it.
type ScheduledUpdate struct {
	Game *Game
}

// track holds the per-pairing bookkeeping needed to grow/shrink a pairing's remaining rounds and
// to compute colors/openings for newly materialized games, without re-deriving them from scratch.
type track struct {
	a, b        int
	nextOrdinal int
	pendingIDs  []int // FIFO, oldest first
	dispatched  int
}

// EngineNamer resolves an engine index to its display name.
type EngineNamer func(idx int) string

// Queue owns the full set of scheduled games for a tournament run and the pending-dispatch order.
// All mutating operations are atomic with respect to Pop, matching spec §4.6/§4.7's requirement
// that live reconfiguration is atomic with respect to dispatch.
type Queue struct {
	mu sync.Mutex

	nextID int

	games   map[int]*Game
	order   []int // all IDs, in creation order
	tracks  []*track
	pending []int // global FIFO of pending IDs, across all pairings

	swapSides bool
	openings  []string
	literal   string
	v         variant.Variant
	rng       *rand.Rand
	names     EngineNamer
}

// Config bundles the parameters needed to materialize a fresh schedule.
type Config struct {
	Pairs           []pairing.Pair
	GamesPerPairing int
	SwapSides       bool
	Openings        []string // loaded opening-book positions, if any
	Literal         string   // configured literal starting position, if non-empty
	Variant         variant.Variant
	Rand            *rand.Rand
	Names           EngineNamer
}

// New materializes a fresh queue from a tournament configuration (spec §4.7 Start "fresh" path).
func New(cfg Config) *Queue {
	q := &Queue{
		games:     map[int]*Game{},
		swapSides: cfg.SwapSides,
		openings:  cfg.Openings,
		literal:   cfg.Literal,
		v:         cfg.Variant,
		rng:       cfg.Rand,
		names:     cfg.Names,
	}
	for _, p := range cfg.Pairs {
		t := &track{a: p.A, b: p.B}
		q.tracks = append(q.tracks, t)
		q.grow(t, cfg.GamesPerPairing)
	}
	return q
}

// startPos chooses the starting position for a game ordinal, per spec §4.6: if an opening list is
// loaded, index floor(ordinal/2) when swap-sides else ordinal, modulo list length; else the
// configured literal if non-empty; else generate one from the variant.
func (q *Queue) startPos(ordinal int) string {
	if len(q.openings) > 0 {
		idx := ordinal
		if q.swapSides {
			idx = ordinal / 2
		}
		return q.openings[idx%len(q.openings)]
	}
	if q.literal != "" {
		return q.literal
	}
	return variant.GenerateStart(q.v, q.rng)
}

// colors chooses which pairing engine plays white, per spec §4.6: reversed on odd ordinals when
// swap-sides is enabled.
func (q *Queue) colors(t *track, ordinal int) (white, black int) {
	if q.swapSides && ordinal%2 == 1 {
		return t.b, t.a
	}
	return t.a, t.b
}

func (q *Queue) name(idx int) string {
	if q.names != nil {
		return q.names(idx)
	}
	return fmt.Sprintf("engine-%d", idx)
}

// grow appends n fresh Pending games to the pairing, continuing its ordinal counter.
func (q *Queue) grow(t *track, n int) []*Game {
	added := make([]*Game, 0, n)
	for i := 0; i < n; i++ {
		ordinal := t.nextOrdinal
		t.nextOrdinal++

		white, black := q.colors(t, ordinal)

		q.nextID++
		g := &Game{
			ID:             q.nextID,
			White:          q.name(white),
			Black:          q.name(black),
			WhiteEngineIdx: white,
			BlackEngineIdx: black,
			PairA:          t.a,
			PairB:          t.b,
			Ordinal:        ordinal,
			StartPos:       q.startPos(ordinal),
			State:          Pending,
		}
		q.games[g.ID] = g
		q.order = append(q.order, g.ID)
		t.pendingIDs = append(t.pendingIDs, g.ID)
		q.pending = append(q.pending, g.ID)
		added = append(added, g)
	}
	return added
}

// UpdateRemainingRounds adjusts every pairing's pending tail so that pending+dispatched == k for
// each pairing (spec §4.6). Shrinking a pairing removes its most-recently-enqueued Pending games,
// transitioning them to Removed; growing appends fresh Pending games. Calling this twice with the
// same k is a no-op the second time, because the per-pairing delta is then zero. Returns the games
// that transitioned to Removed, for the caller to emit as schedule-update events; newly-grown
// Pending games are also returned so the caller can emit those too.
func (q *Queue) UpdateRemainingRounds(k int) (removed, added []*Game) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tracks {
		current := t.dispatched + len(t.pendingIDs)
		switch {
		case k > current:
			added = append(added, q.grow(t, k-current)...)
		case k < current:
			n := current - k
			if n > len(t.pendingIDs) {
				n = len(t.pendingIDs)
			}
			if n == 0 {
				continue
			}
			cut := len(t.pendingIDs) - n
			toRemove := t.pendingIDs[cut:]
			t.pendingIDs = t.pendingIDs[:cut]

			removeSet := map[int]bool{}
			for _, id := range toRemove {
				removeSet[id] = true
				g := q.games[id]
				g.State = Removed
				removed = append(removed, g)
			}
			q.pending = filterOut(q.pending, removeSet)
		}
	}
	return removed, added
}

func filterOut(ids []int, remove map[int]bool) []int {
	out := ids[:0:0]
	for _, id := range ids {
		if !remove[id] {
			out = append(out, id)
		}
	}
	return out
}

func (q *Queue) trackFor(g *Game) *track {
	for _, t := range q.tracks {
		if t.a == g.PairA && t.b == g.PairB {
			return t
		}
	}
	return nil
}

// Pop removes and returns the earliest-enqueued Pending game, still in state Pending; the caller
// (the Arbiter) decides whether to dispatch it (MarkActive) or skip it (MarkSkipped) before any
// other goroutine can observe it, since it is no longer in the pending queue either way.
func (q *Queue) Pop() (*Game, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}
	id := q.pending[0]
	q.pending = q.pending[1:]

	g := q.games[id]
	if t := q.trackFor(g); t != nil {
		t.dispatched++
		for i, pid := range t.pendingIDs {
			if pid == id {
				t.pendingIDs = append(t.pendingIDs[:i], t.pendingIDs[i+1:]...)
				break
			}
		}
	}
	return g, true
}

// MarkActive transitions a popped game to Active; only the owning worker may do this.
func (q *Queue) MarkActive(g *Game) {
	q.mu.Lock()
	defer q.mu.Unlock()
	g.State = Active
}

// MarkFinished transitions an Active game to Finished with the given result.
func (q *Queue) MarkFinished(g *Game, result string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	g.State = Finished
	g.Result = result
}

// MarkAborted transitions a game (Pending or Active) to Aborted, crediting no result.
func (q *Queue) MarkAborted(g *Game) {
	q.mu.Lock()
	defer q.mu.Unlock()
	g.State = Aborted
}

// MarkSkipped transitions a popped Pending game directly to Skipped with a forfeit result, because
// one or both participants are disabled (spec §4.7 Skip-disabled).
func (q *Queue) MarkSkipped(g *Game, result string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	g.State = Skipped
	g.Result = result
}

// IsEmpty reports whether there are no more Pending games to dispatch.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0
}

// All returns every scheduled game, in creation order. The slice is a snapshot; mutating the
// returned Games is safe only via the Queue's Mark* methods, not by writing fields directly from
// outside the package while the tournament is live.
func (q *Queue) All() []*Game {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Game, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.games[id])
	}
	return out
}

// Progress returns the count of non-Removed games and how many of those are non-terminal,
// matching the taskbar-style progress tracker of SPEC_FULL's supplemented-features list.
func (q *Queue) Progress() (total, remaining int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, id := range q.order {
		g := q.games[id]
		if g.State == Removed {
			continue
		}
		total++
		if !g.State.IsTerminal() {
			remaining++
		}
	}
	return total, remaining
}

// FromSnapshot rebuilds a Queue from a persisted set of games (spec §4.7 Resume), reverting any
// Active entry to Pending because the previous run may have crashed mid-game. The pairing tracks
// are reconstructed from the distinct (PairA, PairB) values observed, in first-seen order.
func FromSnapshot(games []*Game, cfg Config) *Queue {
	q := &Queue{
		games:     map[int]*Game{},
		swapSides: cfg.SwapSides,
		openings:  cfg.Openings,
		literal:   cfg.Literal,
		v:         cfg.Variant,
		rng:       cfg.Rand,
		names:     cfg.Names,
	}

	byPair := map[[2]int]*track{}
	for _, g := range games {
		if g.State == Active {
			g.State = Pending
			g.Result = ""
		}

		key := [2]int{g.PairA, g.PairB}
		t, ok := byPair[key]
		if !ok {
			t = &track{a: g.PairA, b: g.PairB}
			byPair[key] = t
			q.tracks = append(q.tracks, t)
		}
		if g.Ordinal+1 > t.nextOrdinal {
			t.nextOrdinal = g.Ordinal + 1
		}
		if g.State == Pending {
			t.pendingIDs = append(t.pendingIDs, g.ID)
			q.pending = append(q.pending, g.ID)
		} else if g.State.IsTerminal() && g.State != Removed {
			t.dispatched++
		}

		q.games[g.ID] = g
		q.order = append(q.order, g.ID)
		if g.ID > q.nextID {
			q.nextID = g.ID
		}
	}
	return q
}
