// Package stats implements the Statistics Aggregator of spec §4.8: head-to-head counters, Elo
// estimation with confidence interval, Sonneborn-Berger standings, and the Sequential Probability
// Ratio Test.
package stats

import "sync"

// TournamentStats is the outbound "tournament-stats" event snapshot of spec §3/§6.
type TournamentStats struct {
	Wins, Losses, Draws, TotalGames int
	Elo                             float64
	ErrorMargin                     float64

	SPRTEnabled bool
	SPRT        SPRTStatus

	Standings []Standing
}

// Aggregator accumulates every completed game of a tournament and produces TournamentStats
// snapshots on demand. EngineA/EngineB head-to-head tracking assumes a two-engine Match/Gauntlet
// perspective; Standings works for any number of engines via ComputeStandings.
type Aggregator struct {
	mu sync.Mutex

	numEngines int
	engineAIdx int // the engine whose perspective Wins/Losses/Draws/Elo are reported from

	h2h    HeadToHead
	sprt   *SPRT
	games  []GameRecord
}

// New constructs an Aggregator for a tournament of numEngines engines. engineAIdx identifies which
// engine's perspective the head-to-head/Elo/SPRT figures are reported from (conventionally engine
// index 0, the first-listed engine). sprtCfg may be nil to disable SPRT tracking.
func New(numEngines, engineAIdx int, sprtCfg *SPRTConfig) *Aggregator {
	a := &Aggregator{numEngines: numEngines, engineAIdx: engineAIdx}
	if sprtCfg != nil {
		a.sprt = NewSPRT(*sprtCfg)
	}
	return a
}

// Record updates the aggregator with one finished game's result (spec §4.8).
func (a *Aggregator) Record(white, black int, result string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.games = append(a.games, GameRecord{White: white, Black: black, Result: result})

	if white == a.engineAIdx || black == a.engineAIdx {
		isWhiteA := white == a.engineAIdx
		a.h2h.Update(result, isWhiteA)

		if a.sprt != nil {
			a.sprt.Update(gameResultFor(result, isWhiteA))
		}
	}
}

func gameResultFor(result string, isWhiteA bool) GameResult {
	switch outcomeOf(result) {
	case "1-0":
		if isWhiteA {
			return Win
		}
		return Loss
	case "0-1":
		if isWhiteA {
			return Loss
		}
		return Win
	default:
		return Draw
	}
}

// Snapshot returns the current aggregate statistics.
func (a *Aggregator) Snapshot() TournamentStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	elo, margin := EloEstimate(a.h2h.Wins, a.h2h.Draws, a.h2h.Total)
	stats := TournamentStats{
		Wins:        a.h2h.Wins,
		Losses:      a.h2h.Losses,
		Draws:       a.h2h.Draws,
		TotalGames:  a.h2h.Total,
		Elo:         elo,
		ErrorMargin: margin,
		Standings:   ComputeStandings(a.numEngines, a.games),
	}
	if a.sprt != nil {
		stats.SPRTEnabled = true
		stats.SPRT = a.sprt.Status()
	}
	return stats
}
