package stats_test

import (
	"math"
	"testing"

	"github.com/herohde/morlock/pkg/stats"
	"github.com/stretchr/testify/assert"
)

func TestEloEstimate_Boundaries(t *testing.T) {
	delta, margin := stats.EloEstimate(0, 0, 10)
	assert.Equal(t, -1000.0, delta)
	assert.Equal(t, 0.0, margin)

	delta, margin = stats.EloEstimate(10, 0, 10)
	assert.Equal(t, 1000.0, delta)
	assert.Equal(t, 0.0, margin)

	delta, margin = stats.EloEstimate(5, 0, 10)
	assert.InDelta(t, 0, delta, 1e-9)
	assert.Greater(t, margin, 0.0)
}

func TestSPRT_EqualHypotheses(t *testing.T) {
	sprt := stats.NewSPRT(stats.SPRTConfig{H0Elo: 0, H1Elo: 0, DrawRatio: 0.5, Alpha: 0.05, Beta: 0.05})
	status := sprt.Update(stats.Win)
	status = sprt.Update(stats.Loss)
	status = sprt.Update(stats.Draw)
	assert.InDelta(t, 0, status.LLR, 1e-9)
	assert.Equal(t, stats.Continue, status.State)
}

func TestSPRT_Bounds(t *testing.T) {
	sprt := stats.NewSPRT(stats.SPRTConfig{H0Elo: 0, H1Elo: 10, DrawRatio: 0.5, Alpha: 0.05, Beta: 0.05})
	status := sprt.Status()
	assert.InDelta(t, -2.9444, status.LowerBound, 1e-3)
	assert.InDelta(t, 2.9444, status.UpperBound, 1e-3)
}

func TestHeadToHead(t *testing.T) {
	var h stats.HeadToHead
	h.Update("1-0", true)
	h.Update("0-1", true)
	h.Update("1/2-1/2", true)
	h.Update("1-0 (forfeit)", false)
	assert.Equal(t, 1, h.Wins)
	assert.Equal(t, 2, h.Losses)
	assert.Equal(t, 1, h.Draws)
	assert.Equal(t, 4, h.Total)
}

func TestComputeStandings_RoundRobin(t *testing.T) {
	games := []stats.GameRecord{
		{White: 0, Black: 1, Result: "1-0"},
		{White: 0, Black: 2, Result: "1/2-1/2"},
		{White: 1, Black: 2, Result: "0-1"},
	}
	standings := stats.ComputeStandings(3, games)
	assert.Len(t, standings, 3)
	assert.Equal(t, 1, standings[0].Rank)
	// Engines 0 and 2 both have 1.5 points, SB 0.75 and one win; the stable sort keeps engine 0 first.
	assert.Equal(t, 0, standings[0].EngineIdx)
	assert.InDelta(t, 1.5, standings[0].Points, 1e-9)
}

func TestAggregator(t *testing.T) {
	a := stats.New(2, 0, &stats.SPRTConfig{H0Elo: 0, H1Elo: 5, DrawRatio: 0.5, Alpha: 0.05, Beta: 0.05})
	a.Record(0, 1, "1-0")
	a.Record(1, 0, "0-1")
	a.Record(0, 1, "1/2-1/2")

	snap := a.Snapshot()
	assert.Equal(t, 2, snap.Wins)
	assert.Equal(t, 0, snap.Losses)
	assert.Equal(t, 1, snap.Draws)
	assert.Equal(t, 3, snap.TotalGames)
	assert.True(t, snap.SPRTEnabled)
	assert.False(t, math.IsNaN(snap.Elo))
}
