package schedule_test

import (
	"testing"

	"github.com/herohde/morlock/pkg/pairing"
	"github.com/herohde/morlock/pkg/schedule"
	"github.com/herohde/morlock/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(idx int) string {
	return []string{"A", "B"}[idx]
}

func TestQueue_MatchSwapSides(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.Match, 2),
		GamesPerPairing: 2,
		SwapSides:       true,
		Variant:         variant.Standard,
		Names:           names,
	})

	g1, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, g1.ID)
	assert.Equal(t, "A", g1.White)
	assert.Equal(t, "B", g1.Black)

	g2, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, g2.ID)
	assert.Equal(t, "B", g2.White)
	assert.Equal(t, "A", g2.Black)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueue_RoundRobin(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.RoundRobin, 3),
		GamesPerPairing: 1,
		Variant:         variant.Standard,
		Names:           func(i int) string { return []string{"A", "B", "C"}[i] },
	})
	assert.Len(t, q.All(), 3)
}

func TestQueue_UpdateRemainingRounds_Idempotent(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.Match, 2),
		GamesPerPairing: 2,
		Variant:         variant.Standard,
		Names:           names,
	})

	removed, added := q.UpdateRemainingRounds(5)
	assert.Empty(t, removed)
	assert.Len(t, added, 3)

	removed, added = q.UpdateRemainingRounds(5)
	assert.Empty(t, removed)
	assert.Empty(t, added)
}

func TestQueue_UpdateRemainingRounds_Shrink(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.Match, 2),
		GamesPerPairing: 4,
		Variant:         variant.Standard,
		Names:           names,
	})

	removed, added := q.UpdateRemainingRounds(2)
	assert.Empty(t, added)
	require.Len(t, removed, 2)
	for _, g := range removed {
		assert.Equal(t, schedule.Removed, g.State)
	}
	assert.Equal(t, 3, removed[0].ID) // the two most recently enqueued are removed, in enqueue order
	assert.Equal(t, 4, removed[1].ID)
}

func TestQueue_Dispatch_Lifecycle(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.Match, 2),
		GamesPerPairing: 1,
		Variant:         variant.Standard,
		Names:           names,
	})
	g, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, schedule.Pending, g.State)

	q.MarkActive(g)
	assert.Equal(t, schedule.Active, g.State)

	q.MarkFinished(g, "1-0")
	assert.Equal(t, schedule.Finished, g.State)
	assert.Equal(t, "1-0", g.Result)
}

func TestFromSnapshot_RevertsActive(t *testing.T) {
	q := schedule.New(schedule.Config{
		Pairs:           pairing.Generate(pairing.Match, 2),
		GamesPerPairing: 2,
		Variant:         variant.Standard,
		Names:           names,
	})
	g1, _ := q.Pop()
	q.MarkActive(g1)

	snap := q.All()
	q2 := schedule.FromSnapshot(snap, schedule.Config{Variant: variant.Standard, Names: names})

	g, ok := q2.Pop()
	require.True(t, ok)
	assert.Equal(t, g1.ID, g.ID)
	assert.Equal(t, schedule.Pending, g.State)
}
