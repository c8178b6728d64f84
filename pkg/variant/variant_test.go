package variant_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/herohde/morlock/pkg/board"
	"github.com/herohde/morlock/pkg/variant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStartStandard(t *testing.T) {
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", variant.GenerateStart(variant.Standard, rand.New(rand.NewSource(1))))
}

func TestGenerateRandomizedBackRank(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		pos := variant.GenerateStart(variant.RandomizedBackRank, rng)

		fields := strings.Split(pos, " ")
		require.Len(t, fields, 6)

		rank := strings.Split(fields[0], "/")[0]
		require.Len(t, rank, 8)

		bishops := make([]int, 0, 2)
		var kingAt, rook1, rook2 = -1, -1, -1
		for f, r := range rank {
			switch r {
			case 'b':
				bishops = append(bishops, f)
			case 'k':
				kingAt = f
			case 'r':
				if rook1 == -1 {
					rook1 = f
				} else {
					rook2 = f
				}
			}
		}

		require.Len(t, bishops, 2)
		assert.NotEqual(t, bishops[0]%2, bishops[1]%2, "bishops must be on opposite-color squares")
		assert.True(t, rook1 < kingAt && kingAt < rook2, "king must lie between its two rooks")
	}
}

func TestAdapterParseAndPushMove(t *testing.T) {
	zt := board.NewZobristTable(1)
	_, err := variant.NewAdapter(zt, variant.Standard, "not-a-fen")
	require.Error(t, err)

	a, err := variant.NewAdapter(zt, variant.Standard, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	m, ok := a.ParseMove("e2e4")
	require.True(t, ok)
	assert.Equal(t, board.Jump, m.Type)

	assert.True(t, a.Push(m))
	assert.Equal(t, board.Black, a.Turn())

	_, over := a.IsGameOver()
	assert.False(t, over)

	_, ok = a.ParseMove("0000")
	assert.False(t, ok)
}

func TestRepetitionKey(t *testing.T) {
	zt := board.NewZobristTable(1)
	a, err := variant.NewAdapter(zt, variant.Standard, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	key := a.RepetitionKey()
	assert.Equal(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq", key)
}
