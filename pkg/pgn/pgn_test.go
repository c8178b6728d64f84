package pgn_test

import (
	"strings"
	"testing"

	"github.com/herohde/morlock/pkg/board/fen"
	"github.com/herohde/morlock/pkg/pgn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteGame_Standard(t *testing.T) {
	var sb strings.Builder
	err := pgn.WriteGame(&sb, pgn.Tags{
		Event: "Test Match", Date: "2026.07.31", Round: "1",
		White: "Engine A", Black: "Engine B", Result: "1-0",
		StartPos: fen.Initial,
	}, []string{"e2e4", "e7e5", "g1f3"})
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "[Site \"CCRL GUI\"]")
	assert.NotContains(t, out, "[FEN")
	assert.Contains(t, out, "1. e2e4 e7e5 2. g1f3 1-0")
}

func TestWriteGame_NonStandardStart(t *testing.T) {
	var sb strings.Builder
	err := pgn.WriteGame(&sb, pgn.Tags{
		Result:   "1/2-1/2",
		StartPos: "bnrqkrnb/pppppppp/8/8/8/8/PPPPPPPP/BNRQKRNB w FCfc - 0 1",
	}, nil)
	require.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, "[FEN \"bnrqkrnb")
	assert.Contains(t, out, "[SetUp \"1\"]")
}
