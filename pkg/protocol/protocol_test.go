package protocol_test

import (
	"testing"

	"github.com/herohde/morlock/pkg/protocol"
	"github.com/stretchr/testify/assert"
)

func TestParseInfo(t *testing.T) {
	info, ok := protocol.ParseInfo("info depth 12 seldepth 18 nodes 123456 nps 987654 score cp 34 pv e2e4 e7e5 g1f3")
	assert.True(t, ok)
	assert.Equal(t, 12, info.Depth)
	assert.EqualValues(t, 123456, info.Nodes)
	assert.EqualValues(t, 987654, info.Nps)
	assert.True(t, info.HasScoreCP)
	assert.Equal(t, 34, info.ScoreCP)
	assert.False(t, info.HasScoreMate)
	assert.Equal(t, []string{"e2e4", "e7e5", "g1f3"}, info.PV)
}

func TestParseInfoMateScore(t *testing.T) {
	info, ok := protocol.ParseInfo("info depth 5 score mate 3 pv f7f5")
	assert.True(t, ok)
	assert.True(t, info.HasScoreMate)
	assert.Equal(t, 3, info.ScoreMate)
	assert.False(t, info.HasScoreCP)
}

func TestParseInfoMissingFieldsDefaultToZero(t *testing.T) {
	info, ok := protocol.ParseInfo("info string some diagnostic text")
	assert.True(t, ok)
	assert.Equal(t, 0, info.Depth)
	assert.Nil(t, info.PV)
}

func TestParseInfoRejectsOtherLines(t *testing.T) {
	_, ok := protocol.ParseInfo("bestmove e2e4")
	assert.False(t, ok)
}

func TestNormalizeMateScore(t *testing.T) {
	assert.Equal(t, 29997, protocol.NormalizeMateScore(3))
	assert.Equal(t, -29997, protocol.NormalizeMateScore(-3))
}

func TestParseBestMove(t *testing.T) {
	bm, ok := protocol.ParseBestMove("bestmove e2e4 ponder e7e5")
	assert.True(t, ok)
	assert.Equal(t, "e2e4", bm.Move)
	assert.True(t, bm.HasPonder)
	assert.Equal(t, "e7e5", bm.Ponder)
}

func TestParseBestMoveWithoutPonder(t *testing.T) {
	bm, ok := protocol.ParseBestMove("bestmove e2e4")
	assert.True(t, ok)
	assert.Equal(t, "e2e4", bm.Move)
	assert.False(t, bm.HasPonder)
}

func TestParseOptionWithSpacesInName(t *testing.T) {
	opt, ok := protocol.ParseOption("option name UCI_Show Refutations type check default false")
	assert.True(t, ok)
	assert.Equal(t, "UCI_Show Refutations", opt.Name)
	assert.Equal(t, "check", opt.Type)
	assert.Equal(t, "false", opt.Default)
}

func TestParseOptionMinMaxVar(t *testing.T) {
	opt, ok := protocol.ParseOption("option name Hash type spin default 32 min 1 max 4096")
	assert.True(t, ok)
	assert.Equal(t, "Hash", opt.Name)
	assert.Equal(t, "spin", opt.Type)
	assert.Equal(t, "32", opt.Default)
	assert.Equal(t, "1", opt.Min)
	assert.Equal(t, "4096", opt.Max)

	opt2, ok := protocol.ParseOption("option name Style type combo default Normal var Solid var Normal var Risky")
	assert.True(t, ok)
	assert.Equal(t, []string{"Solid", "Normal", "Risky"}, opt2.Vars)
	assert.Equal(t, "Normal", opt2.Default)
}

func TestParseOptionRejectsMalformedLine(t *testing.T) {
	_, ok := protocol.ParseOption("option name")
	assert.False(t, ok)

	_, ok = protocol.ParseOption("info depth 1")
	assert.False(t, ok)
}
