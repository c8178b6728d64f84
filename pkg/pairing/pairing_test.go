package pairing_test

import (
	"testing"

	"github.com/herohde/morlock/pkg/pairing"
	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		mode pairing.Mode
		n    int
		want []pairing.Pair
	}{
		{pairing.Match, 2, []pairing.Pair{{0, 1}}},
		{pairing.Match, 1, nil},
		{pairing.Gauntlet, 4, []pairing.Pair{{0, 1}, {0, 2}, {0, 3}}},
		{pairing.RoundRobin, 3, []pairing.Pair{{0, 1}, {0, 2}, {1, 2}}},
		{pairing.RoundRobin, 1, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pairing.Generate(tt.mode, tt.n))
	}
}

func TestParseMode(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want pairing.Mode
		ok   bool
	}{
		{"match", pairing.Match, true},
		{"gauntlet", pairing.Gauntlet, true},
		{"round-robin", pairing.RoundRobin, true},
		{"bogus", pairing.Match, false},
	} {
		got, ok := pairing.ParseMode(tt.in)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}
