// Package pairing generates the ordered engine pairs for a tournament mode (spec §4.5). It knows
// nothing about games, clocks, or scheduling -- only which engine indices face each other, and in
// what order.
package pairing

import "fmt"

// Mode selects how the engine list is paired up.
type Mode int

const (
	Match Mode = iota
	Gauntlet
	RoundRobin
)

func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "match", "Match":
		return Match, true
	case "gauntlet", "Gauntlet":
		return Gauntlet, true
	case "round-robin", "roundrobin", "RoundRobin", "round_robin":
		return RoundRobin, true
	default:
		return Match, false
	}
}

func (m Mode) String() string {
	switch m {
	case Match:
		return "match"
	case Gauntlet:
		return "gauntlet"
	case RoundRobin:
		return "round-robin"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Pair is an ordered engine pair, by index into the tournament's engine list.
type Pair struct {
	A, B int
}

// Generate returns the pairs for the given mode over n engines, in the order spec §4.5 defines:
//
//	Match:      the single pair (0, 1)
//	Gauntlet:   (0, i) for i in 1..n-1, in order
//	RoundRobin: (i, j) for 0 <= i < j < n, lexicographic
func Generate(mode Mode, n int) []Pair {
	switch mode {
	case Match:
		if n < 2 {
			return nil
		}
		return []Pair{{0, 1}}

	case Gauntlet:
		if n < 2 {
			return nil
		}
		pairs := make([]Pair, 0, n-1)
		for i := 1; i < n; i++ {
			pairs = append(pairs, Pair{0, i})
		}
		return pairs

	case RoundRobin:
		var pairs []Pair
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, Pair{i, j})
			}
		}
		return pairs

	default:
		return nil
	}
}
