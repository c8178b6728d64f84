// Package variant wraps pkg/board behind a uniform, variant-agnostic surface, as required by
// callers that must not care whether a game started from the standard initial position or a
// randomized back-rank arrangement.
package variant

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/herohde/morlock/pkg/board"
	"github.com/herohde/morlock/pkg/board/fen"
)

// Variant identifies the starting-position scheme for a game.
type Variant int

const (
	Standard Variant = iota
	RandomizedBackRank
)

func ParseVariant(s string) (Variant, bool) {
	switch strings.ToLower(s) {
	case "", "standard":
		return Standard, true
	case "randomized-back-rank", "randomized_back_rank", "randomizedbackrank":
		return RandomizedBackRank, true
	default:
		return Standard, false
	}
}

func (v Variant) String() string {
	if v == RandomizedBackRank {
		return "randomized-back-rank"
	}
	return "standard"
}

// GenerateStart returns a canonical position string for a fresh game under the variant.
func GenerateStart(v Variant, rng *rand.Rand) string {
	if v == RandomizedBackRank {
		return generateRandomizedBackRank(rng)
	}
	return fen.Initial
}

// generateRandomizedBackRank implements the Fischer-style shuffle: bishops on opposite-color
// squares chosen uniformly, the remaining files shuffled with queen+2 knights taking the first
// three assignments and rook-king-rook (in ascending file order) taking the last three, so the
// king always lies between its two rooks.
func generateRandomizedBackRank(rng *rand.Rand) string {
	var rank [8]rune // indexed by file A..H position 0..7 (left to right on the rank)

	// Files 0,2,4,6 (A,C,E,G) are "light"; 1,3,5,7 (B,D,F,H) are "dark" in this abstract
	// left-to-right sense -- any two files of opposite parity suffice to guarantee opposite
	// square colors for the two bishops, independent of the actual A-H/H-A numbering elsewhere.
	lightFiles := []int{0, 2, 4, 6}
	darkFiles := []int{1, 3, 5, 7}
	bishop1 := lightFiles[rng.Intn(len(lightFiles))]
	bishop2 := darkFiles[rng.Intn(len(darkFiles))]
	rank[bishop1] = 'b'
	rank[bishop2] = 'b'

	var remaining []int
	for i := 0; i < 8; i++ {
		if i != bishop1 && i != bishop2 {
			remaining = append(remaining, i)
		}
	}
	rng.Shuffle(len(remaining), func(i, j int) { remaining[i], remaining[j] = remaining[j], remaining[i] })

	rank[remaining[0]] = 'q'
	rank[remaining[1]] = 'n'
	rank[remaining[2]] = 'n'

	last := remaining[3:6]
	sortInts(last)
	rank[last[0]] = 'r'
	rank[last[1]] = 'k'
	rank[last[2]] = 'r'

	var black, white strings.Builder
	for i := 0; i < 8; i++ {
		black.WriteRune(rank[i])
		white.WriteRune(toUpper(rank[i]))
	}

	// Castling rights would properly be keyed to the generated rook files (spec §4.3), but
	// pkg/board's castling logic only recognizes the standard corner files (see DESIGN.md's
	// Chess960-castling scope decision); advertising "KQkq" here would claim rights on files
	// that are usually empty, so no castling rights are advertised for this start position.
	return fmt.Sprintf("%v/pppppppp/8/8/8/8/PPPPPPPP/%v w - - 0 1", black.String(), white.String())
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func toUpper(r rune) rune {
	return r - 'a' + 'A'
}

// Adapter wraps a *board.Board and the variant it was started under, presenting a uniform
// surface to callers that must not special-case the variant beyond generation and parsing.
type Adapter struct {
	variant Variant
	zt      *board.ZobristTable
	b       *board.Board
}

// NewAdapter constructs an Adapter from a canonical starting position string.
func NewAdapter(zt *board.ZobristTable, v Variant, posString string) (*Adapter, error) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(posString)
	if err != nil {
		return nil, fmt.Errorf("invalid starting position %q: %w", posString, err)
	}

	return &Adapter{
		variant: v,
		zt:      zt,
		b:       board.NewBoard(zt, pos, turn, noprogress, fullmoves),
	}, nil
}

func (a *Adapter) Variant() Variant {
	return a.variant
}

func (a *Adapter) Turn() board.Color {
	return a.b.Turn()
}

func (a *Adapter) NoProgress() int {
	return a.b.NoProgress()
}

func (a *Adapter) FullMoves() int {
	return a.b.FullMoves()
}

func (a *Adapter) LastMove() (board.Move, bool) {
	return a.b.LastMove()
}

// PositionString encodes the current position in canonical (FEN) notation.
func (a *Adapter) PositionString() string {
	return fen.Encode(a.b.Position(), a.b.Turn(), a.b.NoProgress(), a.b.FullMoves())
}

// RepetitionKey returns the first four space-separated fields of the canonical position string:
// piece placement, side-to-move, castling rights, en passant target. Two positions with the same
// key are identical under the threefold-repetition rule.
func (a *Adapter) RepetitionKey() string {
	fields := strings.SplitN(a.PositionString(), " ", 5)
	if len(fields) < 4 {
		return a.PositionString()
	}
	return strings.Join(fields[:4], " ")
}

// HasInsufficientMaterial reports whether neither side retains enough material to force mate.
func (a *Adapter) HasInsufficientMaterial() bool {
	return a.b.Position().HasInsufficientMaterial()
}

// IsGameOver reports whether the game has already reached a terminal result, either because the
// rules engine adjudicated one (checkmate, stalemate, repetition, ...) or because the side to
// move has no legal moves and the caller has not yet adjudicated that fact.
func (a *Adapter) IsGameOver() (board.Result, bool) {
	if r := a.b.Result(); r.Outcome != board.Undecided {
		return r, true
	}
	if len(a.b.Position().LegalMoves(a.b.Turn())) == 0 {
		return a.b.AdjudicateNoLegalMoves(), true
	}
	return board.Result{}, false
}

// Adjudicate forces a terminal result, e.g. from a resign/draw-score heuristic, a timeout, or an
// illegal-move forfeit, none of which the rules engine itself can detect.
func (a *Adapter) Adjudicate(outcome board.Outcome, reason board.Reason) board.Result {
	result := board.Result{Outcome: outcome, Reason: reason}
	a.b.Adjudicate(result)
	return result
}

// ParseMove parses a coordinate-notation move token (e.g. "e2e4", "e7e8q") and resolves it
// against the legal moves of the current position, so the returned Move carries full contextual
// metadata (type, piece, capture). Returns false if the token is malformed or illegal.
func (a *Adapter) ParseMove(token string) (board.Move, bool) {
	if token == "0000" {
		return board.Move{}, false
	}

	candidate, err := board.ParseMove(token)
	if err != nil {
		return board.Move{}, false
	}

	for _, m := range a.b.Position().LegalMoves(a.b.Turn()) {
		if m.Equals(candidate) {
			return m, true
		}
	}
	return board.Move{}, false
}

// Push applies a legal move, updating draw/repetition bookkeeping. Returns false if the move is
// not legal in the current position.
func (a *Adapter) Push(m board.Move) bool {
	return a.b.PushMove(m)
}
