package stats

import "math"

// EloEstimate computes the Elo point estimate and 95% confidence margin from a score fraction
// over N games, per spec §4.8:
//
//	p = (W + D/2) / N
//	delta = -400 * log10(1/p - 1)              for 0 < p < 1, else +-1000 with margin 0
//	Var(X) = (W + D/4)/N - p^2
//	SE_p = sqrt(Var/N)
//	slope = 400 / (ln(10) * p * (1-p))
//	margin = 1.96 * SE_p * slope
func EloEstimate(wins, draws, total int) (delta, margin float64) {
	if total == 0 {
		return 0, 0
	}

	n := float64(total)
	w, d := float64(wins), float64(draws)
	score := w + d/2
	p := score / n

	if p <= 0 {
		return -1000, 0
	}
	if p >= 1 {
		return 1000, 0
	}

	delta = -400 * math.Log10(1/p-1)

	variance := (w+d/4)/n - p*p
	if variance < 0 {
		variance = 0
	}
	sep := math.Sqrt(variance / n)
	slope := 400 / (math.Ln10 * p * (1 - p))
	margin = 1.96 * sep * slope

	return delta, margin
}

// HeadToHead counts wins/losses/draws from one engine's perspective against another.
type HeadToHead struct {
	Wins, Losses, Draws, Total int
}

// Update records one game's result string ("1-0", "0-1", "1/2-1/2", any "(forfeit)" suffix is
// ignored for scoring purposes) from the perspective of whichever side isWhite identifies.
func (h *HeadToHead) Update(result string, isWhite bool) {
	switch outcomeOf(result) {
	case "1-0":
		if isWhite {
			h.Wins++
		} else {
			h.Losses++
		}
	case "0-1":
		if isWhite {
			h.Losses++
		} else {
			h.Wins++
		}
	case "1/2-1/2":
		h.Draws++
	default:
		return
	}
	h.Total++
}

// outcomeOf strips an optional "(forfeit)" suffix from a GameResult string (spec §3).
func outcomeOf(result string) string {
	for i, r := range result {
		if r == ' ' {
			return result[:i]
		}
	}
	return result
}
