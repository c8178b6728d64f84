package stats

import "math"

// GameResult is the outcome of a single game from the perspective of the engine under test
// (engine A in a Match/Gauntlet sense, or the row engine of a standings crosstable).
type GameResult int

const (
	Loss GameResult = iota
	Draw
	Win
)

// SPRTState is the current decision state of a running sequential probability ratio test.
type SPRTState int

const (
	Continue SPRTState = iota
	Accept
	Reject
)

func (s SPRTState) String() string {
	switch s {
	case Accept:
		return "Accept"
	case Reject:
		return "Reject"
	default:
		return "Continue"
	}
}

// SPRTConfig parameterizes the test per spec §4.8: two Elo hypotheses, the expected draw rate
// between them, and the two type-I/type-II error rates bounding the decision thresholds.
type SPRTConfig struct {
	H0Elo, H1Elo float64
	DrawRatio    float64
	Alpha, Beta  float64
}

// SPRTStatus is a snapshot of the test's current likelihood ratio, decision bounds, and state.
type SPRTStatus struct {
	LLR                float64
	LowerBound         float64
	UpperBound         float64
	State              SPRTState
	Wins, Draws, Losses int
}

// SPRT accumulates Win/Draw/Loss counts and evaluates the Sequential Probability Ratio Test of
// spec §4.8 / §8 between two Elo hypotheses.
type SPRT struct {
	cfg                 SPRTConfig
	wins, draws, losses int
}

func NewSPRT(cfg SPRTConfig) *SPRT {
	return &SPRT{cfg: cfg}
}

// Update records one game's result and returns the updated status.
func (s *SPRT) Update(r GameResult) SPRTStatus {
	switch r {
	case Win:
		s.wins++
	case Draw:
		s.draws++
	case Loss:
		s.losses++
	}
	return s.Status()
}

// Status evaluates the current log-likelihood-ratio and decision state without mutating counts.
func (s *SPRT) Status() SPRTStatus {
	llr := s.llr()
	lower, upper := s.bounds()

	state := Continue
	switch {
	case llr >= upper:
		state = Accept
	case llr <= lower:
		state = Reject
	}

	return SPRTStatus{
		LLR: llr, LowerBound: lower, UpperBound: upper, State: state,
		Wins: s.wins, Draws: s.draws, Losses: s.losses,
	}
}

func (s *SPRT) bounds() (lower, upper float64) {
	alpha := clamp(s.cfg.Alpha, 1e-6, 0.5)
	beta := clamp(s.cfg.Beta, 1e-6, 0.5)
	lower = math.Log(beta / (1 - alpha))
	upper = math.Log((1 - beta) / alpha)
	return lower, upper
}

func (s *SPRT) llr() float64 {
	p0w, p0d, p0l := expectedProbabilities(s.cfg.H0Elo, s.cfg.DrawRatio)
	p1w, p1d, p1l := expectedProbabilities(s.cfg.H1Elo, s.cfg.DrawRatio)

	var llr float64
	llr += float64(s.wins) * math.Log(p1w/p0w)
	llr += float64(s.draws) * math.Log(p1d/p0d)
	llr += float64(s.losses) * math.Log(p1l/p0l)
	return llr
}

// expectedProbabilities converts an Elo difference and draw ratio into (p_win, p_draw, p_loss),
// floored at 1e-12 per spec §4.8 so a zero-probability outcome never produces a NaN/Inf log ratio.
func expectedProbabilities(elo, drawRatio float64) (win, draw, loss float64) {
	draw = clamp(drawRatio, 0, 0.99)
	winRate := 1 / (1 + math.Pow(10, -elo/400))
	win = (1 - draw) * winRate
	loss = (1 - draw) * (1 - winRate)
	return math.Max(win, 1e-12), math.Max(draw, 1e-12), math.Max(loss, 1e-12)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
