package stats

import "sort"

// GameRecord is the minimal information standings needs from one completed game.
type GameRecord struct {
	White, Black int
	Result       string // "1-0", "0-1", "1/2-1/2", optionally "(forfeit)"-suffixed
}

// Standing is one row of the multi-engine standings table (spec §3/§4.8).
type Standing struct {
	EngineIdx int
	Points    float64
	SB        float64
	Wins      int
	GamesPlayed int
	Elo       float64
	ErrorMargin float64
	Rank      int
}

// ComputeStandings credits 1/0.5/0 points per game, computes the Sonneborn-Berger score (the sum,
// over each opponent faced, of points earned against that opponent times the opponent's own final
// point total), and ranks by (points desc, SB desc, wins desc), per spec §4.8.
func ComputeStandings(n int, games []GameRecord) []Standing {
	points := make([]float64, n)
	wins := make([]int, n)
	played := make([]int, n)
	// pointsAgainst[i][j] = points engine i earned in games against engine j.
	pointsAgainst := make([]map[int]float64, n)
	for i := range pointsAgainst {
		pointsAgainst[i] = map[int]float64{}
	}
	wld := make([]HeadToHead, n)

	for _, g := range games {
		outcome := outcomeOf(g.Result)
		var whitePts, blackPts float64
		switch outcome {
		case "1-0":
			whitePts, blackPts = 1, 0
			wins[g.White]++
		case "0-1":
			whitePts, blackPts = 0, 1
			wins[g.Black]++
		case "1/2-1/2":
			whitePts, blackPts = 0.5, 0.5
		default:
			continue
		}

		points[g.White] += whitePts
		points[g.Black] += blackPts
		played[g.White]++
		played[g.Black]++
		pointsAgainst[g.White][g.Black] += whitePts
		pointsAgainst[g.Black][g.White] += blackPts

		wld[g.White].Update(g.Result, true)
		wld[g.Black].Update(g.Result, false)
	}

	standings := make([]Standing, n)
	for i := 0; i < n; i++ {
		var sb float64
		for opp, pts := range pointsAgainst[i] {
			sb += pts * points[opp]
		}
		elo, margin := EloEstimate(wld[i].Wins, wld[i].Draws, wld[i].Total)
		standings[i] = Standing{
			EngineIdx:   i,
			Points:      points[i],
			SB:          sb,
			Wins:        wins[i],
			GamesPlayed: played[i],
			Elo:         elo,
			ErrorMargin: margin,
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.SB != b.SB {
			return a.SB > b.SB
		}
		return a.Wins > b.Wins
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
