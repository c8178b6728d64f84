// Package protocol parses the line-oriented engine protocol described in spec §4.2 and §6:
// telemetry ("info ..."), best-move, and option-advertisement lines. It knows nothing about
// supervising a process or driving a game -- it only turns text lines into typed records.
package protocol

import (
	"strconv"
	"strings"
)

const (
	UCIOk   = "uciok"
	ReadyOk = "readyok"
)

// Info is a parsed "info" telemetry line. Missing fields default to their zero value; callers
// distinguish "absent" from "zero" for score via HasScoreCP/HasScoreMate.
type Info struct {
	Depth        int
	Nodes        int64
	Nps          int64
	ScoreCP      int
	HasScoreCP   bool
	ScoreMate    int
	HasScoreMate bool
	PV           []string
}

// ParseInfo parses an "info depth .. nodes .. nps .. score cp|mate .. pv .." line. Unknown
// tokens are skipped; depth 0 is accepted as a valid value, not treated as "absent" (spec §9).
func ParseInfo(line string) (Info, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return Info{}, false
	}

	var info Info
	for i := 1; i < len(fields); {
		switch fields[i] {
		case "depth":
			i++
			if i < len(fields) {
				info.Depth, _ = strconv.Atoi(fields[i])
				i++
			}
		case "nodes":
			i++
			if i < len(fields) {
				info.Nodes, _ = strconv.ParseInt(fields[i], 10, 64)
				i++
			}
		case "nps":
			i++
			if i < len(fields) {
				info.Nps, _ = strconv.ParseInt(fields[i], 10, 64)
				i++
			}
		case "score":
			i++
			if i >= len(fields) {
				break
			}
			switch fields[i] {
			case "cp":
				i++
				if i < len(fields) {
					info.ScoreCP, _ = strconv.Atoi(fields[i])
					info.HasScoreCP = true
					i++
				}
			case "mate":
				i++
				if i < len(fields) {
					info.ScoreMate, _ = strconv.Atoi(fields[i])
					info.HasScoreMate = true
					i++
				}
			default:
				i++
			}
		case "pv":
			info.PV = fields[i+1:]
			i = len(fields)
		default:
			i++
		}
	}
	return info, true
}

// NormalizeMateScore maps a "score mate N" to a monitoring scalar per spec §4.4: 30000-N for a
// mate favoring the mover (N > 0), -30000-N for a mate favoring the opponent (N < 0). Shorter
// mates yield larger-magnitude scalars.
func NormalizeMateScore(n int) int {
	if n > 0 {
		return 30000 - n
	}
	return -30000 - n
}

// BestMove is a parsed "bestmove <move> [ponder <move>]" line.
type BestMove struct {
	Move      string
	Ponder    string
	HasPonder bool
}

func ParseBestMove(line string) (BestMove, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return BestMove{}, false
	}

	bm := BestMove{Move: fields[1]}
	if len(fields) >= 4 && fields[2] == "ponder" {
		bm.Ponder = fields[3]
		bm.HasPonder = true
	}
	return bm, true
}

// Option is a parsed "option name <Name> type <Type> [default ..] [min .. max ..] [var ..]*"
// advertisement line.
type Option struct {
	Name    string
	Type    string
	Default string
	Min     string
	Max     string
	Vars    []string
}

// ParseOption parses an option line. Name may contain spaces and runs from after "name" up to
// "type"; default runs up to the next keyword among {min, max, var} or end of line.
func ParseOption(line string) (Option, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "option" {
		return Option{}, false
	}

	i := 1
	if i >= len(fields) || fields[i] != "name" {
		return Option{}, false
	}
	i++

	var name []string
	for i < len(fields) && fields[i] != "type" {
		name = append(name, fields[i])
		i++
	}
	if i >= len(fields) {
		return Option{}, false
	}
	i++ // skip "type"
	if i >= len(fields) {
		return Option{}, false
	}

	opt := Option{Name: strings.Join(name, " "), Type: fields[i]}
	i++

	for i < len(fields) {
		switch fields[i] {
		case "default":
			i++
			var def []string
			for i < len(fields) && fields[i] != "min" && fields[i] != "max" && fields[i] != "var" {
				def = append(def, fields[i])
				i++
			}
			opt.Default = strings.Join(def, " ")
		case "min":
			i++
			if i < len(fields) {
				opt.Min = fields[i]
				i++
			}
		case "max":
			i++
			if i < len(fields) {
				opt.Max = fields[i]
				i++
			}
		case "var":
			i++
			if i < len(fields) {
				opt.Vars = append(opt.Vars, fields[i])
				i++
			}
		default:
			i++
		}
	}
	return opt, true
}
