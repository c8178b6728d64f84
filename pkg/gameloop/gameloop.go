// Package gameloop drives a single game to completion between two supervised engines: the UCI
// handshake, the move loop with clocks and adjudication, and the terminal move/schedule updates
// a caller needs to render or persist.
package gameloop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/herohde/morlock/pkg/board"
	"github.com/herohde/morlock/pkg/protocol"
	"github.com/herohde/morlock/pkg/supervisor"
	"github.com/herohde/morlock/pkg/variant"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"go.uber.org/atomic"
)

// HandshakeError reports a failure during the initial identify/ready-probe exchange with an
// engine. The game that triggered it is Aborted; the engine itself may still be used again.
type HandshakeError struct {
	EngineIdx int
	Reason    string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake failed for engine %v: %v", e.EngineIdx, e.Reason)
}

// ErrStopped is returned by Play when the caller's stop flag was observed. No result is credited.
var ErrStopped = errors.New("gameloop: stopped")

// TimeControl is the base thinking time and per-move increment applied to both sides.
type TimeControl struct {
	Base time.Duration
	Inc  time.Duration
}

// AdjudicationConfig configures the resign and draw early-termination heuristics of spec §4.4.
type AdjudicationConfig struct {
	ResignScore     int // centipawns; |score| beyond this counts toward a resign streak
	ResignMoveCount int // consecutive moves required to adjudicate a resignation
	DrawMoveNumber  int // full-move number from which draw adjudication is considered
	DrawScore       int // centipawns; |score| within this counts toward a draw streak
	DrawMoveCount   int // consecutive moves required to adjudicate a draw
}

// EngineOption is a single configured UCI option applied during the handshake.
type EngineOption struct {
	Name, Value string
}

// Side is one participant supervisor plus the telemetry label and options to apply to it.
type Side struct {
	Process   *supervisor.Process
	EngineIdx int
	Options   []EngineOption
}

// Config is the tournament-wide configuration relevant to a single game.
type Config struct {
	TimeControl  TimeControl
	Variant      variant.Variant
	Adjudication AdjudicationConfig
	Zobrist      *board.ZobristTable
}

// Status is the terminal disposition of a ScheduledGame, reported back to the schedule sink.
type Status int

const (
	Finished Status = iota
	Aborted
)

// ScheduleUpdate reports a game's terminal disposition.
type ScheduleUpdate struct {
	GameID int
	Status Status
	Result board.Result
}

// GameUpdate is the outbound "game-update" event of spec §6.
type GameUpdate struct {
	GameID                         int
	Position                       string
	LastMove                       lang.Optional[string]
	WhiteClock, BlackClock         time.Duration
	MoveNumber                     int
	Result                         lang.Optional[board.Result]
	WhiteEngineIdx, BlackEngineIdx int
}

// EngineStats is the outbound "engine-stats" event of spec §6.
type EngineStats struct {
	GameID, EngineIdx int
	Depth             int
	ScoreCP           lang.Optional[int]
	ScoreMate         lang.Optional[int]
	Nodes, Nps        int64
	PV                []string
}

const (
	handshakeTimeout = 10 * time.Second
	minMoveTimeout   = 5 * time.Second
	maxMoveTimeout   = 24 * time.Hour
	pauseDelay       = 100 * time.Millisecond
)

// Play drives one game between white and black to a terminal result, publishing move and
// telemetry updates as it goes, and a single ScheduleUpdate when the game ends.
func Play(ctx context.Context, gameID int, white, black Side, startPos string, cfg Config,
	moves chan<- GameUpdate, stats chan<- EngineStats, schedule chan<- ScheduleUpdate,
	stop, pause *atomic.Bool) error {

	whiteSub := white.Process.Subscribe()
	blackSub := black.Process.Subscribe()

	if err := handshake(ctx, white, whiteSub, cfg.Variant); err != nil {
		schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
		return err
	}
	if err := handshake(ctx, black, blackSub, cfg.Variant); err != nil {
		schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
		return err
	}

	adapter, err := variant.NewAdapter(cfg.Zobrist, cfg.Variant, startPos)
	if err != nil {
		schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
		return fmt.Errorf("invalid starting position: %w", err)
	}

	whiteClock, blackClock := cfg.TimeControl.Base, cfg.TimeControl.Base
	var history []board.Move

	resignStreak, resignSign := 0, 0
	drawStreak := 0

	for {
		if stop.Load() {
			schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
			return ErrStopped
		}
		if pause.Load() {
			time.Sleep(pauseDelay)
			continue
		}

		if adapter.HasInsufficientMaterial() {
			result := adapter.Adjudicate(board.Draw, board.InsufficientMaterial)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}
		if result, over := adapter.IsGameOver(); over {
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}

		mover, sub := white, whiteSub
		clock := &whiteClock
		if adapter.Turn() == board.Black {
			mover, sub = black, blackSub
			clock = &blackClock
		}

		if err := mover.Process.Send(positionCommand(startPos, history)); err != nil {
			if stop.Load() {
				schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
				return ErrStopped
			}
			result := adapter.Adjudicate(board.Loss(adapter.Turn()), board.Timeout)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}
		if err := mover.Process.Send(goCommand(cfg.TimeControl, whiteClock, blackClock)); err != nil {
			if stop.Load() {
				schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
				return ErrStopped
			}
			result := adapter.Adjudicate(board.Loss(adapter.Turn()), board.Timeout)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}

		timeout := *clock + 5*time.Second
		if timeout < minMoveTimeout {
			timeout = minMoveTimeout
		}
		if timeout > maxMoveTimeout {
			timeout = maxMoveTimeout
		}

		start := time.Now()
		bm, lastInfo, err := awaitBestMove(ctx, gameID, mover, sub, timeout, stats)
		elapsed := time.Since(start)

		*clock -= elapsed
		if *clock < 0 {
			*clock = 0
		}
		*clock += cfg.TimeControl.Inc

		if err != nil {
			if stop.Load() {
				schedule <- ScheduleUpdate{GameID: gameID, Status: Aborted}
				return ErrStopped
			}
			result := adapter.Adjudicate(board.Loss(adapter.Turn()), board.Timeout)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}

		applyAdjudicationCounters(&cfg.Adjudication, adapter.Turn(), lastInfo, len(history)/2+1, &resignStreak, &resignSign, &drawStreak)
		if resignStreak >= cfg.Adjudication.ResignMoveCount && cfg.Adjudication.ResignMoveCount > 0 {
			outcome := board.Loss(adapter.Turn())
			if resignSign > 0 == (adapter.Turn() == board.White) {
				outcome = board.Win(adapter.Turn())
			}
			result := adapter.Adjudicate(outcome, board.Resignation)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}
		if drawStreak >= cfg.Adjudication.DrawMoveCount && cfg.Adjudication.DrawMoveCount > 0 {
			result := adapter.Adjudicate(board.Draw, board.Adjudication)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}

		m, ok := adapter.ParseMove(bm.Move)
		if !ok {
			result := adapter.Adjudicate(board.Loss(adapter.Turn()), board.IllegalMove)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}

		if !adapter.Push(m) {
			result := adapter.Adjudicate(board.Loss(adapter.Turn()), board.IllegalMove)
			emitTerminal(moves, schedule, gameID, adapter, whiteClock, blackClock, history, white, black, result)
			return nil
		}
		history = append(history, m)

		moves <- GameUpdate{
			GameID:         gameID,
			Position:       adapter.PositionString(),
			LastMove:       lang.Some(strings.ToLower(m.String())),
			WhiteClock:     whiteClock,
			BlackClock:     blackClock,
			MoveNumber:     adapter.FullMoves(),
			WhiteEngineIdx: white.EngineIdx,
			BlackEngineIdx: black.EngineIdx,
		}
	}
}

func emitTerminal(moves chan<- GameUpdate, schedule chan<- ScheduleUpdate, gameID int, a *variant.Adapter,
	whiteClock, blackClock time.Duration, history []board.Move, white, black Side, result board.Result) {

	var lastMove lang.Optional[string]
	if len(history) > 0 {
		lastMove = lang.Some(strings.ToLower(history[len(history)-1].String()))
	}

	logw.Infof(context.Background(), "Game %v finished: %v", gameID, result)
	moves <- GameUpdate{
		GameID:         gameID,
		Position:       a.PositionString(),
		LastMove:       lastMove,
		WhiteClock:     whiteClock,
		BlackClock:     blackClock,
		MoveNumber:     a.FullMoves(),
		Result:         lang.Some(result),
		WhiteEngineIdx: white.EngineIdx,
		BlackEngineIdx: black.EngineIdx,
	}
	schedule <- ScheduleUpdate{GameID: gameID, Status: Finished, Result: result}
}

func positionCommand(startPos string, history []board.Move) string {
	cmd := fmt.Sprintf("position fen %v", startPos)
	if len(history) > 0 {
		tokens := make([]string, len(history))
		for i, m := range history {
			tokens[i] = strings.ToLower(m.String())
		}
		cmd += " moves"
		for _, tok := range tokens {
			cmd += " " + tok
		}
	}
	return cmd
}

func goCommand(tc TimeControl, whiteClock, blackClock time.Duration) string {
	wt, bt := whiteClock.Milliseconds(), blackClock.Milliseconds()
	inc := tc.Inc.Milliseconds()
	return fmt.Sprintf("go wtime %d btime %d winc %d binc %d", wt, bt, inc, inc)
}

// handshake performs the identify / set-option / ready-probe / new-game exchange of spec §4.4.
func handshake(ctx context.Context, side Side, sub <-chan supervisor.Message, v variant.Variant) error {
	logw.Infof(ctx, "Handshake: engine %v", side.EngineIdx)
	if err := side.Process.Send("uci"); err != nil {
		return &HandshakeError{EngineIdx: side.EngineIdx, Reason: err.Error()}
	}
	if _, err := waitForLine(ctx, sub, side.Process.Done(), handshakeTimeout, func(l string) bool { return l == protocol.UCIOk }); err != nil {
		return &HandshakeError{EngineIdx: side.EngineIdx, Reason: fmt.Sprintf("uciok: %v", err)}
	}

	for _, opt := range side.Options {
		_ = side.Process.Send(fmt.Sprintf("setoption name %v value %v", opt.Name, opt.Value))
	}
	if v == variant.RandomizedBackRank {
		_ = side.Process.Send("setoption name UCI_Chess960 value true")
	}

	if err := side.Process.Send("isready"); err != nil {
		return &HandshakeError{EngineIdx: side.EngineIdx, Reason: err.Error()}
	}
	if _, err := waitForLine(ctx, sub, side.Process.Done(), handshakeTimeout, func(l string) bool { return l == protocol.ReadyOk }); err != nil {
		return &HandshakeError{EngineIdx: side.EngineIdx, Reason: fmt.Sprintf("readyok: %v", err)}
	}

	if err := side.Process.Send("ucinewgame"); err != nil {
		return &HandshakeError{EngineIdx: side.EngineIdx, Reason: err.Error()}
	}
	logw.Infof(ctx, "Handshake complete: engine %v", side.EngineIdx)
	return nil
}

func waitForLine(ctx context.Context, sub <-chan supervisor.Message, done <-chan struct{}, timeout time.Duration, match func(string) bool) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-sub:
			if !ok {
				return "", errors.New("engine output stream closed")
			}
			if match(msg.Line) {
				return msg.Line, nil
			}
		case <-done:
			return "", errors.New("engine process exited")
		case <-timer.C:
			return "", fmt.Errorf("timed out after %v", timeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// awaitBestMove waits for the bestmove line, emitting an EngineStats event for every info line
// seen along the way and tracking the most recent score for adjudication purposes.
func awaitBestMove(ctx context.Context, gameID int, side Side, sub <-chan supervisor.Message, timeout time.Duration, stats chan<- EngineStats) (protocol.BestMove, protocol.Info, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var lastInfo protocol.Info
	for {
		select {
		case msg, ok := <-sub:
			if !ok {
				return protocol.BestMove{}, lastInfo, errors.New("engine output stream closed")
			}
			if bm, ok := protocol.ParseBestMove(msg.Line); ok {
				return bm, lastInfo, nil
			}
			if info, ok := protocol.ParseInfo(msg.Line); ok {
				lastInfo = info
				stats <- EngineStats{
					GameID:    gameID,
					EngineIdx: side.EngineIdx,
					Depth:     info.Depth,
					ScoreCP:   optionalIf(info.HasScoreCP, info.ScoreCP),
					ScoreMate: optionalIf(info.HasScoreMate, info.ScoreMate),
					Nodes:     info.Nodes,
					Nps:       info.Nps,
					PV:        info.PV,
				}
			}
		case <-side.Process.Done():
			return protocol.BestMove{}, lastInfo, errors.New("engine process exited")
		case <-timer.C:
			return protocol.BestMove{}, lastInfo, fmt.Errorf("move timed out after %v", timeout)
		case <-ctx.Done():
			return protocol.BestMove{}, lastInfo, ctx.Err()
		}
	}
}

func optionalIf[T any](ok bool, v T) lang.Optional[T] {
	if ok {
		return lang.Some(v)
	}
	var zero lang.Optional[T]
	return zero
}

// applyAdjudicationCounters updates the resign/draw streaks from the mover's last reported score,
// normalized to White's perspective so the streak is comparable across alternating movers.
func applyAdjudicationCounters(cfg *AdjudicationConfig, mover board.Color, info protocol.Info, moveNumber int, resignStreak, resignSign *int, drawStreak *int) {
	score, ok := scoreScalar(info)
	if !ok {
		// No score reported for this move: leave both streaks untouched (open question
		// decision in SPEC_FULL.md -- absence of a score is not treated as a streak break).
		return
	}
	if mover == board.Black {
		score = -score
	}

	if cfg.ResignScore > 0 && abs(score) > cfg.ResignScore {
		sign := 1
		if score < 0 {
			sign = -1
		}
		if sign == *resignSign {
			*resignStreak++
		} else {
			*resignStreak = 1
			*resignSign = sign
		}
	} else {
		*resignStreak = 0
	}

	if cfg.DrawMoveCount > 0 && moveNumber >= cfg.DrawMoveNumber && abs(score) <= cfg.DrawScore {
		*drawStreak++
	} else {
		*drawStreak = 0
	}
}

func scoreScalar(info protocol.Info) (int, bool) {
	if info.HasScoreMate {
		return protocol.NormalizeMateScore(info.ScoreMate), true
	}
	if info.HasScoreCP {
		return info.ScoreCP, true
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
