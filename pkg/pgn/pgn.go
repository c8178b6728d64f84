// Package pgn writes completed games to the textual, tag-annotated record format of spec §6: a
// bracketed tag section (Event/Site/Date/Round/White/Black/Result, plus FEN/SetUp for a
// non-standard start) followed by move text numbered per full move and terminated by the result.
package pgn

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/herohde/morlock/pkg/board/fen"
)

// Site is the fixed Site tag value spec §6 names.
const Site = "CCRL GUI"

// Tags are the bracketed header fields of one game record.
type Tags struct {
	Event, Date, Round string
	White, Black       string
	Result             string
	StartPos           string // canonical position string the game started from
}

// WriteGame appends one game record to w: the tag section, then move text. Moves are the
// half-move tokens in the order played (coordinate notation, the form the engine protocol itself
// uses -- this repo has no SAN generator, so the record is coordinate-notation PGN, a widely
// accepted variant for engine-vs-engine archives).
func WriteGame(w io.Writer, tags Tags, moves []string) error {
	if _, err := fmt.Fprintf(w, "[Event \"%v\"]\n", orDefault(tags.Event, "?")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Site \"%v\"]\n", Site); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Date \"%v\"]\n", tags.Date); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Round \"%v\"]\n", tags.Round); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[White \"%v\"]\n", orDefault(tags.White, "?")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Black \"%v\"]\n", orDefault(tags.Black, "?")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[Result \"%v\"]\n", orDefault(tags.Result, "*")); err != nil {
		return err
	}
	if tags.StartPos != "" && tags.StartPos != fen.Initial {
		if _, err := fmt.Fprintf(w, "[FEN \"%v\"]\n", tags.StartPos); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "[SetUp \"1\"]\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	var sb strings.Builder
	for i, m := range moves {
		if i%2 == 0 {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%d.", i/2+1))
			sb.WriteByte(' ')
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(m)
	}
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString(orDefault(tags.Result, "*"))
	sb.WriteByte('\n')

	if _, err := fmt.Fprintln(w, sb.String()); err != nil {
		return err
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Append opens path for appending (creating it if necessary) and writes one game record.
func Append(path string, tags Tags, moves []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("pgn: open %v: %w", path, err)
	}
	defer f.Close()

	if err := WriteGame(f, tags, moves); err != nil {
		return fmt.Errorf("pgn: write %v: %w", path, err)
	}
	return nil
}

// CopyTo copies a completed record file to an arbitrary destination (SPEC_FULL's supplemented
// tournament-PGN-export feature, grounded on original_source's export_tournament_pgn command).
func CopyTo(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("pgn: read %v: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("pgn: write %v: %w", dst, err)
	}
	return nil
}
