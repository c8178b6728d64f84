// Package opening reads the opening file format of spec §6: one position per line, or, for a
// tag-annotated game-record file, the positions carried in its `[FEN "..."]` tag lines.
package opening

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// pgnExtensions are the well-known tag-annotated game-record file suffixes; files with one of
// these extensions are parsed by extracting FEN tag lines instead of treating every line as a
// position.
var pgnExtensions = []string{".pgn"}

// Load reads an opening file at path and returns the loaded starting positions, in file order.
// If path has a tag-annotated game-record extension, only `[FEN "..."]` tag lines are extracted;
// otherwise every non-empty line is taken up to its first ';' as a position string.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening: open %v: %w", path, err)
	}
	defer f.Close()

	isPGN := isPGNPath(path)

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isPGN {
			if fen, ok := extractFENTag(line); ok {
				out = append(out, fen)
			}
			continue
		}
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("opening: read %v: %w", path, err)
	}
	return out, nil
}

func isPGNPath(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range pgnExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// extractFENTag parses a `[FEN "..."]` tag line, returning its quoted contents.
func extractFENTag(line string) (string, bool) {
	const prefix = `[FEN "`
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, `"]`) {
		return "", false
	}
	return line[len(prefix) : len(line)-2], true
}
