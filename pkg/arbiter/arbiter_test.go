package arbiter_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/herohde/morlock/pkg/arbiter"
	"github.com/herohde/morlock/pkg/tconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeEngine writes a minimal shell-script "engine" that speaks just enough UCI to complete
// the handshake and then immediately forfeits via a null-move bestmove, so a game finishes almost
// instantly without any real search logic (mirrors pkg/supervisor's sh-script fixtures).
func writeFakeEngine(t *testing.T) string {
	if runtime.GOOS == "windows" {
		t.Skip("fixture is a POSIX shell script")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-engine.sh")
	script := "#!/bin/sh\n" +
		"while read -r line; do\n" +
		"  case \"$line\" in\n" +
		"    uci) echo uciok ;;\n" +
		"    isready) echo readyok ;;\n" +
		"    go*) echo 'bestmove 0000' ;;\n" +
		"  esac\n" +
		"done\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func baseConfig(t *testing.T) tconfig.TournamentConfig {
	enginePath := writeFakeEngine(t)
	cfg := tconfig.TournamentConfig{
		Mode: "match",
		Engines: []tconfig.EngineConfig{
			{ID: "a", Name: "Engine A", Path: enginePath},
			{ID: "b", Name: "Engine B", Path: enginePath},
		},
		TimeControl: tconfig.TimeControlConfig{BaseMs: 1000, IncMs: 0},
		GamesCount:  1,
		Concurrency: 2,
		Variant:     "standard",
	}
	cfg.Default()
	return cfg
}

func TestArbiter_PlaysToCompletion(t *testing.T) {
	cfg := baseConfig(t)

	a, err := arbiter.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	total, remaining := a.Progress()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, remaining)
}

func TestArbiter_SkipsDisabledEngine(t *testing.T) {
	cfg := baseConfig(t)
	cfg.DisabledEngineIDs = []string{"a"}

	a, err := arbiter.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	total, remaining := a.Progress()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, remaining)
}

// buildMorlockBinary compiles the bundled reference UCI engine (cmd/morlock) to a temp path, so
// TestArbiter_MorlockSelfPlay can spawn it as a real opaque subprocess rather than importing
// pkg/engine/pkg/search/pkg/eval directly -- the arbiter never sees more of a participant than its
// stdin/stdout protocol stream, and this is the one test that drives that whole stack end to end.
func buildMorlockBinary(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("spawns a POSIX build of the reference engine; skip on windows")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not on PATH; cannot build the reference engine for self-play")
	}

	bin := filepath.Join(t.TempDir(), "morlock")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/morlock")
	cmd.Dir = filepath.Join("..", "..")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("failed to build reference engine: %v\n%s", err, out)
	}
	return bin
}

// TestArbiter_MorlockSelfPlay runs a one-game match between two instances of the bundled
// reference engine (cmd/morlock), exercising the full pipeline -- supervisor spawn, UCI
// handshake, move loop, protocol parsing, and result recording -- against a real move-searching
// participant instead of a scripted fixture.
func TestArbiter_MorlockSelfPlay(t *testing.T) {
	bin := buildMorlockBinary(t)

	cfg := tconfig.TournamentConfig{
		Mode: "match",
		Engines: []tconfig.EngineConfig{
			{ID: "morlock-a", Name: "Morlock A", Path: bin, Args: []string{"-noise=0"}},
			{ID: "morlock-b", Name: "Morlock B", Path: bin, Args: []string{"-noise=0"}},
		},
		TimeControl: tconfig.TimeControlConfig{BaseMs: 2000, IncMs: 0},
		GamesCount:  1,
		Concurrency: 1,
		Variant:     "standard",
	}
	cfg.Default()

	a, err := arbiter.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	total, remaining := a.Progress()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, remaining)
}

func TestArbiter_RejectsMissingEnginePath(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Engines[0].Path = "/nonexistent/path/to/engine-binary"

	_, err := arbiter.New(cfg)
	assert.Error(t, err)
}

func TestArbiter_StopAbortsInFlightGames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow-engine.sh")
	script := "#!/bin/sh\n" +
		"while read -r line; do\n" +
		"  case \"$line\" in\n" +
		"    uci) echo uciok ;;\n" +
		"    isready) echo readyok ;;\n" +
		"    go*) sleep 5; echo 'bestmove 0000' ;;\n" +
		"  esac\n" +
		"done\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))

	cfg := tconfig.TournamentConfig{
		Mode: "match",
		Engines: []tconfig.EngineConfig{
			{ID: "a", Name: "Engine A", Path: path},
			{ID: "b", Name: "Engine B", Path: path},
		},
		TimeControl: tconfig.TimeControlConfig{BaseMs: 60000, IncMs: 0},
		GamesCount:  1,
		Concurrency: 1,
		Variant:     "standard",
	}
	cfg.Default()

	a, err := arbiter.New(cfg)
	require.NoError(t, err)

	go func() {
		time.Sleep(200 * time.Millisecond)
		a.Stop()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Start(ctx))

	total, remaining := a.Progress()
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, remaining)
}
