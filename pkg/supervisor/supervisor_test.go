package supervisor_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/herohde/morlock/pkg/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixtures below are POSIX shell scripts")
	}
}

func TestSpawnSendSubscribe(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	p, err := supervisor.Spawn(ctx, "sh", "-c", "read line; echo \"echo:$line\"")
	require.NoError(t, err)
	defer p.Kill()

	sub := p.Subscribe()
	require.NoError(t, p.Send("hello"))

	select {
	case msg := <-sub:
		assert.Equal(t, "echo:hello", msg.Line)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed line")
	}
}

func TestSendAfterExitIsDeadEngine(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	p, err := supervisor.Spawn(ctx, "sh", "-c", "exit 0")
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not exit")
	}

	err = p.Send("isready")
	assert.ErrorIs(t, err, supervisor.ErrDeadEngine)
}

func TestQuitReturnsOnCleanExit(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	p, err := supervisor.Spawn(ctx, "sh", "-c", "read line; exit 0")
	require.NoError(t, err)

	err = p.Quit(ctx, "quit")
	assert.NoError(t, err)

	select {
	case <-p.Done():
	default:
		t.Fatal("process should have exited after Quit")
	}
}

func TestQuitEscalatesToKillAfterGracePeriod(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	p, err := supervisor.Spawn(ctx, "sh", "-c", "read line; sleep 5")
	require.NoError(t, err)

	start := time.Now()
	err = p.Quit(ctx, "quit")
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, supervisor.GracePeriod)
	assert.Less(t, elapsed, supervisor.GracePeriod+2*time.Second)

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("process should have been killed")
	}
}

func TestKillIsIdempotent(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()

	p, err := supervisor.Spawn(ctx, "sh", "-c", "sleep 5")
	require.NoError(t, err)

	assert.NoError(t, p.Kill())
	assert.NoError(t, p.Kill())
}

func TestSpawnOfMissingBinaryFailsWithSpawnError(t *testing.T) {
	ctx := context.Background()

	_, err := supervisor.Spawn(ctx, "/nonexistent/path/to/engine-binary")
	require.Error(t, err)

	var spawnErr *supervisor.SpawnError
	assert.ErrorAs(t, err, &spawnErr)
}
