// Package supervisor owns one spawned engine child process per game-participant slot: piped
// stdin/stdout, a broadcast fan-out of output lines to any number of subscribers, and a
// graceful-quit-then-force-kill termination contract.
package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// GracePeriod is how long Quit waits for the child to exit on its own after the protocol's
// termination command before Quit escalates to Kill.
const GracePeriod = 500 * time.Millisecond

// BroadcastBufferSize is the minimum per-subscriber buffer depth, chosen so that a ready-ok or
// bestmove line is never dropped while a slow consumer of "info" telemetry catches up.
const BroadcastBufferSize = 10000

// SpawnError wraps a failure to execute the engine binary.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %v: %v", e.Path, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// ErrDeadEngine is returned by Send once the child process has already exited.
var ErrDeadEngine = errors.New("supervisor: engine is dead")

// Message is one item delivered to a Subscribe channel. Lagged reports that one or more lines
// were dropped for this subscriber before Line, because it fell behind the broadcast buffer.
type Message struct {
	Line   string
	Lagged bool
}

type subscriber struct {
	ch     chan Message
	lagged bool
}

// Process supervises a single spawned engine subprocess.
type Process struct {
	path string
	cmd  *exec.Cmd
	in   io.WriteCloser

	mu   sync.Mutex
	subs []*subscriber
	err  error

	sendMu sync.Mutex
	done   iox.AsyncCloser
}

// Spawn starts the named executable with piped stdin/stdout and a discarded stderr, and begins
// reading and fanning out its stdout. Returns a SpawnError if the process could not be started.
func Spawn(ctx context.Context, path string, args ...string) (*Process, error) {
	cmd := exec.Command(path, args...)
	cmd.Stderr = nil // suppressed: engine diagnostics are not part of the protocol stream.

	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}
	configurePlatform(cmd)

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: path, Err: err}
	}

	p := &Process{
		path: path,
		cmd:  cmd,
		in:   in,
		done: iox.NewAsyncCloser(),
	}
	go p.readLoop(ctx, out)
	go p.waitLoop(ctx)

	logw.Infof(ctx, "Spawned engine %v (pid=%v)", path, cmd.Process.Pid)
	return p, nil
}

func (p *Process) readLoop(ctx context.Context, out io.Reader) {
	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		logw.Debugf(ctx, "<< %v: %v", p.path, line)
		p.broadcast(line)
	}
}

func (p *Process) waitLoop(ctx context.Context) {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.err = err
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	for _, s := range subs {
		close(s.ch)
	}

	if err != nil {
		logw.Warningf(ctx, "Engine %v exited: %v", p.path, err)
	} else {
		logw.Infof(ctx, "Engine %v exited cleanly", p.path)
	}
	p.done.Close()
}

// broadcast fans a non-empty, trimmed output line out to every live subscriber. The reader
// goroutine must never block on a slow subscriber, so a full channel marks that subscriber
// Lagged instead of blocking; the next delivered Message carries Lagged so the subscriber knows
// to resync rather than assume continuity.
func (p *Process) broadcast(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.subs {
		msg := Message{Line: line}
		if s.lagged {
			msg.Lagged = true
			s.lagged = false
		}
		select {
		case s.ch <- msg:
		default:
			s.lagged = true
		}
	}
}

// Subscribe returns a receiver over output lines produced after the call. The channel is closed
// once the process exits.
func (p *Process) Subscribe() <-chan Message {
	ch := make(chan Message, BroadcastBufferSize)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done.IsClosed() {
		close(ch)
		return ch
	}
	p.subs = append(p.subs, &subscriber{ch: ch})
	return ch
}

// Send writes a command line to the child's stdin, appending a trailing newline if absent.
// Fails with ErrDeadEngine if the process has already exited.
func (p *Process) Send(line string) error {
	if p.done.IsClosed() {
		return ErrDeadEngine
	}

	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}
	if _, err := io.WriteString(p.in, line); err != nil {
		return fmt.Errorf("%w: %v", ErrDeadEngine, err)
	}
	return nil
}

// Done is closed once the process has exited, whether by quit, kill, or crash.
func (p *Process) Done() <-chan struct{} {
	return p.done.Closed()
}

// Err returns the process' Wait error, if any. Only meaningful once Done is closed.
func (p *Process) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Quit sends the protocol's termination line and waits up to GracePeriod for the process to exit
// before escalating to Kill.
func (p *Process) Quit(ctx context.Context, line string) error {
	if p.done.IsClosed() {
		return nil
	}
	if err := p.Send(line); err != nil {
		logw.Warningf(ctx, "Failed to send %q to %v, killing: %v", line, p.path, err)
		return p.Kill()
	}

	select {
	case <-p.Done():
		return nil
	case <-time.After(GracePeriod):
		logw.Warningf(ctx, "Engine %v did not quit within %v, killing", p.path, GracePeriod)
		return p.Kill()
	}
}

// Kill forcibly terminates the process. Idempotent.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	if err != nil && errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
