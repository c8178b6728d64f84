// Package options implements the engine-options discovery utility of SPEC_FULL's expanded module
// list: spawn an engine, send the identify command, and collect every advertised option until the
// identify-ok line arrives.
package options

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/morlock/pkg/protocol"
	"github.com/herohde/morlock/pkg/supervisor"
)

// Timeout bounds how long Query waits for uciok before giving up.
const Timeout = 10 * time.Second

// Query spawns the engine at path, sends "uci", and collects every "option name ..." line until
// "uciok" arrives, then quits the engine. Grounded in original_source's query_engine_options Tauri
// command and pkg/protocol's option-line parser.
func Query(ctx context.Context, path string, args ...string) ([]protocol.Option, error) {
	proc, err := supervisor.Spawn(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	defer proc.Kill()

	sub := proc.Subscribe()
	if err := proc.Send("uci"); err != nil {
		return nil, fmt.Errorf("options: send uci: %w", err)
	}

	var opts []protocol.Option
	timer := time.NewTimer(Timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-sub:
			if !ok {
				return opts, fmt.Errorf("options: engine output stream closed")
			}
			if msg.Line == protocol.UCIOk {
				_ = proc.Quit(ctx, "quit")
				return opts, nil
			}
			if opt, ok := protocol.ParseOption(msg.Line); ok {
				opts = append(opts, opt)
			}
		case <-proc.Done():
			return opts, fmt.Errorf("options: engine process exited before uciok")
		case <-timer.C:
			return opts, fmt.Errorf("options: timed out waiting for uciok after %v", Timeout)
		case <-ctx.Done():
			return opts, ctx.Err()
		}
	}
}
