package supervisor

import (
	"testing"

	"github.com/seekerror/stdlib/pkg/util/iox"
	"github.com/stretchr/testify/assert"
)

func newTestProcess() *Process {
	return &Process{done: iox.NewAsyncCloser()}
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	p := newTestProcess()
	a := p.Subscribe()
	b := p.Subscribe()

	p.broadcast("readyok")

	assert.Equal(t, Message{Line: "readyok"}, <-a)
	assert.Equal(t, Message{Line: "readyok"}, <-b)
}

func TestBroadcastMarksLaggedAfterOverflow(t *testing.T) {
	p := newTestProcess()

	p.mu.Lock()
	sub := &subscriber{ch: make(chan Message, 1)}
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	p.broadcast("info depth 1")
	p.broadcast("info depth 2") // channel full: dropped, sub marked lagged
	assert.True(t, sub.lagged)

	assert.Equal(t, Message{Line: "info depth 1"}, <-sub.ch)

	p.broadcast("bestmove e2e4")
	msg := <-sub.ch
	assert.Equal(t, "bestmove e2e4", msg.Line)
	assert.True(t, msg.Lagged, "first message after an overflow must carry Lagged")
}

func TestSubscribeAfterExitReturnsClosedChannel(t *testing.T) {
	p := newTestProcess()
	p.done.Close()

	ch := p.Subscribe()
	_, ok := <-ch
	assert.False(t, ok)
}
