// Package status holds the single transient status message: only the latest
// message is visible, and it dismisses itself after a fixed delay.
package status

import (
	"sync"
	"time"
)

type Kind string

const (
	Info  Kind = "info"
	Error Kind = "error"
)

type Message struct {
	Text string
	Kind Kind
}

// Box owns the message lifecycle. Setting a message re-arms the dismiss
// timer; Close cancels it. Changes are delivered on a latest-wins channel.
type Box struct {
	ttl time.Duration

	mu      sync.Mutex
	current *Message
	timer   *time.Timer
	gen     uint64
	closed  bool

	changes chan Message
}

func New(ttl time.Duration) *Box {
	return &Box{
		ttl:     ttl,
		changes: make(chan Message, 1),
	}
}

// Info sets an informational message.
func (b *Box) Info(text string) {
	b.set(Message{Text: text, Kind: Info})
}

// Error sets an error message.
func (b *Box) Error(text string) {
	b.set(Message{Text: text, Kind: Error})
}

// Current returns the visible message, or false when none is showing.
func (b *Box) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Message{}, false
	}
	return *b.current, true
}

// Changes delivers every message transition, including the empty message
// emitted when a timer dismisses the current one.
func (b *Box) Changes() <-chan Message {
	return b.changes
}

func (b *Box) set(msg Message) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.current = &msg
	// A new message restarts the dismiss countdown. Stop can lose against a
	// timer that already fired; the generation check in expire keeps that
	// stale callback from clearing this message.
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(gen) })
	b.mu.Unlock()

	b.notify(msg)
}

// expire dismisses the message scheduled under gen. A later set supersedes
// the timer, making this a no-op.
func (b *Box) expire(gen uint64) {
	b.mu.Lock()
	if b.closed || b.current == nil || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.timer = nil
	b.mu.Unlock()

	b.notify(Message{})
}

func (b *Box) notify(msg Message) {
	select {
	case <-b.changes:
	default:
	}
	b.changes <- msg
}

// Close cancels the pending dismiss timer. The box ignores writes afterwards.
func (b *Box) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
