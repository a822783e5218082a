package channel

import (
	"context"
	"sync"
	"time"

	"seekmark/internal/domain"
)

// DefaultRequestTimeout bounds how long a Request waits for the page surface.
// A navigated-away or closed tab never answers; callers get nil instead of
// hanging, and drive their UI from the optimistic update.
const DefaultRequestTimeout = 5 * time.Second

// Envelope pairs a message with its reply path. Fire-and-forget messages
// carry a nil reply channel; Reply is then a no-op.
type Envelope struct {
	Msg   Message
	reply chan domain.List
	once  *sync.Once
}

// Reply delivers the post-operation list to the requester. Safe to call more
// than once; only the first reply counts. A nil list signals failure.
func (e Envelope) Reply(list domain.List) {
	if e.reply == nil {
		return
	}
	e.once.Do(func() {
		e.reply <- list
		close(e.reply)
	})
}

// Bus is the in-process message channel for one tab: many senders (relay,
// popup, remote surfaces), one receiver (the page surface controller).
// Delivery is best-effort; a full or closed bus drops the message, which is
// the expected condition during the window before the receiver attaches.
type Bus struct {
	ch      chan Envelope
	done    chan struct{}
	closeMu sync.Once
	timeout time.Duration
}

// NewBus creates a bus with a small delivery buffer.
func NewBus() *Bus {
	return &Bus{
		ch:      make(chan Envelope, 16),
		done:    make(chan struct{}),
		timeout: DefaultRequestTimeout,
	}
}

// Deliver exposes the receive side. The page surface controller drains it.
func (b *Bus) Deliver() <-chan Envelope {
	return b.ch
}

// Send posts a fire-and-forget message. Returns false when the message was
// dropped (no receiver keeping up, or the bus is closed).
func (b *Bus) Send(msg Message) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ch <- Envelope{Msg: msg}:
		return true
	case <-b.done:
		return false
	default:
		return false
	}
}

// Request posts a message expecting the resulting bookmark list and waits for
// the reply. Returns nil on timeout, cancellation, a dropped message, or an
// explicit failure reply.
func (b *Bus) Request(ctx context.Context, msg Message) domain.List {
	env := Envelope{
		Msg:   msg,
		reply: make(chan domain.List, 1),
		once:  &sync.Once{},
	}

	select {
	case <-b.done:
		return nil
	default:
	}
	select {
	case b.ch <- env:
	case <-b.done:
		return nil
	case <-ctx.Done():
		return nil
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case list := <-env.reply:
		return list
	case <-ctx.Done():
		return nil
	case <-timer.C:
		return nil
	}
}

// Close shuts the bus down. Pending requests resolve to nil via their timeout.
func (b *Bus) Close() {
	b.closeMu.Do(func() {
		close(b.done)
	})
}
