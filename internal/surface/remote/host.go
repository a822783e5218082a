package remote

import (
	"errors"
	"sync"
	"time"

	"seekmark/internal/logger"
	"seekmark/internal/surface/page"
)

const (
	// DefaultQueryTimeout bounds DOM queries; the client answers them
	// synchronously so anything slower means the page is gone.
	DefaultQueryTimeout = 2 * time.Second

	// DefaultPromptTimeout bounds the description prompt. The user is typing;
	// an expired prompt counts as cancelled.
	DefaultPromptTimeout = 60 * time.Second
)

// ErrControlRejected means the client could not attach the bookmark control.
var ErrControlRejected = errors.New("client rejected control attachment")

// SendFunc delivers one frame to the browser client.
type SendFunc func(Frame) error

// Host proxies the page surface host contract over a frame transport. The
// transport's read loop feeds it locations, replies and clicks; the page
// controller calls the contract methods from its own goroutines.
type Host struct {
	send          SendFunc
	logger        logger.Logger
	queryTimeout  time.Duration
	promptTimeout time.Duration

	mu       sync.Mutex
	loc      string
	onClick  func()
	attached bool
	closed   bool
	nextID   uint64
	pending  map[uint64]chan Frame
}

// NewHost creates a host over the given transport.
func NewHost(send SendFunc, log logger.Logger) *Host {
	return &Host{
		send:          send,
		logger:        log,
		queryTimeout:  DefaultQueryTimeout,
		promptTimeout: DefaultPromptTimeout,
		pending:       make(map[uint64]chan Frame),
	}
}

// SetLocation records the client's current URL. Called from the read loop on
// navigation frames.
func (h *Host) SetLocation(url string) {
	h.mu.Lock()
	h.loc = url
	h.mu.Unlock()
}

// HandleReply routes a reply frame to its waiting query. Unknown IDs are
// stale replies from timed-out queries and are dropped.
func (h *Host) HandleReply(f Frame) {
	h.mu.Lock()
	ch, ok := h.pending[f.ID]
	if ok {
		delete(h.pending, f.ID)
	}
	h.mu.Unlock()

	if ok {
		ch <- f
	}
}

// Click runs the registered control callback. Called from the read loop.
func (h *Host) Click() {
	h.mu.Lock()
	onClick := h.onClick
	h.mu.Unlock()

	if onClick != nil {
		onClick()
	}
}

// Close fails all pending queries. Call when the transport drops.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.pending {
		close(ch)
		delete(h.pending, id)
	}
}

// query sends a query frame and waits for its reply.
func (h *Host) query(op, text string, timeout time.Duration) (Frame, bool) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Frame{}, false
	}
	h.nextID++
	id := h.nextID
	ch := make(chan Frame, 1)
	h.pending[id] = ch
	h.mu.Unlock()

	if err := h.send(Frame{Kind: KindQuery, ID: id, Op: op, Text: text}); err != nil {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
		return Frame{}, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case f, ok := <-ch:
		return f, ok
	case <-timer.C:
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
		h.logger.Debug("client query timed out", logger.String("op", op))
		return Frame{}, false
	}
}

// Location returns the last reported URL.
func (h *Host) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loc
}

// Player resolves the client's media element.
func (h *Host) Player() (page.Player, bool) {
	f, ok := h.query(OpPlayer, "", h.queryTimeout)
	if !ok || !f.OK {
		return nil, false
	}
	return &player{host: h}, true
}

// ControlsReady reports whether the client's native control bar exists yet.
func (h *Host) ControlsReady() bool {
	f, ok := h.query(OpControls, "", h.queryTimeout)
	return ok && f.Ready
}

// EnsureControl asks the client to attach the bookmark control and wires the
// click callback. Repeated calls return the existing control.
func (h *Host) EnsureControl(onClick func()) (page.Control, error) {
	h.mu.Lock()
	if h.attached {
		h.onClick = onClick
		h.mu.Unlock()
		return &control{host: h}, nil
	}
	h.mu.Unlock()

	f, ok := h.query(OpEnsureControl, "", h.queryTimeout)
	if !ok || !f.OK {
		return nil, ErrControlRejected
	}

	h.mu.Lock()
	h.attached = true
	h.onClick = onClick
	h.mu.Unlock()

	return &control{host: h}, nil
}

// Prompt asks the user for a description. Timeout counts as cancelled.
func (h *Host) Prompt(def string) (string, bool) {
	f, ok := h.query(OpPrompt, def, h.promptTimeout)
	if !ok || !f.OK {
		return "", false
	}
	return f.Text, true
}

// Notify shows a blocking message on the client.
func (h *Host) Notify(msg string) {
	if err := h.send(Frame{Kind: KindNotify, Text: msg}); err != nil {
		h.logger.Debug("notify dropped", logger.Error(err))
	}
}

type player struct {
	host *Host
}

func (p *player) Ready() bool {
	f, ok := p.host.query(OpPlayerReady, "", p.host.queryTimeout)
	return ok && f.Ready
}

func (p *player) Position() float64 {
	f, ok := p.host.query(OpPosition, "", p.host.queryTimeout)
	if !ok {
		return 0
	}
	return f.Value
}

func (p *player) Seek(seconds float64) error {
	return p.host.send(Frame{Kind: KindSeek, Value: seconds})
}

type control struct {
	host *Host
}

func (c *control) Flash(d time.Duration) {
	if err := c.host.send(Frame{Kind: KindFlash, Value: d.Seconds()}); err != nil {
		c.host.logger.Debug("flash dropped", logger.Error(err))
	}
}
