package page

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/logger"
	"seekmark/internal/store/memory"
)

type fakeControl struct {
	mu      sync.Mutex
	flashes int
}

func (c *fakeControl) Flash(time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flashes++
}

func (c *fakeControl) flashCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flashes
}

type fakePlayer struct {
	mu    sync.Mutex
	ready bool
	pos   float64
	seeks []float64
}

func (p *fakePlayer) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

func (p *fakePlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *fakePlayer) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	return nil
}

func (p *fakePlayer) seekLog() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

type fakeHost struct {
	mu            sync.Mutex
	url           string
	player        *fakePlayer
	hasPlayer     bool
	controlsReady bool
	control       *fakeControl
	attachCalls   int
	promptDesc    string
	promptOK      bool
	notices       []string
}

func newFakeHost(url string) *fakeHost {
	return &fakeHost{
		url:           url,
		player:        &fakePlayer{ready: true, pos: 10},
		hasPlayer:     true,
		controlsReady: true,
		promptOK:      true,
	}
}

func (h *fakeHost) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url
}

func (h *fakeHost) Player() (Player, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.hasPlayer {
		return nil, false
	}
	return h.player, true
}

func (h *fakeHost) ControlsReady() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.controlsReady
}

func (h *fakeHost) EnsureControl(func()) (Control, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachCalls++
	if h.control == nil {
		h.control = &fakeControl{}
	}
	return h.control, nil
}

func (h *fakeHost) Prompt(def string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.promptDesc == "" {
		return def, h.promptOK
	}
	return h.promptDesc, h.promptOK
}

func (h *fakeHost) Notify(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notices = append(h.notices, msg)
}

func (h *fakeHost) noticeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.notices)
}

func (h *fakeHost) controlCreated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.control != nil
}

func testConfig() Config {
	return Config{
		ControlRetryAttempts: 2,
		ControlRetryDelay:    5 * time.Millisecond,
		PollPeriod:           time.Hour,
		FlashDuration:        time.Millisecond,
	}
}

func startController(t *testing.T, host *fakeHost) (*Controller, *channel.Bus, *engine.Engine) {
	t.Helper()
	eng := engine.New(memory.NewStore(), logger.Nop())
	bus := channel.NewBus()
	c := New(eng, bus, host, []domain.Site{domain.DefaultSite()}, logger.Nop(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		bus.Close()
	})
	return c, bus, eng
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestInitialLoadActivatesVideo(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	c, _, _ := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, id := c.State()
		return state == VideoActive && id == "abc123"
	})
	if !host.controlCreated() {
		t.Error("affordance should be attached on activation")
	}
}

func TestNonWatchPageStaysIdle(t *testing.T) {
	host := newFakeHost("https://www.youtube.com/feed/home")
	c, _, _ := startController(t, host)

	time.Sleep(100 * time.Millisecond)
	state, id := c.State()
	if state != NoVideo || id != "" {
		t.Errorf("state = %v/%q, want NoVideo with empty ID", state, id)
	}
}

func TestRelayedNewDrivesTransition(t *testing.T) {
	host := newFakeHost("https://www.youtube.com/feed/home")
	c, bus, _ := startController(t, host)

	bus.Send(channel.Message{Type: channel.TypeNew, VideoID: "xyz789"})

	waitFor(t, "relayed video active", func() bool {
		state, id := c.State()
		return state == VideoActive && id == "xyz789"
	})
}

func TestReentrantTransitionsKeepSingleControl(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	c, bus, _ := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	// Same video announced again via every producer.
	bus.Send(channel.Message{Type: channel.TypeNew, VideoID: "abc123"})
	c.Source().PushURL(watchURL("abc123"))
	c.Source().Observe()
	time.Sleep(100 * time.Millisecond)

	host.mu.Lock()
	attachCalls := host.attachCalls
	host.mu.Unlock()
	if attachCalls != 1 {
		t.Errorf("attach calls = %d, want 1 (re-entrant transitions must not re-attach)", attachCalls)
	}
}

func TestControlsNeverAppear(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	host.controlsReady = false
	c, _, _ := startController(t, host)

	waitFor(t, "video active without control", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})
	if host.controlCreated() {
		t.Error("no control should be attached when the bar never appears")
	}
	if host.noticeCount() != 0 {
		t.Error("giving up on the control bar is silent, not user-visible")
	}
}

func TestPlayCommandSeeks(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	_, bus, _ := startController(t, host)

	bus.Send(channel.Message{Type: channel.TypePlay, Value: 42.5})

	waitFor(t, "seek", func() bool {
		log := host.player.seekLog()
		return len(log) == 1 && log[0] == 42.5
	})
}

func TestDeleteCommandRepliesWithList(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	c, bus, eng := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	b1, err := eng.Create(context.Background(), "abc123", 10, "one")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Create(context.Background(), "abc123", 20, "two"); err != nil {
		t.Fatal(err)
	}

	list := bus.Request(context.Background(), channel.Message{
		Type:       channel.TypeDelete,
		Value:      b1.Time,
		BookmarkID: b1.ID,
	})
	if len(list) != 1 || list[0].Time != 20 {
		t.Errorf("delete reply = %v, want single entry at t=20", list)
	}
}

func TestEditCommandRepliesNilWhenMissing(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	c, bus, _ := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	list := bus.Request(context.Background(), channel.Message{
		Type:       channel.TypeEdit,
		Value:      99,
		BookmarkID: "ghost",
		NewDesc:    "new",
	})
	if list != nil {
		t.Errorf("edit of missing bookmark should reply nil, got %v", list)
	}
}

func TestCreateFromPlayerSuccess(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	host.promptDesc = "my moment"
	c, _, eng := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	if err := c.CreateFromPlayer(context.Background()); err != nil {
		t.Fatalf("CreateFromPlayer() error = %v", err)
	}

	list := eng.Fetch(context.Background(), "abc123")
	if len(list) != 1 || list[0].Desc != "my moment" {
		t.Errorf("stored list = %v, want one entry desc=my moment", list)
	}
	waitFor(t, "flash feedback", func() bool {
		return host.control != nil && host.control.flashCount() == 1
	})
}

func TestCreateFromPlayerCancelled(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	host.promptOK = false
	c, _, eng := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	err := c.CreateFromPlayer(context.Background())
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("error = %v, want ErrCancelled", err)
	}
	if list := eng.Fetch(context.Background(), "abc123"); len(list) != 0 {
		t.Errorf("cancelled create must not write, got %v", list)
	}
}

func TestCreateFromPlayerDuplicate(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	c, _, eng := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	if _, err := eng.Create(context.Background(), "abc123", 10.5, "existing"); err != nil {
		t.Fatal(err)
	}

	err := c.CreateFromPlayer(context.Background()) // player position is 10
	if !errors.Is(err, engine.ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
	if host.noticeCount() == 0 {
		t.Error("duplicate create should produce a user-visible warning")
	}
}

func TestCreateFromPlayerNoPlayer(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	host.hasPlayer = false
	c, _, _ := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	err := c.CreateFromPlayer(context.Background())
	if !errors.Is(err, ErrPlayerUnavailable) {
		t.Errorf("error = %v, want ErrPlayerUnavailable", err)
	}
	if host.noticeCount() == 0 {
		t.Error("missing player should produce a user-visible message")
	}
}

func TestCreateFromPlayerNotReady(t *testing.T) {
	host := newFakeHost(watchURL("abc123"))
	host.player = &fakePlayer{ready: false, pos: 0}
	c, _, _ := startController(t, host)

	waitFor(t, "video active", func() bool {
		state, _ := c.State()
		return state == VideoActive
	})

	err := c.CreateFromPlayer(context.Background())
	if !errors.Is(err, ErrPlayerNotReady) {
		t.Errorf("error = %v, want ErrPlayerNotReady", err)
	}
}
