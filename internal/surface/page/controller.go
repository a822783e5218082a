package page

import (
	"context"
	"errors"
	"sync"
	"time"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/logger"
)

var (
	// ErrPlayerUnavailable means no media element could be resolved.
	ErrPlayerUnavailable = errors.New("video player not found")

	// ErrPlayerNotReady means the media element cannot report a position yet.
	ErrPlayerNotReady = errors.New("video player not ready")

	// ErrCancelled means the user dismissed the description prompt.
	ErrCancelled = errors.New("bookmark creation cancelled")
)

// NavState is the controller's position in the navigation state machine.
type NavState int

const (
	// NoVideo: the page is not a watch page, or no video ID is known yet.
	NoVideo NavState = iota
	// Transitioning: a new video ID was detected and the controller is
	// waiting for the page layout to stabilize.
	Transitioning
	// VideoActive: a video is active and the affordance lifecycle has run.
	VideoActive
)

func (s NavState) String() string {
	switch s {
	case Transitioning:
		return "transitioning"
	case VideoActive:
		return "video_active"
	default:
		return "no_video"
	}
}

// Config tunes the controller's retry and feedback timing.
// Zero values fall back to the defaults observed to work on the host site.
type Config struct {
	ControlRetryAttempts int           // bounded wait for the native control bar
	ControlRetryDelay    time.Duration // delay between attempts
	PollPeriod           time.Duration // fallback location poll period
	FlashDuration        time.Duration // create-feedback flash length
}

func (c *Config) setDefaults() {
	if c.ControlRetryAttempts <= 0 {
		c.ControlRetryAttempts = 20
	}
	if c.ControlRetryDelay <= 0 {
		c.ControlRetryDelay = 300 * time.Millisecond
	}
	if c.PollPeriod <= 0 {
		c.PollPeriod = 3 * time.Second
	}
	if c.FlashDuration <= 0 {
		c.FlashDuration = time.Second
	}
}

// Controller is the page surface: it owns the per-tab session state (no
// globals, one instance per tab), drives the navigation state machine, keeps
// the bookmark affordance attached, and executes commands arriving over the
// message channel.
type Controller struct {
	engine *engine.Engine
	bus    *channel.Bus
	host   Host
	source *VideoIDSource
	logger logger.Logger
	cfg    Config

	mu      sync.Mutex
	state   NavState
	videoID string
	cache   domain.List
	control Control
}

// New creates a page surface controller for one tab
func New(eng *engine.Engine, bus *channel.Bus, host Host, sites []domain.Site, log logger.Logger, cfg Config) *Controller {
	cfg.setDefaults()
	return &Controller{
		engine: eng,
		bus:    bus,
		host:   host,
		source: NewVideoIDSource(sites, host.Location, cfg.PollPeriod),
		logger: log,
		cfg:    cfg,
	}
}

// Source exposes the navigation source so host plumbing can feed it
// (history events, mutation-observer callbacks).
func (c *Controller) Source() *VideoIDSource {
	return c.source
}

// State returns the current navigation state and active video ID.
func (c *Controller) State() (NavState, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.videoID
}

// Run drives the controller until the context is cancelled: it seeds the
// state machine from the initial location, then serves navigation changes
// and channel commands. Blocks; run it in its own goroutine.
func (c *Controller) Run(ctx context.Context) {
	c.source.Start(ctx)
	defer c.source.Stop()

	// Initial page load may already be a watch page.
	c.source.PushURL(c.host.Location())

	for {
		select {
		case videoID := <-c.source.Changes():
			c.transition(ctx, videoID)
		case env, ok := <-c.bus.Deliver():
			if !ok {
				return
			}
			c.handle(ctx, env)
		case <-ctx.Done():
			return
		}
	}
}

// transition moves the state machine to a new active video: wait for the
// native control bar, ensure the single affordance, refresh the local cache.
// Re-entrant transitions to the same video are no-ops.
func (c *Controller) transition(ctx context.Context, videoID string) {
	c.mu.Lock()
	if videoID == "" || videoID == c.videoID {
		c.mu.Unlock()
		return
	}
	c.state = Transitioning
	c.videoID = videoID
	c.mu.Unlock()

	c.logger.Info("new video detected",
		logger.String("video_id", videoID))

	if c.waitForControls(ctx) {
		c.ensureControl()
	} else {
		// The affordance simply will not appear on this page.
		c.logger.Warn("native controls never appeared",
			logger.String("video_id", videoID),
			logger.Int("attempts", c.cfg.ControlRetryAttempts))
	}

	list := c.engine.Fetch(ctx, videoID)

	c.mu.Lock()
	// A later transition may have superseded this one while we waited.
	if c.videoID == videoID {
		c.cache = list
		c.state = VideoActive
	}
	c.mu.Unlock()
}

// waitForControls polls for the native control bar with a fixed attempt cap.
func (c *Controller) waitForControls(ctx context.Context) bool {
	for attempt := 0; attempt < c.cfg.ControlRetryAttempts; attempt++ {
		if c.host.ControlsReady() {
			return true
		}
		select {
		case <-time.After(c.cfg.ControlRetryDelay):
		case <-ctx.Done():
			return false
		}
	}
	return c.host.ControlsReady()
}

func (c *Controller) ensureControl() {
	control, err := c.host.EnsureControl(func() {
		_ = c.CreateFromPlayer(context.Background())
	})
	if err != nil {
		c.logger.Error("failed to attach bookmark control",
			logger.Error(err))
		return
	}

	c.mu.Lock()
	c.control = control
	c.mu.Unlock()
}

// handle executes one channel command. DELETE and EDIT reply with the
// post-operation list (nil on failure); NEW and PLAY are fire-and-forget.
func (c *Controller) handle(ctx context.Context, env channel.Envelope) {
	msg := env.Msg
	switch msg.Type {
	case channel.TypeNew:
		videoID := msg.VideoID
		if videoID == "" {
			videoID = c.source.extract(c.host.Location())
		}
		c.source.PushVideoID(videoID)

	case channel.TypePlay:
		c.play(msg.Value)

	case channel.TypeDelete:
		list, err := c.engine.Delete(ctx, c.activeVideo(), msg.Value, msg.BookmarkID)
		if err != nil {
			c.logger.Error("delete command failed", logger.Error(err))
			env.Reply(nil)
			return
		}
		c.setCache(list)
		env.Reply(list)

	case channel.TypeEdit:
		list, err := c.engine.Edit(ctx, c.activeVideo(), msg.Value, msg.BookmarkID, msg.NewDesc)
		if err != nil {
			if !errors.Is(err, engine.ErrNotFound) {
				c.logger.Error("edit command failed", logger.Error(err))
			}
			env.Reply(nil)
			return
		}
		c.setCache(list)
		env.Reply(list)

	default:
		c.logger.Warn("unknown message type",
			logger.String("type", string(msg.Type)))
	}
}

// play seeks the active media element. Failures are logged, never surfaced;
// the user observes a no-op.
func (c *Controller) play(seconds float64) {
	player, ok := c.host.Player()
	if !ok {
		c.logger.Error("player not found for playback",
			logger.Float64("time", seconds))
		return
	}
	if err := player.Seek(seconds); err != nil {
		c.logger.Error("seek failed",
			logger.Float64("time", seconds),
			logger.Error(err))
	}
}

// CreateFromPlayer is the shared create flow behind the affordance click and
// the keyboard shortcut: read the playback position, prompt for a
// description, create, flash the control on success.
func (c *Controller) CreateFromPlayer(ctx context.Context) error {
	videoID := c.activeVideo()
	if videoID == "" {
		videoID = c.source.extract(c.host.Location())
		if videoID == "" {
			c.host.Notify("Could not identify the video. Please refresh the page.")
			return engine.ErrNoVideo
		}
	}

	player, ok := c.host.Player()
	if !ok {
		c.host.Notify("Video player not found. Please wait for the video to load.")
		return ErrPlayerUnavailable
	}

	pos := player.Position()
	if pos == 0 && !player.Ready() {
		c.host.Notify("Please wait for the video to load before bookmarking.")
		return ErrPlayerNotReady
	}

	desc, ok := c.host.Prompt(domain.DefaultDesc(pos))
	if !ok {
		return ErrCancelled
	}

	b, err := c.engine.Create(ctx, videoID, pos, desc)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrDuplicate):
			c.host.Notify("A bookmark already exists near this timestamp!")
		default:
			c.logger.Error("create failed", logger.Error(err))
			c.host.Notify("Could not save the bookmark. Storage is unavailable; check the connection and try again.")
		}
		return err
	}

	c.mu.Lock()
	c.cache = append(c.cache, b)
	c.cache.Sort()
	control := c.control
	c.mu.Unlock()

	if control != nil {
		control.Flash(c.cfg.FlashDuration)
	}

	return nil
}

// Bookmarks returns the controller's cached list for the active video.
func (c *Controller) Bookmarks() domain.List {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Clone()
}

func (c *Controller) activeVideo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoID
}

func (c *Controller) setCache(list domain.List) {
	c.mu.Lock()
	c.cache = list
	c.mu.Unlock()
}
