package relay

import (
	"context"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/logger"
)

// NavEvent is one observed browser navigation. Complete is true once the page
// has finished loading; earlier progress events are ignored.
type NavEvent struct {
	TabID    int
	URL      string
	Complete bool
}

// Relay watches tab navigation events and notifies the owning tab's page
// surface when a tracked watch page finishes loading a new video. It never
// touches storage; delivery failures are expected while the page surface is
// still injecting and are swallowed at debug level.
type Relay struct {
	sites  []domain.Site
	router *channel.Router
	events <-chan NavEvent
	logger logger.Logger
	stopCh chan struct{}
}

// New creates a relay consuming the given navigation event stream
func New(sites []domain.Site, router *channel.Router, events <-chan NavEvent, log logger.Logger) *Relay {
	return &Relay{
		sites:  sites,
		router: router,
		events: events,
		logger: log,
		stopCh: make(chan struct{}),
	}
}

// Start begins consuming navigation events until Stop or context cancellation.
func (r *Relay) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case ev, ok := <-r.events:
				if !ok {
					return
				}
				r.handle(ev)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the relay
func (r *Relay) Stop() {
	close(r.stopCh)
}

func (r *Relay) handle(ev NavEvent) {
	if !ev.Complete {
		return
	}

	videoID := r.videoID(ev.URL)
	if videoID == "" {
		return
	}

	bus, ok := r.router.Lookup(ev.TabID)
	if !ok {
		r.logger.Debug("page surface not attached yet, dropping NEW",
			logger.Int("tab_id", ev.TabID),
			logger.String("video_id", videoID))
		return
	}

	if !bus.Send(channel.Message{Type: channel.TypeNew, VideoID: videoID}) {
		r.logger.Debug("page surface not ready, NEW dropped",
			logger.Int("tab_id", ev.TabID),
			logger.String("video_id", videoID))
		return
	}

	r.logger.Info("new video relayed",
		logger.Int("tab_id", ev.TabID),
		logger.String("video_id", videoID))
}

func (r *Relay) videoID(rawURL string) string {
	for _, site := range r.sites {
		if id := site.VideoIDFromURL(rawURL); id != "" {
			return id
		}
	}
	return ""
}
