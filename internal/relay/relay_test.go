package relay

import (
	"context"
	"testing"
	"time"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/logger"
)

func startTestRelay(t *testing.T, router *channel.Router) chan<- NavEvent {
	t.Helper()
	events := make(chan NavEvent, 8)
	r := New([]domain.Site{domain.DefaultSite()}, router, events, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	t.Cleanup(func() {
		r.Stop()
		cancel()
	})
	return events
}

func receive(t *testing.T, bus *channel.Bus) channel.Message {
	t.Helper()
	select {
	case env := <-bus.Deliver():
		return env.Msg
	case <-time.After(time.Second):
		t.Fatal("expected a relayed message")
		return channel.Message{}
	}
}

func assertSilent(t *testing.T, bus *channel.Bus) {
	t.Helper()
	select {
	case env := <-bus.Deliver():
		t.Fatalf("unexpected message relayed: %+v", env.Msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRelayPostsNewOnCompletedWatchPage(t *testing.T) {
	router := channel.NewRouter()
	bus := router.Attach(7)
	events := startTestRelay(t, router)

	events <- NavEvent{TabID: 7, URL: "https://www.youtube.com/watch?v=abc123", Complete: true}

	msg := receive(t, bus)
	if msg.Type != channel.TypeNew {
		t.Errorf("Type = %v, want NEW", msg.Type)
	}
	if msg.VideoID != "abc123" {
		t.Errorf("VideoID = %q, want abc123", msg.VideoID)
	}
}

func TestRelayIgnoresIncompleteNavigation(t *testing.T) {
	router := channel.NewRouter()
	bus := router.Attach(7)
	events := startTestRelay(t, router)

	events <- NavEvent{TabID: 7, URL: "https://www.youtube.com/watch?v=abc123", Complete: false}

	assertSilent(t, bus)
}

func TestRelayIgnoresNonWatchPages(t *testing.T) {
	router := channel.NewRouter()
	bus := router.Attach(7)
	events := startTestRelay(t, router)

	events <- NavEvent{TabID: 7, URL: "https://www.youtube.com/feed/home", Complete: true}
	events <- NavEvent{TabID: 7, URL: "https://example.com/watch?v=abc", Complete: true}

	assertSilent(t, bus)
}

func TestRelaySwallowsMissingTab(t *testing.T) {
	router := channel.NewRouter()
	events := startTestRelay(t, router)

	// No bus attached for tab 9; the relay must carry on without error.
	events <- NavEvent{TabID: 9, URL: "https://www.youtube.com/watch?v=abc123", Complete: true}

	bus := router.Attach(7)
	events <- NavEvent{TabID: 7, URL: "https://www.youtube.com/watch?v=later1", Complete: true}

	msg := receive(t, bus)
	if msg.VideoID != "later1" {
		t.Errorf("VideoID = %q, want later1", msg.VideoID)
	}
}
