package page

import (
	"context"
	"time"

	"seekmark/internal/domain"
)

// Locator returns the page's current URL. The host site performs in-page
// navigations that never reload the document, so the URL has to be sampled,
// not just observed at load time.
type Locator func() string

// VideoIDSource merges three redundant navigation detectors into one
// deduplicated stream of video ID changes:
//
//   - pushed events (history navigation, relayed NEW notifications),
//   - observer callbacks (DOM mutation detection re-sampling the location),
//   - a low-frequency fallback poll of the location.
//
// The host site does not reliably emit standard navigation events, hence the
// redundancy; consumers see each distinct video ID exactly once regardless of
// how many detectors noticed it.
type VideoIDSource struct {
	sites      []domain.Site
	locator    Locator
	pollPeriod time.Duration

	candidates chan string
	changes    chan string
	stopCh     chan struct{}
}

// NewVideoIDSource creates a source over the given locator
func NewVideoIDSource(sites []domain.Site, locator Locator, pollPeriod time.Duration) *VideoIDSource {
	return &VideoIDSource{
		sites:      sites,
		locator:    locator,
		pollPeriod: pollPeriod,
		candidates: make(chan string, 16),
		changes:    make(chan string, 4),
		stopCh:     make(chan struct{}),
	}
}

// Changes is the unified, deduplicated stream of new video IDs.
func (s *VideoIDSource) Changes() <-chan string {
	return s.changes
}

// PushURL feeds a URL observed by an event listener (history navigation).
func (s *VideoIDSource) PushURL(rawURL string) {
	s.pushCandidate(s.extract(rawURL))
}

// PushVideoID feeds an already-extracted video ID (a relayed NEW notification).
func (s *VideoIDSource) PushVideoID(videoID string) {
	s.pushCandidate(videoID)
}

// Observe is the mutation-observer hook: something on the page changed, so
// re-sample the location. Cheap and safe to call arbitrarily often.
func (s *VideoIDSource) Observe() {
	s.pushCandidate(s.extract(s.locator()))
}

// Start runs the merge loop and the fallback poll until Stop or cancellation.
func (s *VideoIDSource) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop stops the source
func (s *VideoIDSource) Stop() {
	close(s.stopCh)
}

func (s *VideoIDSource) run(ctx context.Context) {
	ticker := time.NewTicker(s.pollPeriod)
	defer ticker.Stop()

	current := ""
	for {
		select {
		case id := <-s.candidates:
			if id == "" || id == current {
				continue
			}
			current = id
			select {
			case s.changes <- id:
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		case <-ticker.C:
			s.pushCandidate(s.extract(s.locator()))
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *VideoIDSource) pushCandidate(id string) {
	if id == "" {
		return
	}
	select {
	case s.candidates <- id:
	default:
		// Candidate buffer full; the poll will catch up.
	}
}

func (s *VideoIDSource) extract(rawURL string) string {
	for _, site := range s.sites {
		if id := site.VideoIDFromURL(rawURL); id != "" {
			return id
		}
	}
	return ""
}
