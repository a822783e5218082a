package popup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"seekmark/internal/channel"
	"seekmark/internal/domain"
	"seekmark/internal/engine"
	"seekmark/internal/logger"
	"seekmark/internal/store"
)

var (
	// ErrNotApplicable means the popup was opened on a non-watch page.
	ErrNotApplicable = errors.New("not a video watch page")

	// ErrRoundTripFailed means the page surface never answered a command.
	ErrRoundTripFailed = errors.New("page surface did not answer")

	// ErrBadImport means the import artifact does not carry a bookmark array.
	ErrBadImport = errors.New("import file has no bookmarks array")
)

// EmptyHint is shown in place of the list when no bookmarks exist yet.
const EmptyHint = "No bookmarks yet! Click the bookmark button on the video player to add one."

// ExportFile is the downloadable artifact produced by Export and accepted by
// Import.
type ExportFile struct {
	VideoID    string      `json:"videoId"`
	Bookmarks  domain.List `json:"bookmarks"`
	ExportedAt string      `json:"exportedAt"`
}

// Session is one opened popup: a transient view over the active tab's
// bookmark list. Reads go straight to the record store; mutations go through
// the page surface via the message channel so its cache and duplicate window
// stay consistent.
type Session struct {
	videoID string
	records store.Records
	engine  *engine.Engine
	bus     *channel.Bus
	logger  logger.Logger

	// all is the unfiltered in-memory copy backing search.
	all domain.List
}

// Open resolves the tab URL against the tracked sites and loads the current
// list. Returns ErrNotApplicable on non-watch pages; the caller renders the
// static placeholder and does nothing else.
func Open(ctx context.Context, tabURL string, sites []domain.Site, records store.Records, eng *engine.Engine, bus *channel.Bus, log logger.Logger) (*Session, error) {
	var videoID string
	for _, site := range sites {
		if id := site.VideoIDFromURL(tabURL); id != "" {
			videoID = id
			break
		}
	}
	if videoID == "" {
		return nil, ErrNotApplicable
	}

	s := &Session{
		videoID: videoID,
		records: records,
		engine:  eng,
		bus:     bus,
		logger:  log,
	}
	s.Refresh(ctx)
	return s, nil
}

// VideoID returns the session's video identifier.
func (s *Session) VideoID() string {
	return s.videoID
}

// Refresh reloads the unfiltered copy from the record store. Load failures
// degrade to an empty list with a logged diagnostic.
func (s *Session) Refresh(ctx context.Context) {
	list, err := s.records.Load(ctx, s.videoID)
	if err != nil {
		s.logger.Error("failed to load bookmarks for popup",
			logger.String("video_id", s.videoID),
			logger.Error(err))
		list = domain.List{}
	}
	s.all = list
}

// Bookmarks returns the full unfiltered list.
func (s *Session) Bookmarks() domain.List {
	return s.all.Clone()
}

// Search filters the in-memory copy by case-insensitive substring match on
// the description. A pure view operation; storage is never touched.
func (s *Session) Search(query string) domain.List {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.all.Clone()
	}

	out := make(domain.List, 0, len(s.all))
	for _, b := range s.all {
		if strings.Contains(strings.ToLower(b.Desc), query) {
			out = append(out, b)
		}
	}
	return out
}

// Play asks the page surface to seek to the bookmark. Fire-and-forget.
func (s *Session) Play(b domain.Bookmark) {
	s.bus.Send(channel.Message{Type: channel.TypePlay, Value: b.Time})
}

// Delete removes a bookmark through the page surface. The row disappears from
// the local copy immediately; if the round trip fails it is restored and an
// error returned, so the view can re-render.
func (s *Session) Delete(ctx context.Context, b domain.Bookmark) (domain.List, error) {
	prior := s.all.Clone()

	// Optimistic removal.
	kept := make(domain.List, 0, len(s.all))
	for _, existing := range s.all {
		if existing.Matches(b.ID, b.Time) {
			continue
		}
		kept = append(kept, existing)
	}
	s.all = kept

	reply := s.bus.Request(ctx, channel.Message{
		Type:       channel.TypeDelete,
		Value:      b.Time,
		BookmarkID: b.ID,
	})
	if reply == nil {
		s.all = prior
		return prior.Clone(), ErrRoundTripFailed
	}

	s.all = reply
	return reply.Clone(), nil
}

// Edit re-describes a bookmark through the page surface and adopts the
// authoritative post-operation list.
func (s *Session) Edit(ctx context.Context, b domain.Bookmark, newDesc string) (domain.List, error) {
	reply := s.bus.Request(ctx, channel.Message{
		Type:       channel.TypeEdit,
		Value:      b.Time,
		BookmarkID: b.ID,
		NewDesc:    newDesc,
	})
	if reply == nil {
		return s.all.Clone(), ErrRoundTripFailed
	}

	s.all = reply
	return reply.Clone(), nil
}

// Export serializes the current list as the downloadable artifact.
func (s *Session) Export() ([]byte, error) {
	file := ExportFile{
		VideoID:    s.videoID,
		Bookmarks:  s.all.Clone(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}
	return data, nil
}

// Import parses a user-supplied artifact, validates it carries a bookmark
// array, merges it into the stored list and re-renders from the merge result.
func (s *Session) Import(ctx context.Context, data []byte) (domain.List, error) {
	var file ExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImport, err)
	}
	if file.Bookmarks == nil {
		return nil, ErrBadImport
	}

	merged, err := s.engine.Merge(ctx, s.videoID, file.Bookmarks)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}

	s.all = merged
	return merged.Clone(), nil
}
