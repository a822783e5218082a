package engine

import (
	"context"
	"fmt"
	"strings"

	"seekmark/internal/domain"
	"seekmark/internal/logger"
	"seekmark/internal/store"
)

// Engine owns the bookmark list lifecycle for whichever video an operation
// names. Every mutation is a full-list read-modify-write: the record store
// offers no compare-and-swap, so re-reading immediately before writing bounds
// the lost-update window to one round trip, which is acceptable for
// human-paced interaction.
type Engine struct {
	records store.Records
	logger  logger.Logger
}

// New creates a reconciliation engine over the given record store
func New(records store.Records, log logger.Logger) *Engine {
	return &Engine{
		records: records,
		logger:  log,
	}
}

// Fetch returns the bookmark list for a video. Storage errors degrade to an
// empty list with a logged diagnostic; callers never see them.
func (e *Engine) Fetch(ctx context.Context, videoID string) domain.List {
	if videoID == "" {
		return domain.List{}
	}
	list, err := e.records.Load(ctx, videoID)
	if err != nil {
		e.logger.Error("failed to fetch bookmarks, degrading to empty list",
			logger.String("video_id", videoID),
			logger.Error(err))
		return domain.List{}
	}
	return list
}

// Create inserts a new bookmark at the given playback position. It re-fetches
// the stored list, rejects timestamps within the duplicate window of an
// existing entry, and writes the re-sorted list back. An empty or whitespace
// desc falls back to the default description.
func (e *Engine) Create(ctx context.Context, videoID string, at float64, desc string) (domain.Bookmark, error) {
	if videoID == "" {
		return domain.Bookmark{}, ErrNoVideo
	}

	list, err := e.records.Load(ctx, videoID)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("create: %w", err)
	}

	if list.HasNear(at, domain.DuplicateWindow) {
		return domain.Bookmark{}, ErrDuplicate
	}

	b := domain.NewBookmark(at, desc)
	list = append(list, b)
	list.Sort()

	if err := e.records.Save(ctx, videoID, list); err != nil {
		return domain.Bookmark{}, fmt.Errorf("create: %w", err)
	}

	e.logger.Info("bookmark created",
		logger.String("video_id", videoID),
		logger.String("bookmark_id", b.ID),
		logger.Float64("time", at))

	return b, nil
}

// Delete removes entries matching the bookmark ID or the exact timestamp
// (the timestamp path supports legacy records written without IDs) and
// returns the resulting list. A missing target is a no-op, not an error.
func (e *Engine) Delete(ctx context.Context, videoID string, at float64, bookmarkID string) (domain.List, error) {
	if videoID == "" {
		return nil, ErrNoVideo
	}

	list, err := e.records.Load(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}

	kept := make(domain.List, 0, len(list))
	for _, b := range list {
		if b.Matches(bookmarkID, at) {
			continue
		}
		kept = append(kept, b)
	}

	if err := e.records.Save(ctx, videoID, kept); err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}

	if removed := len(list) - len(kept); removed > 0 {
		e.logger.Info("bookmark deleted",
			logger.String("video_id", videoID),
			logger.Int("removed", removed))
	}

	return kept, nil
}

// Edit replaces the description of the bookmark matching the ID or timestamp.
// An empty or whitespace replacement keeps the prior description. Returns
// ErrNotFound and performs no write when nothing matches.
func (e *Engine) Edit(ctx context.Context, videoID string, at float64, bookmarkID, newDesc string) (domain.List, error) {
	if videoID == "" {
		return nil, ErrNoVideo
	}

	list, err := e.records.Load(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	idx := -1
	for i, b := range list {
		if b.Matches(bookmarkID, at) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	if trimmed := strings.TrimSpace(newDesc); trimmed != "" {
		list[idx].Desc = trimmed
	}

	if err := e.records.Save(ctx, videoID, list); err != nil {
		return nil, fmt.Errorf("edit: %w", err)
	}

	e.logger.Info("bookmark edited",
		logger.String("video_id", videoID),
		logger.String("bookmark_id", list[idx].ID))

	return list, nil
}

// Merge folds an imported list into the stored one: existing entries first,
// then incoming ones, dropping any entry within the merge window of one
// already kept. The result is sorted and written back.
func (e *Engine) Merge(ctx context.Context, videoID string, incoming domain.List) (domain.List, error) {
	if videoID == "" {
		return nil, ErrNoVideo
	}

	existing, err := e.records.Load(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	// IDs are backfilled without sorting: the dedup pass runs over the
	// concatenation in given order, so the first-listed of two colliding
	// entries wins even in an unsorted import file.
	incoming = incoming.Clone()
	incoming.EnsureIDs()

	merged := make(domain.List, 0, len(existing)+len(incoming))
	for _, b := range append(existing, incoming...) {
		if merged.HasNear(b.Time, domain.MergeWindow) {
			continue
		}
		merged = append(merged, b)
	}
	merged.Sort()

	if err := e.records.Save(ctx, videoID, merged); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	e.logger.Info("bookmarks merged",
		logger.String("video_id", videoID),
		logger.Int("existing", len(existing)),
		logger.Int("incoming", len(incoming)),
		logger.Int("result", len(merged)))

	return merged, nil
}
