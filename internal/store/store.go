package store

import (
	"context"

	"seekmark/internal/domain"
)

// Records is the per-video bookmark record store. One value per video ID,
// serialized as a JSON array of bookmarks.
//
// Load never fails on a missing or corrupt record: both degrade to an empty
// list (corruption is logged by the implementation). Save replaces the whole
// value; the underlying service offers no atomic append or compare-and-swap,
// so callers re-read before every mutation to bound the staleness window.
type Records interface {
	Load(ctx context.Context, videoID string) (domain.List, error)
	Save(ctx context.Context, videoID string, list domain.List) error
}
