package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"seekmark/internal/domain"
	"seekmark/internal/logger"
)

// ItemSizeCeiling mirrors the per-item quota of browser sync storage.
// Serializations above it still go through; the log line is the early warning
// that a list is about to stop syncing on the extension side.
const ItemSizeCeiling = 8 * 1024

// Store persists one JSON-encoded bookmark list per video ID.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// NewStore creates a new Redis-backed record store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
	}
}

// Load retrieves the bookmark list for a video. A missing key yields an empty
// list; a corrupt value is logged and also yields an empty list, never an
// error. Legacy entries without IDs are normalized on the way out.
func (s *Store) Load(ctx context.Context, videoID string) (domain.List, error) {
	data, err := s.client.Get(ctx, VideoKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.List{}, nil
		}
		return nil, fmt.Errorf("failed to load bookmarks for %s: %w", videoID, err)
	}

	var list domain.List
	if err := json.Unmarshal(data, &list); err != nil {
		s.logger.Warn("stored bookmark record is not valid JSON, treating as empty",
			logger.String("video_id", videoID),
			logger.Error(err))
		return domain.List{}, nil
	}

	list.Normalize()
	return list, nil
}

// Save writes the full bookmark list for a video, replacing any prior value.
func (s *Store) Save(ctx context.Context, videoID string, list domain.List) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmarks for %s: %w", videoID, err)
	}

	if len(data) > ItemSizeCeiling {
		s.logger.Warn("bookmark list exceeds sync storage item ceiling",
			logger.String("video_id", videoID),
			logger.Int("bytes", len(data)),
			logger.Int("ceiling", ItemSizeCeiling))
	}

	if err := s.client.Set(ctx, VideoKey(videoID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save bookmarks for %s: %w", videoID, err)
	}

	return nil
}
