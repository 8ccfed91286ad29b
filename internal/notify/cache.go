package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PlaylistInvalidator drops cached playlist renderings.
type PlaylistInvalidator interface {
	Invalidate(ctx context.Context, playlistID int) error
	InvalidateAll(ctx context.Context) error
}

// CacheSink keeps the player playlist cache consistent with mutations.
type CacheSink struct {
	cache  PlaylistInvalidator
	logger zerolog.Logger
}

func NewCacheSink(cache PlaylistInvalidator, logger zerolog.Logger) *CacheSink {
	return &CacheSink{cache: cache, logger: logger.With().Str("component", "cache_sink").Logger()}
}

func (s *CacheSink) Notify(event string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	switch event {
	case PlaylistUpdated, PlaylistDeleted:
		if id, ok := intField(payload, "id"); ok {
			err = s.cache.Invalidate(ctx, id)
		}
	case PlaylistMediaAdded, PlaylistMediaRemoved, PlaylistMediaReordered, PlaylistMediaDurationUpdated:
		if id, ok := intField(payload, "playlist_id"); ok {
			err = s.cache.Invalidate(ctx, id)
		}
	case MediaUpdated, MediaDeleted:
		err = s.cache.InvalidateAll(ctx)
	default:
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("playlist cache invalidation failed")
	}
}

func intField(payload map[string]any, key string) (int, bool) {
	switch v := payload[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
