// Package playlist maintains ordered playlist membership and computes the
// effective duration of every entry.
package playlist

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/db"
	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/media"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

// Entry duration overrides are bounded to one hour.
const (
	MinEntryDuration = 1
	MaxEntryDuration = 3600
)

type Composer struct {
	store   db.Store
	catalog *media.Catalog
}

func NewComposer(store db.Store, catalog *media.Catalog) *Composer {
	return &Composer{store: store, catalog: catalog}
}

// Item is one resolved entry of a playlist.
type Item struct {
	Media             model.MediaAsset `json:"media"`
	EffectiveDuration int              `json:"effective_duration"`
	OrderIndex        int              `json:"order_index"`
	Override          *int             `json:"duration_override,omitempty"`
}

// Expansion is a playlist in playback order.
type Expansion struct {
	Playlist      model.Playlist `json:"playlist"`
	Items         []Item         `json:"items"`
	TotalDuration int            `json:"total_duration"`
}

func (c *Composer) Create(ctx context.Context, name string, description *string) (model.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Playlist{}, errs.Invalidf("playlist name is required")
	}
	return c.store.CreatePlaylist(ctx, name, description)
}

func (c *Composer) Get(ctx context.Context, id int) (model.Playlist, error) {
	return c.store.GetPlaylist(ctx, id)
}

func (c *Composer) List(ctx context.Context, limit, offset int) ([]model.Playlist, error) {
	if limit <= 0 {
		limit = media.DefaultPageSize
	}
	if limit > media.MaxPageSize {
		limit = media.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return c.store.ListPlaylists(ctx, limit, offset)
}

func (c *Composer) Update(ctx context.Context, id int, name, description *string) (model.Playlist, error) {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return model.Playlist{}, errs.Invalidf("playlist name must not be empty")
		}
		name = &trimmed
	}
	return c.store.UpdatePlaylist(ctx, id, name, description)
}

// Delete removes the playlist, its entries and the rules that target it.
func (c *Composer) Delete(ctx context.Context, id int) error {
	return c.store.DeletePlaylist(ctx, id)
}

func checkDuration(seconds int) error {
	if seconds < MinEntryDuration || seconds > MaxEntryDuration {
		return errs.Invalidf("duration must be between %d and %d seconds, got %d", MinEntryDuration, MaxEntryDuration, seconds)
	}
	return nil
}

// AddMedia appends mediaID at the end of the playlist. The optional duration
// overrides the media's own duration and is not allowed for videos.
func (c *Composer) AddMedia(ctx context.Context, playlistID, mediaID int, duration *int) (model.PlaylistEntry, error) {
	if _, err := c.store.GetPlaylist(ctx, playlistID); err != nil {
		return model.PlaylistEntry{}, err
	}
	m, err := c.catalog.Get(ctx, mediaID)
	if err != nil {
		return model.PlaylistEntry{}, err
	}
	if duration != nil {
		if err := checkDuration(*duration); err != nil {
			return model.PlaylistEntry{}, err
		}
		if m.MediaType == model.MediaVideo {
			return model.PlaylistEntry{}, errs.Unsupportedf("video %d has a fixed duration", mediaID)
		}
	}
	return c.store.AppendPlaylistEntry(ctx, playlistID, mediaID, duration)
}

// AddMediaBatch adds each id on its own. Ids that are missing or already
// present are reported in skipped and do not stop the rest.
func (c *Composer) AddMediaBatch(ctx context.Context, playlistID int, mediaIDs []int) (added []model.PlaylistEntry, skipped []errs.ItemError, err error) {
	if _, err := c.store.GetPlaylist(ctx, playlistID); err != nil {
		return nil, nil, err
	}
	added = []model.PlaylistEntry{}
	skipped = []errs.ItemError{}
	for _, id := range mediaIDs {
		e, err := c.AddMedia(ctx, playlistID, id, nil)
		if err != nil {
			if errs.KindOf(err) == errs.KindUnknown {
				return added, skipped, err
			}
			log.Debug().Err(err).Int("playlist_id", playlistID).Int("media_id", id).Msg("batch add skipped media")
			skipped = append(skipped, errs.NewItemError(id, err))
			continue
		}
		added = append(added, e)
	}
	return added, skipped, nil
}

func (c *Composer) RemoveMedia(ctx context.Context, playlistID, mediaID int) error {
	return c.store.RemovePlaylistEntry(ctx, playlistID, mediaID)
}

// Reorder assigns the given order indexes and returns the media ids that
// are not in the playlist. Known ids are updated even when some are missing.
func (c *Composer) Reorder(ctx context.Context, playlistID int, orders []db.EntryOrder) ([]int, error) {
	missing, err := c.store.ReorderPlaylistEntries(ctx, playlistID, orders)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		log.Warn().Int("playlist_id", playlistID).Ints("missing", missing).Msg("reorder skipped media not in playlist")
	}
	return missing, nil
}

func (c *Composer) UpdateEntryDuration(ctx context.Context, playlistID, mediaID, seconds int) error {
	if err := checkDuration(seconds); err != nil {
		return err
	}
	if _, err := c.store.GetPlaylistEntry(ctx, playlistID, mediaID); err != nil {
		return err
	}
	m, err := c.catalog.Get(ctx, mediaID)
	if err != nil {
		return err
	}
	if m.MediaType == model.MediaVideo {
		return errs.Unsupportedf("video %d has a fixed duration", mediaID)
	}
	return c.store.SetEntryDuration(ctx, playlistID, mediaID, &seconds)
}

// Resolve returns the playlist's entries in playback order together with
// their effective durations.
func (c *Composer) Resolve(ctx context.Context, playlistID int) (Expansion, error) {
	p, err := c.store.GetPlaylist(ctx, playlistID)
	if err != nil {
		return Expansion{}, err
	}
	entries, err := c.store.ListPlaylistEntries(ctx, playlistID)
	if err != nil {
		return Expansion{}, err
	}

	out := Expansion{Playlist: p, Items: make([]Item, 0, len(entries))}
	for _, e := range entries {
		if e.Media == nil {
			continue
		}
		eff := e.Media.Duration
		if e.Duration != nil {
			eff = *e.Duration
		}
		out.Items = append(out.Items, Item{
			Media:             *e.Media,
			EffectiveDuration: eff,
			OrderIndex:        e.OrderIndex,
			Override:          e.Duration,
		})
		out.TotalDuration += eff
	}
	return out, nil
}

func (c *Composer) Stats(ctx context.Context) (model.Stats, error) {
	return c.store.Stats(ctx)
}
