package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const playlistColumns = `id, name, description, created_at, updated_at`

const entryColumns = `id, playlist_id, media_id, order_index, duration, added_at`

// @ PLAYLIST
func (s *pgStore) CreatePlaylist(ctx context.Context, name string, description *string) (model.Playlist, error) {
	var p model.Playlist
	q := `
	INSERT INTO playlists (name, description, created_at, updated_at)
	VALUES ($1, $2, now(), now())
	RETURNING ` + playlistColumns + `;`
	if err := s.db.GetContext(ctx, &p, q, name, description); err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: failed to insert playlist")
		return model.Playlist{}, translate(err, "playlist")
	}
	return p, nil
}

func (s *pgStore) GetPlaylist(ctx context.Context, id int) (model.Playlist, error) {
	var p model.Playlist
	q := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = $1;`
	if err := s.db.GetContext(ctx, &p, q, id); err != nil {
		return model.Playlist{}, translate(err, "playlist")
	}
	return p, nil
}

func (s *pgStore) ListPlaylists(ctx context.Context, limit, offset int) ([]model.Playlist, error) {
	out := []model.Playlist{}
	q := `SELECT ` + playlistColumns + ` FROM playlists ORDER BY id LIMIT $1 OFFSET $2;`
	if err := s.db.SelectContext(ctx, &out, q, limit, offset); err != nil {
		log.Error().Err(err).Msg("[db] ListPlaylists: failed to select playlists")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdatePlaylist(ctx context.Context, id int, name, description *string) (model.Playlist, error) {
	var p model.Playlist
	q := `
	UPDATE playlists
	SET
	name        = COALESCE($2, name),
	description = COALESCE($3, description),
	updated_at  = now()
	WHERE id = $1
	RETURNING ` + playlistColumns + `;`
	if err := s.db.GetContext(ctx, &p, q, id, name, description); err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] UpdatePlaylist failed")
		return model.Playlist{}, translate(err, "playlist")
	}
	return p, nil
}

// DeletePlaylist cascades to playlist_media and schedules through the foreign keys.
func (s *pgStore) DeletePlaylist(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("playlist_id", id).Msg("[db] DeletePlaylist failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundf("playlist %d not found", id)
	}
	return nil
}

// lockPlaylist takes the row lock that serializes entry mutations of one playlist.
func lockPlaylist(ctx context.Context, tx *sqlx.Tx, playlistID int) error {
	var id int
	if err := tx.GetContext(ctx, &id, `SELECT id FROM playlists WHERE id = $1 FOR UPDATE;`, playlistID); err != nil {
		return translate(err, "playlist")
	}
	return nil
}

func touchPlaylist(ctx context.Context, tx *sqlx.Tx, playlistID int) error {
	_, err := tx.ExecContext(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1;`, playlistID)
	return err
}

func (s *pgStore) AppendPlaylistEntry(ctx context.Context, playlistID, mediaID int, duration *int) (model.PlaylistEntry, error) {
	var it model.PlaylistEntry
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		q := `
		INSERT INTO playlist_media
		(playlist_id, media_id, order_index, duration, added_at)
		SELECT $1::int, $2::int, COALESCE(MAX(order_index) + 1, 0), $3::int, clock_timestamp()
		FROM playlist_media
		WHERE playlist_id = $1
		RETURNING ` + entryColumns + `;`
		if err := tx.GetContext(ctx, &it, q, playlistID, mediaID, duration); err != nil {
			return translate(err, "playlist entry")
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Int("media_id", mediaID).Msg("[db] AppendPlaylistEntry failed")
		return model.PlaylistEntry{}, err
	}
	return it, nil
}

func (s *pgStore) GetPlaylistEntry(ctx context.Context, playlistID, mediaID int) (model.PlaylistEntry, error) {
	var it model.PlaylistEntry
	q := `SELECT ` + entryColumns + ` FROM playlist_media WHERE playlist_id = $1 AND media_id = $2;`
	if err := s.db.GetContext(ctx, &it, q, playlistID, mediaID); err != nil {
		return model.PlaylistEntry{}, translate(err, "playlist entry")
	}
	return it, nil
}

func (s *pgStore) RemovePlaylistEntry(ctx context.Context, playlistID, mediaID int) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM playlist_media WHERE playlist_id = $1 AND media_id = $2;`, playlistID, mediaID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.NotFoundf("media %d is not in playlist %d", mediaID, playlistID)
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Int("media_id", mediaID).Msg("[db] RemovePlaylistEntry failed")
	}
	return err
}

func (s *pgStore) ReorderPlaylistEntries(ctx context.Context, playlistID int, orders []EntryOrder) ([]int, error) {
	var missing []int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		for _, o := range orders {
			res, err := tx.ExecContext(ctx, `
				UPDATE playlist_media
				   SET order_index = $1
				 WHERE playlist_id = $2
				   AND media_id = $3;`,
				o.OrderIndex, playlistID, o.MediaID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				missing = append(missing, o.MediaID)
			}
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ReorderPlaylistEntries failed")
		return nil, err
	}
	return missing, nil
}

func (s *pgStore) SetEntryDuration(ctx context.Context, playlistID, mediaID int, duration *int) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE playlist_media
			   SET duration = $1
			 WHERE playlist_id = $2
			   AND media_id = $3;`,
			duration, playlistID, mediaID)
		if err != nil {
			return translate(err, "playlist entry")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.NotFoundf("media %d is not in playlist %d", mediaID, playlistID)
		}
		return touchPlaylist(ctx, tx, playlistID)
	})
	if err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Int("media_id", mediaID).Msg("[db] SetEntryDuration failed")
	}
	return err
}

// entryMediaRow is one playlist_media row joined with its media columns.
type entryMediaRow struct {
	model.PlaylistEntry
	MediaFilename    string          `db:"m_filename"`
	MediaType        model.MediaType `db:"m_media_type"`
	MediaDuration    int             `db:"m_duration"`
	MediaStoragePath string          `db:"m_storage_path"`
	MediaCreatedAt   time.Time       `db:"m_created_at"`
}

func entriesWithMedia(rows []entryMediaRow) []model.PlaylistEntry {
	out := make([]model.PlaylistEntry, 0, len(rows))
	for _, r := range rows {
		e := r.PlaylistEntry
		e.Media = &model.MediaAsset{
			ID:          r.MediaID,
			Filename:    r.MediaFilename,
			MediaType:   r.MediaType,
			Duration:    r.MediaDuration,
			StoragePath: r.MediaStoragePath,
			CreatedAt:   r.MediaCreatedAt,
		}
		out = append(out, e)
	}
	return out
}

// entryMediaSelect lists a playlist's entries in playback order; the
// placeholder is left to the caller's dialect.
const entryMediaSelect = `
	SELECT
	  pm.id, pm.playlist_id, pm.media_id, pm.order_index, pm.duration, pm.added_at,
	  m.filename     AS m_filename,
	  m.media_type   AS m_media_type,
	  m.duration     AS m_duration,
	  m.storage_path AS m_storage_path,
	  m.created_at   AS m_created_at
	FROM playlist_media pm
	JOIN media m ON m.id = pm.media_id
	WHERE pm.playlist_id = %s
	ORDER BY pm.order_index, pm.added_at, pm.id;`

// ListPlaylistEntries returns entries joined with their media, in playback order.
func (s *pgStore) ListPlaylistEntries(ctx context.Context, playlistID int) ([]model.PlaylistEntry, error) {
	var rows []entryMediaRow
	if err := s.db.SelectContext(ctx, &rows, fmt.Sprintf(entryMediaSelect, "$1"), playlistID); err != nil {
		log.Error().Err(err).Int("playlist_id", playlistID).Msg("[db] ListPlaylistEntries failed")
		return nil, err
	}
	return entriesWithMedia(rows), nil
}
