package db

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const mediaColumns = `id, filename, media_type, duration, storage_path, created_at`

// @ MEDIA
func (s *pgStore) CreateMedia(ctx context.Context, m model.MediaAsset) (model.MediaAsset, error) {
	var out model.MediaAsset
	const q = `
	INSERT INTO media
	(filename, media_type, duration, storage_path, created_at)
	VALUES
	($1,       $2,         $3,       $4,           now())
	RETURNING ` + mediaColumns + `;`

	if err := s.db.GetContext(ctx, &out, q, m.Filename, m.MediaType, m.Duration, m.StoragePath); err != nil {
		log.Error().Err(err).Str("filename", m.Filename).Msg("[db] CreateMedia: failed to insert media")
		return model.MediaAsset{}, translate(err, "media")
	}
	return out, nil
}

func (s *pgStore) GetMedia(ctx context.Context, id int) (model.MediaAsset, error) {
	var m model.MediaAsset
	q := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1;`
	if err := s.db.GetContext(ctx, &m, q, id); err != nil {
		return model.MediaAsset{}, translate(err, "media")
	}
	return m, nil
}

func (s *pgStore) ListMedia(ctx context.Context, limit, offset int) ([]model.MediaAsset, error) {
	out := []model.MediaAsset{}
	q := `SELECT ` + mediaColumns + ` FROM media ORDER BY id LIMIT $1 OFFSET $2;`
	if err := s.db.SelectContext(ctx, &out, q, limit, offset); err != nil {
		log.Error().Err(err).Msg("[db] ListMedia: failed to select media")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) UpdateMedia(ctx context.Context, id int, filename *string, duration *int) (model.MediaAsset, error) {
	var m model.MediaAsset
	q := `
	UPDATE media
	SET
	filename = COALESCE($2, filename),
	duration = COALESCE($3, duration)
	WHERE id = $1
	RETURNING ` + mediaColumns + `;`
	if err := s.db.GetContext(ctx, &m, q, id, filename, duration); err != nil {
		log.Error().Err(err).Int("media_id", id).Msg("[db] UpdateMedia failed")
		return model.MediaAsset{}, translate(err, "media")
	}
	return m, nil
}

// DeleteMedia relies on ON DELETE CASCADE for playlist_media and schedules;
// the transaction keeps the delete and the returned snapshot consistent.
func (s *pgStore) DeleteMedia(ctx context.Context, id int) (model.MediaAsset, error) {
	var m model.MediaAsset
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		q := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1 FOR UPDATE;`
		if err := tx.GetContext(ctx, &m, q, id); err != nil {
			return translate(err, "media")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM media WHERE id = $1;`, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Int("media_id", id).Msg("[db] DeleteMedia failed")
		return model.MediaAsset{}, err
	}
	return m, nil
}

func (s *pgStore) ListPlaylistsForMedia(ctx context.Context, mediaID int) ([]model.MediaPlaylistRef, error) {
	out := []model.MediaPlaylistRef{}
	const q = `
	SELECT
	  p.id AS playlist_id,
	  p.name,
	  p.description,
	  pm.order_index,
	  pm.duration
	FROM playlist_media pm
	JOIN playlists p ON p.id = pm.playlist_id
	WHERE pm.media_id = $1
	ORDER BY p.name, p.id;`
	if err := s.db.SelectContext(ctx, &out, q, mediaID); err != nil {
		log.Error().Err(err).Int("media_id", mediaID).Msg("[db] ListPlaylistsForMedia failed")
		return nil, err
	}
	return out, nil
}

func (s *pgStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	const q = `
	SELECT
	  (SELECT count(*) FROM playlists) AS total_playlists,
	  (SELECT count(*) FROM schedules) AS total_schedule_rules,
	  (SELECT count(*) FROM media)     AS total_media;`
	if err := s.db.GetContext(ctx, &st, q); err != nil {
		log.Error().Err(err).Msg("[db] Stats failed")
		return model.Stats{}, err
	}
	return st, nil
}
