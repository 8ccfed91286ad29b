package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// sqlite compares timestamps as text, so they are written with a fixed
// width to keep added_at ordering exact.
const liteTimeLayout = "2006-01-02 15:04:05.000000000"

func liteNow() string {
	return time.Now().UTC().Format(liteTimeLayout)
}

// OpenSQLite opens the sqlite database at path and applies the schema.
// ":memory:" gives a private database that lives as long as the handle.
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	dbx, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// An in-memory database belongs to a single connection.
	dbx.SetMaxOpenConns(1)
	dbx.SetMaxIdleConns(1)
	dbx.SetConnMaxLifetime(0)

	if _, err := dbx.Exec(sqliteSchema); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("[db] sqlite ready")
	return dbx, nil
}

type liteStore struct {
	db *sqlx.DB
}

var _ Store = (*liteStore)(nil)

// NewSQLiteStore wraps a handle returned by OpenSQLite.
func NewSQLiteStore(db *sqlx.DB) Store {
	return &liteStore{db: db}
}

// sqlite treats a negative LIMIT as no limit
func liteLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func insertedID(res interface{ LastInsertId() (int64, error) }) (int, error) {
	id, err := res.LastInsertId()
	return int(id), err
}

// @ MEDIA
func (s *liteStore) CreateMedia(ctx context.Context, m model.MediaAsset) (model.MediaAsset, error) {
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO media (filename, media_type, duration, storage_path, created_at)
	VALUES (?, ?, ?, ?, ?);`,
		m.Filename, string(m.MediaType), m.Duration, m.StoragePath, liteNow())
	if err != nil {
		return model.MediaAsset{}, translate(err, "media")
	}
	id, err := insertedID(res)
	if err != nil {
		return model.MediaAsset{}, err
	}
	return s.GetMedia(ctx, id)
}

func (s *liteStore) GetMedia(ctx context.Context, id int) (model.MediaAsset, error) {
	var m model.MediaAsset
	q := `SELECT ` + mediaColumns + ` FROM media WHERE id = ?;`
	if err := s.db.GetContext(ctx, &m, q, id); err != nil {
		return model.MediaAsset{}, translate(err, "media")
	}
	return m, nil
}

func (s *liteStore) ListMedia(ctx context.Context, limit, offset int) ([]model.MediaAsset, error) {
	out := []model.MediaAsset{}
	q := `SELECT ` + mediaColumns + ` FROM media ORDER BY id LIMIT ? OFFSET ?;`
	if err := s.db.SelectContext(ctx, &out, q, liteLimit(limit), offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *liteStore) UpdateMedia(ctx context.Context, id int, filename *string, duration *int) (model.MediaAsset, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE media
	SET
	filename = COALESCE(?, filename),
	duration = COALESCE(?, duration)
	WHERE id = ?;`, filename, duration, id)
	if err != nil {
		return model.MediaAsset{}, translate(err, "media")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.MediaAsset{}, errs.NotFoundf("media not found")
	}
	return s.GetMedia(ctx, id)
}

// DeleteMedia leaves playlist_media and schedules to ON DELETE CASCADE.
func (s *liteStore) DeleteMedia(ctx context.Context, id int) (model.MediaAsset, error) {
	var m model.MediaAsset
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &m, `SELECT `+mediaColumns+` FROM media WHERE id = ?;`, id); err != nil {
			return translate(err, "media")
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM media WHERE id = ?;`, id)
		return err
	})
	if err != nil {
		return model.MediaAsset{}, err
	}
	return m, nil
}

func (s *liteStore) ListPlaylistsForMedia(ctx context.Context, mediaID int) ([]model.MediaPlaylistRef, error) {
	out := []model.MediaPlaylistRef{}
	const q = `
	SELECT p.id AS playlist_id, p.name, p.description, pm.order_index, pm.duration
	FROM playlist_media pm
	JOIN playlists p ON p.id = pm.playlist_id
	WHERE pm.media_id = ?
	ORDER BY p.name, p.id;`
	if err := s.db.SelectContext(ctx, &out, q, mediaID); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *liteStore) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	const q = `
	SELECT
	  (SELECT count(*) FROM playlists) AS total_playlists,
	  (SELECT count(*) FROM schedules) AS total_schedule_rules,
	  (SELECT count(*) FROM media)     AS total_media;`
	if err := s.db.GetContext(ctx, &st, q); err != nil {
		return model.Stats{}, err
	}
	return st, nil
}

// @ PLAYLIST
func (s *liteStore) CreatePlaylist(ctx context.Context, name string, description *string) (model.Playlist, error) {
	now := liteNow()
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO playlists (name, description, created_at, updated_at)
	VALUES (?, ?, ?, ?);`, name, description, now, now)
	if err != nil {
		return model.Playlist{}, translate(err, "playlist")
	}
	id, err := insertedID(res)
	if err != nil {
		return model.Playlist{}, err
	}
	return s.GetPlaylist(ctx, id)
}

func (s *liteStore) GetPlaylist(ctx context.Context, id int) (model.Playlist, error) {
	var p model.Playlist
	q := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ?;`
	if err := s.db.GetContext(ctx, &p, q, id); err != nil {
		return model.Playlist{}, translate(err, "playlist")
	}
	return p, nil
}

func (s *liteStore) ListPlaylists(ctx context.Context, limit, offset int) ([]model.Playlist, error) {
	out := []model.Playlist{}
	q := `SELECT ` + playlistColumns + ` FROM playlists ORDER BY id LIMIT ? OFFSET ?;`
	if err := s.db.SelectContext(ctx, &out, q, liteLimit(limit), offset); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *liteStore) UpdatePlaylist(ctx context.Context, id int, name, description *string) (model.Playlist, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE playlists
	SET
	name        = COALESCE(?, name),
	description = COALESCE(?, description),
	updated_at  = ?
	WHERE id = ?;`, name, description, liteNow(), id)
	if err != nil {
		return model.Playlist{}, translate(err, "playlist")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Playlist{}, errs.NotFoundf("playlist not found")
	}
	return s.GetPlaylist(ctx, id)
}

func (s *liteStore) DeletePlaylist(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundf("playlist %d not found", id)
	}
	return nil
}

// @ PLAYLIST ENTRIES
// The pool holds one connection, so a transaction already excludes every
// other writer; touching the playlist row is all that is left to do.
func liteTouchPlaylist(ctx context.Context, tx *sqlx.Tx, playlistID int) error {
	res, err := tx.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?;`, liteNow(), playlistID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundf("playlist not found")
	}
	return nil
}

func (s *liteStore) AppendPlaylistEntry(ctx context.Context, playlistID, mediaID int, duration *int) (model.PlaylistEntry, error) {
	var it model.PlaylistEntry
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := liteTouchPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
		INSERT INTO playlist_media (playlist_id, media_id, order_index, duration, added_at)
		SELECT ?, ?, COALESCE(MAX(order_index) + 1, 0), ?, ?
		FROM playlist_media
		WHERE playlist_id = ?;`,
			playlistID, mediaID, duration, liteNow(), playlistID)
		if err != nil {
			return translate(err, "playlist entry")
		}
		id, err := insertedID(res)
		if err != nil {
			return err
		}
		return tx.GetContext(ctx, &it, `SELECT `+entryColumns+` FROM playlist_media WHERE id = ?;`, id)
	})
	if err != nil {
		return model.PlaylistEntry{}, err
	}
	return it, nil
}

func (s *liteStore) GetPlaylistEntry(ctx context.Context, playlistID, mediaID int) (model.PlaylistEntry, error) {
	var it model.PlaylistEntry
	q := `SELECT ` + entryColumns + ` FROM playlist_media WHERE playlist_id = ? AND media_id = ?;`
	if err := s.db.GetContext(ctx, &it, q, playlistID, mediaID); err != nil {
		return model.PlaylistEntry{}, translate(err, "playlist entry")
	}
	return it, nil
}

func (s *liteStore) RemovePlaylistEntry(ctx context.Context, playlistID, mediaID int) error {
	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := liteTouchPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM playlist_media WHERE playlist_id = ? AND media_id = ?;`, playlistID, mediaID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.NotFoundf("media %d is not in playlist %d", mediaID, playlistID)
		}
		return nil
	})
}

func (s *liteStore) ReorderPlaylistEntries(ctx context.Context, playlistID int, orders []EntryOrder) ([]int, error) {
	var missing []int
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := liteTouchPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		for _, o := range orders {
			res, err := tx.ExecContext(ctx, `
				UPDATE playlist_media
				   SET order_index = ?
				 WHERE playlist_id = ?
				   AND media_id = ?;`,
				o.OrderIndex, playlistID, o.MediaID)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				missing = append(missing, o.MediaID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return missing, nil
}

func (s *liteStore) SetEntryDuration(ctx context.Context, playlistID, mediaID int, duration *int) error {
	return inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := liteTouchPlaylist(ctx, tx, playlistID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE playlist_media
			   SET duration = ?
			 WHERE playlist_id = ?
			   AND media_id = ?;`,
			duration, playlistID, mediaID)
		if err != nil {
			return translate(err, "playlist entry")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errs.NotFoundf("media %d is not in playlist %d", mediaID, playlistID)
		}
		return nil
	})
}

func (s *liteStore) ListPlaylistEntries(ctx context.Context, playlistID int) ([]model.PlaylistEntry, error) {
	var rows []entryMediaRow
	if err := s.db.SelectContext(ctx, &rows, fmt.Sprintf(entryMediaSelect, "?"), playlistID); err != nil {
		return nil, err
	}
	return entriesWithMedia(rows), nil
}

// @ SCHEDULE RULES

// liteScheduleRow is scheduleRow with the arrays kept as JSON text.
type liteScheduleRow struct {
	ID            int       `db:"id"`
	MediaID       *int      `db:"media_id"`
	PlaylistID    *int      `db:"playlist_id"`
	Type          string    `db:"schedule_type"`
	IsActive      bool      `db:"is_active"`
	Priority      int       `db:"priority"`
	IsAllDay      bool      `db:"is_all_day"`
	DailyStart    *string   `db:"daily_start"`
	DailyEnd      *string   `db:"daily_end"`
	Weekdays      *string   `db:"weekdays"`
	StartDate     *string   `db:"start_date"`
	EndDate       *string   `db:"end_date"`
	SpecificTimes *string   `db:"specific_times"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r liteScheduleRow) toModel() (model.ScheduleRule, error) {
	out := scheduleRow{
		ID:         r.ID,
		MediaID:    r.MediaID,
		PlaylistID: r.PlaylistID,
		Type:       r.Type,
		IsActive:   r.IsActive,
		Priority:   r.Priority,
		IsAllDay:   r.IsAllDay,
		DailyStart: r.DailyStart,
		DailyEnd:   r.DailyEnd,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}.toModel()
	if r.Weekdays != nil {
		if err := json.Unmarshal([]byte(*r.Weekdays), &out.Weekdays); err != nil {
			return model.ScheduleRule{}, fmt.Errorf("schedule %d weekdays: %w", r.ID, err)
		}
	}
	if r.SpecificTimes != nil {
		if err := json.Unmarshal([]byte(*r.SpecificTimes), &out.SpecificTimes); err != nil {
			return model.ScheduleRule{}, fmt.Errorf("schedule %d specific_times: %w", r.ID, err)
		}
	}
	return out, nil
}

// jsonText encodes a slice for a JSON column; nil stays NULL.
func jsonText[T any](items []T) (*string, error) {
	if items == nil {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func scheduleArrays(r model.ScheduleRule) (weekdays, specificTimes *string, err error) {
	if weekdays, err = jsonText(r.Weekdays); err != nil {
		return nil, nil, err
	}
	if specificTimes, err = jsonText(r.SpecificTimes); err != nil {
		return nil, nil, err
	}
	return weekdays, specificTimes, nil
}

func (s *liteStore) CreateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error) {
	mediaID, playlistID := model.TargetIDs(r.Target)
	weekdays, specificTimes, err := scheduleArrays(r)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	now := liteNow()
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO schedules
	  (media_id, playlist_id, schedule_type, is_active, priority,
	   is_all_day, daily_start, daily_end, weekdays,
	   start_date, end_date, specific_times, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		mediaID, playlistID, string(r.Type), r.IsActive, r.Priority,
		r.IsAllDay, r.DailyStart, r.DailyEnd, weekdays,
		r.StartDate, r.EndDate, specificTimes, now, now,
	)
	if err != nil {
		return model.ScheduleRule{}, translate(err, "schedule target")
	}
	id, err := insertedID(res)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	return s.GetScheduleRule(ctx, id)
}

func (s *liteStore) GetScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error) {
	var row liteScheduleRow
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = ?;`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		return model.ScheduleRule{}, translate(err, "schedule")
	}
	return row.toModel()
}

func (s *liteStore) ListScheduleRules(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleRule, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "schedule_type = ?")
		args = append(args, string(f.Type))
	}
	if f.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if f.MediaID != nil {
		where = append(where, "media_id = ?")
		args = append(args, *f.MediaID)
	}
	if f.PlaylistID != nil {
		where = append(where, "playlist_id = ?")
		args = append(args, *f.PlaylistID)
	}

	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id;`

	var rows []liteScheduleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.ScheduleRule, 0, len(rows))
	for _, row := range rows {
		r, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *liteStore) UpdateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error) {
	mediaID, playlistID := model.TargetIDs(r.Target)
	weekdays, specificTimes, err := scheduleArrays(r)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	res, err := s.db.ExecContext(ctx, `
	UPDATE schedules
	SET
	  media_id       = ?,
	  playlist_id    = ?,
	  schedule_type  = ?,
	  is_active      = ?,
	  priority       = ?,
	  is_all_day     = ?,
	  daily_start    = ?,
	  daily_end      = ?,
	  weekdays       = ?,
	  start_date     = ?,
	  end_date       = ?,
	  specific_times = ?,
	  updated_at     = ?
	WHERE id = ?;`,
		mediaID, playlistID, string(r.Type), r.IsActive, r.Priority,
		r.IsAllDay, r.DailyStart, r.DailyEnd, weekdays,
		r.StartDate, r.EndDate, specificTimes, liteNow(), r.ID,
	)
	if err != nil {
		return model.ScheduleRule{}, translate(err, "schedule")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ScheduleRule{}, errs.NotFoundf("schedule not found")
	}
	return s.GetScheduleRule(ctx, r.ID)
}

func (s *liteStore) DeleteScheduleRule(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?;`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundf("schedule %d not found", id)
	}
	return nil
}

func (s *liteStore) ToggleScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE schedules
	   SET is_active = NOT is_active,
	       updated_at = ?
	 WHERE id = ?;`, liteNow(), id)
	if err != nil {
		return model.ScheduleRule{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ScheduleRule{}, errs.NotFoundf("schedule not found")
	}
	return s.GetScheduleRule(ctx, id)
}

// @ BUSINESS
func (s *liteStore) GetBusiness(ctx context.Context) (model.Business, error) {
	var b model.Business
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO business (id, name, updated_at) VALUES (1, ?, ?);`,
			model.DefaultBusinessName, liteNow()); err != nil {
			return err
		}
		return tx.GetContext(ctx, &b, `SELECT `+businessColumns+` FROM business WHERE id = 1;`)
	})
	if err != nil {
		return model.Business{}, translate(err, "business")
	}
	return b, nil
}

func (s *liteStore) UpdateBusiness(ctx context.Context, name, logoPath *string) (model.Business, error) {
	var b model.Business
	err := inTx(ctx, s.db, func(tx *sqlx.Tx) error {
		now := liteNow()
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO business (id, name, logo_path, updated_at)
		VALUES (1, COALESCE(?, ?), ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  name       = COALESCE(?, name),
		  logo_path  = COALESCE(?, logo_path),
		  updated_at = excluded.updated_at;`,
			name, model.DefaultBusinessName, logoPath, now, name, logoPath); err != nil {
			return err
		}
		return tx.GetContext(ctx, &b, `SELECT `+businessColumns+` FROM business WHERE id = 1;`)
	})
	if err != nil {
		return model.Business{}, translate(err, "business")
	}
	return b, nil
}
