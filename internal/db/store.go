// Package db exposes a Store interface that is passed to the catalog,
// composer and schedule services. Two implementations: postgres (pgStore)
// and sqlite (liteStore), the latter for development and tests.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

// EntryOrder assigns a new order index to one media inside a playlist.
type EntryOrder struct {
	MediaID    int `json:"media_id"`
	OrderIndex int `json:"order_index"`
}

type Store interface {
	// media functions
	CreateMedia(ctx context.Context, m model.MediaAsset) (model.MediaAsset, error)
	GetMedia(ctx context.Context, id int) (model.MediaAsset, error)
	ListMedia(ctx context.Context, limit, offset int) ([]model.MediaAsset, error)
	UpdateMedia(ctx context.Context, id int, filename *string, duration *int) (model.MediaAsset, error)
	// DeleteMedia removes the media together with every playlist entry and
	// schedule rule that references it, and returns the deleted record.
	DeleteMedia(ctx context.Context, id int) (model.MediaAsset, error)
	ListPlaylistsForMedia(ctx context.Context, mediaID int) ([]model.MediaPlaylistRef, error)

	// playlist functions
	CreatePlaylist(ctx context.Context, name string, description *string) (model.Playlist, error)
	GetPlaylist(ctx context.Context, id int) (model.Playlist, error)
	ListPlaylists(ctx context.Context, limit, offset int) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, id int, name, description *string) (model.Playlist, error)
	DeletePlaylist(ctx context.Context, id int) error

	// playlist entry functions; each call is serialized per playlist
	AppendPlaylistEntry(ctx context.Context, playlistID, mediaID int, duration *int) (model.PlaylistEntry, error)
	GetPlaylistEntry(ctx context.Context, playlistID, mediaID int) (model.PlaylistEntry, error)
	RemovePlaylistEntry(ctx context.Context, playlistID, mediaID int) error
	// ReorderPlaylistEntries applies every order it can and returns the media
	// ids that are not part of the playlist.
	ReorderPlaylistEntries(ctx context.Context, playlistID int, orders []EntryOrder) ([]int, error)
	SetEntryDuration(ctx context.Context, playlistID, mediaID int, duration *int) error
	ListPlaylistEntries(ctx context.Context, playlistID int) ([]model.PlaylistEntry, error)

	// schedule rule functions
	CreateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error)
	GetScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error)
	ListScheduleRules(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleRule, error)
	UpdateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error)
	DeleteScheduleRule(ctx context.Context, id int) error
	ToggleScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error)

	Stats(ctx context.Context) (model.Stats, error)

	// business profile; a single row that GetBusiness creates on first read
	GetBusiness(ctx context.Context) (model.Business, error)
	UpdateBusiness(ctx context.Context, name, logoPath *string) (model.Business, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(db *sqlx.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return inTx(ctx, s.db, fn)
}

// inTx runs fn inside a transaction, committing on nil error.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// postgres error codes
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// translate maps driver errors onto the errs kinds.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFoundf("%s not found", what)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return errs.Conflictf("%s already exists", what)
		case pgForeignKeyViolation:
			return errs.NotFoundf("%s references a missing record", what)
		case pgCheckViolation:
			return errs.Invalidf("%s violates %s", what, pqErr.Constraint)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return errs.Conflictf("%s already exists", what)
		case sqlite3.ErrConstraintForeignKey:
			return errs.NotFoundf("%s references a missing record", what)
		case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
			return errs.Invalidf("%s violates a constraint", what)
		}
	}
	return err
}
