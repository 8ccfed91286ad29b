// internal/db/schedules.go
package db

import (
	"context"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const scheduleColumns = `
	id, media_id, playlist_id, schedule_type, is_active, priority,
	is_all_day, daily_start, daily_end, weekdays,
	start_date, end_date, specific_times, created_at, updated_at`

// scheduleRow is the column layout of schedules; the target union is split
// into two nullable ids here and nowhere else.
type scheduleRow struct {
	ID            int            `db:"id"`
	MediaID       *int           `db:"media_id"`
	PlaylistID    *int           `db:"playlist_id"`
	Type          string         `db:"schedule_type"`
	IsActive      bool           `db:"is_active"`
	Priority      int            `db:"priority"`
	IsAllDay      bool           `db:"is_all_day"`
	DailyStart    *string        `db:"daily_start"`
	DailyEnd      *string        `db:"daily_end"`
	Weekdays      pq.Int64Array  `db:"weekdays"`
	StartDate     *string        `db:"start_date"`
	EndDate       *string        `db:"end_date"`
	SpecificTimes pq.StringArray `db:"specific_times"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r scheduleRow) toModel() model.ScheduleRule {
	out := model.ScheduleRule{
		ID:         r.ID,
		Type:       model.ScheduleType(r.Type),
		IsActive:   r.IsActive,
		Priority:   r.Priority,
		IsAllDay:   r.IsAllDay,
		DailyStart: r.DailyStart,
		DailyEnd:   r.DailyEnd,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	switch {
	case r.MediaID != nil:
		out.Target = model.MediaTarget{MediaID: *r.MediaID}
	case r.PlaylistID != nil:
		out.Target = model.PlaylistTarget{PlaylistID: *r.PlaylistID}
	}
	if r.Weekdays != nil {
		out.Weekdays = make([]int, len(r.Weekdays))
		for i, d := range r.Weekdays {
			out.Weekdays[i] = int(d)
		}
	}
	if r.SpecificTimes != nil {
		out.SpecificTimes = []string(r.SpecificTimes)
	}
	return out
}

func weekdaysArray(days []int) pq.Int64Array {
	if days == nil {
		return nil
	}
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func specificTimesArray(times []string) pq.StringArray {
	if times == nil {
		return nil
	}
	return pq.StringArray(times)
}

func (s *pgStore) CreateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error) {
	mediaID, playlistID := model.TargetIDs(r.Target)
	var row scheduleRow
	q := `
	INSERT INTO schedules
	  (media_id, playlist_id, schedule_type, is_active, priority,
	   is_all_day, daily_start, daily_end, weekdays,
	   start_date, end_date, specific_times, created_at, updated_at)
	VALUES
	  ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
	RETURNING ` + scheduleColumns + `;`
	err := s.db.GetContext(ctx, &row, q,
		mediaID, playlistID, string(r.Type), r.IsActive, r.Priority,
		r.IsAllDay, r.DailyStart, r.DailyEnd, weekdaysArray(r.Weekdays),
		r.StartDate, r.EndDate, specificTimesArray(r.SpecificTimes),
	)
	if err != nil {
		log.Error().Err(err).Msg("CreateScheduleRule failed")
		return model.ScheduleRule{}, translate(err, "schedule target")
	}
	return row.toModel(), nil
}

func (s *pgStore) GetScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error) {
	var row scheduleRow
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1;`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		return model.ScheduleRule{}, translate(err, "schedule")
	}
	return row.toModel(), nil
}

func (s *pgStore) ListScheduleRules(ctx context.Context, f model.ScheduleFilter) ([]model.ScheduleRule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if f.Type != "" {
		argCount++
		query += ` AND schedule_type = $` + strconv.Itoa(argCount)
		args = append(args, string(f.Type))
	}
	if f.ActiveOnly {
		query += ` AND is_active = true`
	}
	if f.MediaID != nil {
		argCount++
		query += ` AND media_id = $` + strconv.Itoa(argCount)
		args = append(args, *f.MediaID)
	}
	if f.PlaylistID != nil {
		argCount++
		query += ` AND playlist_id = $` + strconv.Itoa(argCount)
		args = append(args, *f.PlaylistID)
	}

	query += ` ORDER BY id;`

	var rows []scheduleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		log.Error().Err(err).Msg("ListScheduleRules failed")
		return nil, err
	}
	out := make([]model.ScheduleRule, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// UpdateScheduleRule rewrites every mutable column; the row lock comes from
// the UPDATE itself, which serializes concurrent writers of the same rule.
func (s *pgStore) UpdateScheduleRule(ctx context.Context, r model.ScheduleRule) (model.ScheduleRule, error) {
	mediaID, playlistID := model.TargetIDs(r.Target)
	var row scheduleRow
	q := `
	UPDATE schedules
	SET
	  media_id       = $2,
	  playlist_id    = $3,
	  schedule_type  = $4,
	  is_active      = $5,
	  priority       = $6,
	  is_all_day     = $7,
	  daily_start    = $8,
	  daily_end      = $9,
	  weekdays       = $10,
	  start_date     = $11,
	  end_date       = $12,
	  specific_times = $13,
	  updated_at     = now()
	WHERE id = $1
	RETURNING ` + scheduleColumns + `;`
	err := s.db.GetContext(ctx, &row, q, r.ID,
		mediaID, playlistID, string(r.Type), r.IsActive, r.Priority,
		r.IsAllDay, r.DailyStart, r.DailyEnd, weekdaysArray(r.Weekdays),
		r.StartDate, r.EndDate, specificTimesArray(r.SpecificTimes),
	)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", r.ID).Msg("UpdateScheduleRule failed")
		return model.ScheduleRule{}, translate(err, "schedule")
	}
	return row.toModel(), nil
}

func (s *pgStore) DeleteScheduleRule(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteScheduleRule failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFoundf("schedule %d not found", id)
	}
	return nil
}

func (s *pgStore) ToggleScheduleRule(ctx context.Context, id int) (model.ScheduleRule, error) {
	var row scheduleRow
	q := `
	UPDATE schedules
	   SET is_active = NOT is_active,
	       updated_at = now()
	 WHERE id = $1
	RETURNING ` + scheduleColumns + `;`
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("ToggleScheduleRule failed")
		return model.ScheduleRule{}, translate(err, "schedule")
	}
	return row.toModel(), nil
}
