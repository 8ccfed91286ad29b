// Package schedule decides which rules are in effect at a given instant or
// on a given date and turns them into a ranked playback plan.
package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// specificTimeLayouts are the forms accepted in SpecificTimes. Only the date
// part takes part in matching.
var specificTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dateLayout,
}

// NewTarget builds the rule target from the two optional ids a client sends.
// Exactly one must be set.
func NewTarget(mediaID, playlistID *int) (model.ScheduleTarget, error) {
	switch {
	case mediaID != nil && playlistID != nil:
		return nil, errs.Invalidf("a schedule targets either a media or a playlist, not both")
	case mediaID != nil:
		return model.MediaTarget{MediaID: *mediaID}, nil
	case playlistID != nil:
		return model.PlaylistTarget{PlaylistID: *playlistID}, nil
	default:
		return nil, errs.Invalidf("a schedule needs a media_id or a playlist_id")
	}
}

// Normalize validates r and rewrites its time and date fields into the
// canonical zero-padded forms the matcher compares lexicographically.
func Normalize(r model.ScheduleRule) (model.ScheduleRule, error) {
	if r.Target == nil {
		return r, errs.Invalidf("a schedule needs a media_id or a playlist_id")
	}
	switch t := r.Target.(type) {
	case model.MediaTarget:
		if t.MediaID <= 0 {
			return r, errs.Invalidf("media_id must be positive")
		}
	case model.PlaylistTarget:
		if t.PlaylistID <= 0 {
			return r, errs.Invalidf("playlist_id must be positive")
		}
	}

	if !r.Type.Valid() {
		return r, errs.Invalidf("schedule_type must be simple or advanced, got %q", r.Type)
	}

	var err error
	if r.DailyStart, err = normalizeClock("daily_start", r.DailyStart); err != nil {
		return r, err
	}
	if r.DailyEnd, err = normalizeClock("daily_end", r.DailyEnd); err != nil {
		return r, err
	}
	if r.Weekdays, err = normalizeWeekdays(r.Weekdays); err != nil {
		return r, err
	}
	if r.StartDate, err = normalizeDate("start_date", r.StartDate); err != nil {
		return r, err
	}
	if r.EndDate, err = normalizeDate("end_date", r.EndDate); err != nil {
		return r, err
	}
	if r.SpecificTimes, err = normalizeSpecificTimes(r.SpecificTimes); err != nil {
		return r, err
	}

	switch r.Type {
	case model.ScheduleSimple:
		if !r.IsAllDay && (r.DailyStart == nil || r.DailyEnd == nil) {
			return r, errs.Invalidf("daily_start and daily_end are required unless is_all_day is set")
		}
	case model.ScheduleAdvanced:
		if (r.StartDate == nil) != (r.EndDate == nil) {
			return r, errs.Invalidf("start_date and end_date must be given together")
		}
		if r.StartDate != nil && *r.EndDate < *r.StartDate {
			return r, errs.Invalidf("end_date %s is before start_date %s", *r.EndDate, *r.StartDate)
		}
		if r.StartDate == nil && len(r.SpecificTimes) == 0 {
			return r, errs.Invalidf("an advanced schedule needs a date range or specific_times")
		}
	}
	return r, nil
}

// IsOvernight reports a simple window whose end is before its start. Such a
// window never matches.
func IsOvernight(r model.ScheduleRule) bool {
	return r.Type == model.ScheduleSimple && !r.IsAllDay &&
		r.DailyStart != nil && r.DailyEnd != nil && *r.DailyEnd < *r.DailyStart
}

func normalizeClock(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	// accept HH:MM:SS from clients that send full times
	if len(s) == len("15:04:05") && strings.Count(s, ":") == 2 {
		s = s[:5]
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return nil, errs.Invalidf("%s must be HH:MM, got %q", field, *v)
	}
	out := t.Format(clockLayout)
	return &out, nil
}

func normalizeDate(field string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, errs.Invalidf("%s must be YYYY-MM-DD, got %q", field, *v)
	}
	out := t.Format(dateLayout)
	return &out, nil
}

func normalizeWeekdays(days []int) ([]int, error) {
	if len(days) == 0 {
		return nil, nil
	}
	seen := map[int]bool{}
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, errs.Invalidf("weekday %d out of range 0-6", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func normalizeSpecificTimes(times []string) ([]string, error) {
	if len(times) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(times))
	for _, raw := range times {
		s := strings.TrimSpace(raw)
		if !parsesAsSpecificTime(s) {
			return nil, errs.Invalidf("specific time %q is not an ISO date or timestamp", raw)
		}
		out = append(out, s)
	}
	return out, nil
}

func parsesAsSpecificTime(s string) bool {
	for _, layout := range specificTimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
