package schedule

import (
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

// Weekday returns 0 for Monday through 6 for Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsActiveAt reports whether r is in effect at t. t is read in its own
// location; callers convert to the display timezone first.
func IsActiveAt(r model.ScheduleRule, t time.Time) bool {
	if !r.IsActive {
		return false
	}
	switch r.Type {
	case model.ScheduleSimple:
		if !weekdayMatches(r.Weekdays, t) {
			return false
		}
		if r.IsAllDay {
			return true
		}
		if r.DailyStart == nil || r.DailyEnd == nil {
			return false
		}
		clock := t.Format(clockLayout)
		return *r.DailyStart <= clock && clock <= *r.DailyEnd
	case model.ScheduleAdvanced:
		return dateMatches(r, t.Format(dateLayout))
	}
	return false
}

// IsActiveOn reports whether r is in effect on the calendar day of date.
// Daily time windows are ignored.
func IsActiveOn(r model.ScheduleRule, date time.Time) bool {
	if !r.IsActive {
		return false
	}
	switch r.Type {
	case model.ScheduleSimple:
		return weekdayMatches(r.Weekdays, date)
	case model.ScheduleAdvanced:
		return dateMatches(r, date.Format(dateLayout))
	}
	return false
}

// an empty weekday set means every day
func weekdayMatches(days []int, t time.Time) bool {
	if len(days) == 0 {
		return true
	}
	wd := Weekday(t)
	for _, d := range days {
		if d == wd {
			return true
		}
	}
	return false
}

func dateMatches(r model.ScheduleRule, day string) bool {
	if r.StartDate != nil && r.EndDate != nil && *r.StartDate <= day && day <= *r.EndDate {
		return true
	}
	for _, st := range r.SpecificTimes {
		if specificDate(st) == day {
			return true
		}
	}
	return false
}

// specificDate is the literal date part of a specific time entry.
func specificDate(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
