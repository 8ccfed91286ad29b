package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Nixie-Tech-LLC/signance/internal/model"
)

func strp(s string) *string { return &s }

func at(layout string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", layout, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func officeHours() model.ScheduleRule {
	return model.ScheduleRule{
		ID:         1,
		Target:     model.MediaTarget{MediaID: 1},
		Type:       model.ScheduleSimple,
		IsActive:   true,
		DailyStart: strp("09:00"),
		DailyEnd:   strp("17:00"),
		Weekdays:   []int{0, 1, 2, 3, 4},
	}
}

func TestWeekdayMondayIsZero(t *testing.T) {
	assert.Equal(t, 0, Weekday(at("2024-10-28 12:00")))
	assert.Equal(t, 2, Weekday(at("2024-10-30 12:00")))
	assert.Equal(t, 6, Weekday(at("2024-11-03 12:00")))
}

func TestIsActiveAt_SimpleWindow(t *testing.T) {
	r := officeHours()

	cases := []struct {
		name string
		when string
		want bool
	}{
		{"wednesday morning", "2024-10-30 10:00", true},
		{"saturday morning", "2024-11-02 10:00", false},
		{"wednesday evening", "2024-10-30 18:00", false},
		{"start is inclusive", "2024-10-30 09:00", true},
		{"end is inclusive", "2024-10-30 17:00", true},
		{"minute after end", "2024-10-30 17:01", false},
		{"friday", "2024-11-01 16:59", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsActiveAt(r, at(tc.when)))
		})
	}
}

func TestIsActiveAt_InactiveShortCircuits(t *testing.T) {
	r := officeHours()
	r.IsActive = false
	assert.False(t, IsActiveAt(r, at("2024-10-30 10:00")))
	assert.False(t, IsActiveOn(r, at("2024-10-30 10:00")))
}

func TestIsActiveAt_AllDayAndEmptyWeekdays(t *testing.T) {
	r := model.ScheduleRule{Type: model.ScheduleSimple, IsActive: true, IsAllDay: true}
	assert.True(t, IsActiveAt(r, at("2024-11-02 03:00")))
	assert.True(t, IsActiveAt(r, at("2024-10-28 23:59")))

	r.Weekdays = []int{5, 6}
	assert.True(t, IsActiveAt(r, at("2024-11-02 03:00")))
	assert.False(t, IsActiveAt(r, at("2024-10-28 23:59")))
}

func TestIsActiveAt_MissingTimesNeverMatch(t *testing.T) {
	r := model.ScheduleRule{Type: model.ScheduleSimple, IsActive: true, DailyStart: strp("09:00")}
	assert.False(t, IsActiveAt(r, at("2024-10-30 10:00")))
}

func TestIsActiveAt_OvernightWindowNeverMatches(t *testing.T) {
	r := model.ScheduleRule{
		Type:       model.ScheduleSimple,
		IsActive:   true,
		DailyStart: strp("22:00"),
		DailyEnd:   strp("06:00"),
	}
	for _, when := range []string{"2024-10-30 23:00", "2024-10-30 02:00", "2024-10-30 12:00", "2024-10-30 22:00"} {
		assert.False(t, IsActiveAt(r, at(when)), when)
	}
	assert.True(t, IsOvernight(r))
}

func TestIsActiveAt_AdvancedRange(t *testing.T) {
	r := model.ScheduleRule{
		Type:      model.ScheduleAdvanced,
		IsActive:  true,
		StartDate: strp("2024-10-25"),
		EndDate:   strp("2024-10-31"),
	}
	assert.True(t, IsActiveAt(r, at("2024-10-25 00:00")))
	assert.True(t, IsActiveAt(r, at("2024-10-31 23:59")))
	assert.False(t, IsActiveAt(r, at("2024-11-01 00:00")))
	assert.False(t, IsActiveAt(r, at("2024-10-24 23:59")))

	assert.True(t, IsActiveOn(r, at("2024-10-31 00:00")))
	assert.False(t, IsActiveOn(r, at("2024-11-01 00:00")))
}

func TestIsActiveAt_AdvancedSpecificTimes(t *testing.T) {
	r := model.ScheduleRule{
		Type:          model.ScheduleAdvanced,
		IsActive:      true,
		SpecificTimes: []string{"2024-12-25T10:00:00", "2025-01-01"},
	}
	assert.True(t, IsActiveAt(r, at("2024-12-25 18:00")))
	assert.True(t, IsActiveAt(r, at("2025-01-01 08:00")))
	assert.False(t, IsActiveAt(r, at("2024-12-26 10:00")))

	// range and listing are independent branches
	r.StartDate = strp("2024-06-01")
	r.EndDate = strp("2024-06-02")
	assert.True(t, IsActiveAt(r, at("2024-06-02 10:00")))
	assert.True(t, IsActiveAt(r, at("2024-12-25 10:00")))
}

func TestIsActiveAt_AdvancedHalfRangeNeverMatchesByRange(t *testing.T) {
	r := model.ScheduleRule{
		Type:      model.ScheduleAdvanced,
		IsActive:  true,
		StartDate: strp("2024-10-25"),
	}
	assert.False(t, IsActiveAt(r, at("2024-10-26 10:00")))
}

func TestIsActiveOn_IgnoresTimeOfDay(t *testing.T) {
	r := officeHours()
	assert.True(t, IsActiveOn(r, at("2024-10-30 23:00")))
	assert.False(t, IsActiveOn(r, at("2024-11-02 10:00")))
}

func TestIsActiveAt_EvaluatesInGivenLocation(t *testing.T) {
	r := officeHours()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 13:30 UTC is 09:30 in New York on this date
	instant := at("2024-10-30 13:30")
	assert.True(t, IsActiveAt(r, instant.In(ny)))
	assert.False(t, IsActiveAt(r, at("2024-10-30 05:00").In(ny)))
}
