package model

import "time"

type ScheduleType string

const (
	ScheduleSimple   ScheduleType = "simple"
	ScheduleAdvanced ScheduleType = "advanced"
)

func (t ScheduleType) Valid() bool {
	return t == ScheduleSimple || t == ScheduleAdvanced
}

// ScheduleTarget is what a rule plays: exactly one media asset or exactly
// one playlist. The only implementations are MediaTarget and PlaylistTarget.
type ScheduleTarget interface {
	targetKind() string
}

type MediaTarget struct {
	MediaID int
}

type PlaylistTarget struct {
	PlaylistID int
}

func (MediaTarget) targetKind() string    { return "media" }
func (PlaylistTarget) targetKind() string { return "playlist" }

// TargetKind returns "media" or "playlist", or "" for a nil target.
func TargetKind(t ScheduleTarget) string {
	if t == nil {
		return ""
	}
	return t.targetKind()
}

// TargetIDs splits a target back into the nullable column pair.
func TargetIDs(t ScheduleTarget) (mediaID, playlistID *int) {
	switch v := t.(type) {
	case MediaTarget:
		id := v.MediaID
		return &id, nil
	case PlaylistTarget:
		id := v.PlaylistID
		return nil, &id
	}
	return nil, nil
}

// ScheduleRule decides when its target plays. Simple rules use IsAllDay,
// DailyStart, DailyEnd and Weekdays (0=Monday). Advanced rules use
// StartDate/EndDate (inclusive, YYYY-MM-DD) and SpecificTimes.
type ScheduleRule struct {
	ID            int
	Target        ScheduleTarget
	Type          ScheduleType
	IsActive      bool
	Priority      int
	IsAllDay      bool
	DailyStart    *string
	DailyEnd      *string
	Weekdays      []int
	StartDate     *string
	EndDate       *string
	SpecificTimes []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduleFilter narrows ListScheduleRules. Zero values mean no constraint.
type ScheduleFilter struct {
	Type       ScheduleType
	ActiveOnly bool
	MediaID    *int
	PlaylistID *int
}
