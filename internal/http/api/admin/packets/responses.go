package packets

import (
	"time"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
	"github.com/Nixie-Tech-LLC/signance/internal/model"
	"github.com/Nixie-Tech-LLC/signance/internal/playlist"
)

type MessageResponse struct {
	Message string `json:"message"`
}

// PlaylistSummary is a playlist row in GET /playlists.
type PlaylistSummary struct {
	model.Playlist
	MediaCount    int `json:"media_count"`
	TotalDuration int `json:"total_duration"`
}

type PlaylistResponse struct {
	playlist.Expansion
	Schedules []ScheduleResponse `json:"schedules"`
}

type BatchAddResponse struct {
	Added   []model.PlaylistEntry `json:"added"`
	Skipped []errs.ItemError      `json:"skipped"`
}

type ReorderResponse struct {
	Missing []int `json:"missing"`
}

// ScheduleResponse flattens the rule target into media_id / playlist_id.
type ScheduleResponse struct {
	ID            int       `json:"id"`
	TargetType    string    `json:"target_type"`
	MediaID       *int      `json:"media_id"`
	PlaylistID    *int      `json:"playlist_id"`
	ScheduleType  string    `json:"schedule_type"`
	IsActive      bool      `json:"is_active"`
	Priority      int       `json:"priority"`
	IsAllDay      bool      `json:"is_all_day"`
	DailyStart    *string   `json:"daily_start"`
	DailyEnd      *string   `json:"daily_end"`
	Weekdays      []int     `json:"weekdays"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	SpecificTimes []string  `json:"specific_times"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewScheduleResponse(r model.ScheduleRule) ScheduleResponse {
	mediaID, playlistID := model.TargetIDs(r.Target)
	weekdays := r.Weekdays
	if weekdays == nil {
		weekdays = []int{}
	}
	times := r.SpecificTimes
	if times == nil {
		times = []string{}
	}
	return ScheduleResponse{
		ID:            r.ID,
		TargetType:    model.TargetKind(r.Target),
		MediaID:       mediaID,
		PlaylistID:    playlistID,
		ScheduleType:  string(r.Type),
		IsActive:      r.IsActive,
		Priority:      r.Priority,
		IsAllDay:      r.IsAllDay,
		DailyStart:    r.DailyStart,
		DailyEnd:      r.DailyEnd,
		Weekdays:      weekdays,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		SpecificTimes: times,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func NewScheduleResponses(rules []model.ScheduleRule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, NewScheduleResponse(r))
	}
	return out
}

type LogoResponse struct {
	Logo string `json:"logo"`
}
