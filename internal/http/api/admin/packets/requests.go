package packets

import "github.com/Nixie-Tech-LLC/signance/internal/db"

// UploadMediaForm is the multipart form of POST /media. The file itself is
// read from the "file" part.
type UploadMediaForm struct {
	Filename  string `form:"filename"`
	MediaType string `form:"media_type"`
	Duration  *int   `form:"duration"`
}

type UpdateMediaRequest struct {
	Filename *string `json:"filename"`
	Duration *int    `json:"duration"`
}

type CreatePlaylistRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type AddPlaylistMediaRequest struct {
	MediaID  int  `json:"media_id" binding:"required"`
	Duration *int `json:"duration"`
}

type AddPlaylistMediaBatchRequest struct {
	MediaIDs []int `json:"media_ids" binding:"required,min=1"`
}

type ReorderPlaylistMediaRequest struct {
	MediaOrders []db.EntryOrder `json:"media_orders" binding:"required"`
}

type UpdateEntryDurationRequest struct {
	Duration int `json:"duration" binding:"required"`
}

// CreateScheduleRequest names exactly one of MediaID or PlaylistID.
type CreateScheduleRequest struct {
	MediaID       *int     `json:"media_id"`
	PlaylistID    *int     `json:"playlist_id"`
	ScheduleType  string   `json:"schedule_type"`
	IsActive      *bool    `json:"is_active"`
	Priority      int      `json:"priority"`
	IsAllDay      bool     `json:"is_all_day"`
	DailyStart    *string  `json:"daily_start"`
	DailyEnd      *string  `json:"daily_end"`
	Weekdays      []int    `json:"weekdays"`
	StartDate     *string  `json:"start_date"`
	EndDate       *string  `json:"end_date"`
	SpecificTimes []string `json:"specific_times"`
}

// UpdateScheduleRequest carries only the fields to change.
type UpdateScheduleRequest struct {
	MediaID       *int      `json:"media_id"`
	PlaylistID    *int      `json:"playlist_id"`
	ScheduleType  *string   `json:"schedule_type"`
	IsActive      *bool     `json:"is_active"`
	Priority      *int      `json:"priority"`
	IsAllDay      *bool     `json:"is_all_day"`
	DailyStart    *string   `json:"daily_start"`
	DailyEnd      *string   `json:"daily_end"`
	Weekdays      *[]int    `json:"weekdays"`
	StartDate     *string   `json:"start_date"`
	EndDate       *string   `json:"end_date"`
	SpecificTimes *[]string `json:"specific_times"`
}

// UpdateBusinessRequest is bound from JSON or from the multipart form of
// PUT /business; the logo travels in the "logo" file part.
type UpdateBusinessRequest struct {
	Name *string `json:"name" form:"name"`
}
