package model

import "time"

type Playlist struct {
	ID          int       `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	Description *string   `db:"description"  json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}

// PlaylistEntry joins a playlist to a media asset. Duration, when set,
// overrides the media's own duration inside this playlist only.
type PlaylistEntry struct {
	ID         int         `db:"id"           json:"id"`
	PlaylistID int         `db:"playlist_id"  json:"playlist_id"`
	MediaID    int         `db:"media_id"     json:"media_id"`
	OrderIndex int         `db:"order_index"  json:"order_index"`
	Duration   *int        `db:"duration"     json:"duration,omitempty"`
	AddedAt    time.Time   `db:"added_at"     json:"added_at"`
	Media      *MediaAsset `db:"-"            json:"media,omitempty"`
}

type Stats struct {
	TotalPlaylists     int `db:"total_playlists"      json:"total_playlists"`
	TotalScheduleRules int `db:"total_schedule_rules" json:"total_scheduled_items"`
	TotalMedia         int `db:"total_media"          json:"total_media"`
}
