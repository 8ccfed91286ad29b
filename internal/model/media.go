package model

import "time"

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (t MediaType) Valid() bool {
	return t == MediaImage || t == MediaVideo
}

// MediaAsset is an uploaded image or video. Duration is in seconds.
type MediaAsset struct {
	ID          int       `db:"id"           json:"id"`
	Filename    string    `db:"filename"     json:"filename"`
	MediaType   MediaType `db:"media_type"   json:"media_type"`
	Duration    int       `db:"duration"     json:"duration"`
	StoragePath string    `db:"storage_path" json:"storage_path"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}

// MediaPlaylistRef is one playlist that contains a given media asset.
type MediaPlaylistRef struct {
	PlaylistID  int     `db:"playlist_id"  json:"playlist_id"`
	Name        string  `db:"name"         json:"name"`
	Description *string `db:"description"  json:"description,omitempty"`
	OrderIndex  int     `db:"order_index"  json:"order_index"`
	Duration    *int    `db:"duration"     json:"duration,omitempty"`
}
