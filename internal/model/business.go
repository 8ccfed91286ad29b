package model

import "time"

// DefaultBusinessName is used until an operator sets one.
const DefaultBusinessName = "My Business"

// Business is the singleton profile players show as branding.
type Business struct {
	Name      string    `db:"name"       json:"name"`
	LogoPath  *string   `db:"logo_path"  json:"logo_path,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
