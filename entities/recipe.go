package entities

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	Title           string     `json:"title"`
	VideoURL        string     `json:"video_url,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	Ingredients     string     `json:"ingredients" gorm:"type:text"` // JSON array of {name, quantity, unit}
	Servings        int        `json:"servings"`
	PrepTimeMinutes int        `json:"prep_time_minutes"`
	Steps           string     `json:"steps" gorm:"type:text"` // JSON array of strings
	PreparedCount   int        `json:"prepared_count"`
	LastPreparedAt  *time.Time `json:"last_prepared_at,omitempty"`
	IsGenerated     bool       `json:"is_generated"`

	Timestamp
}
