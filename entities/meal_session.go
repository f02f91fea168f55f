package entities

import (
	"time"

	"github.com/google/uuid"
)

// MealSession stores the 3 option recipes as jsonb snapshots taken at
// creation time. Editing a recipe later never changes a session's options.
type MealSession struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	MealType        string     `json:"meal_type"` // "Breakfast", "Lunch", "Dinner", "Snack"
	Date            string     `gorm:"type:varchar(10)" json:"date"`
	Options         string     `gorm:"type:jsonb" json:"options"`
	Votes           string     `gorm:"type:jsonb;default:'{}'" json:"votes"` // userID -> optionID
	ConfirmedMealID *string    `json:"confirmed_meal_id,omitempty"`
	Invited         bool       `json:"invited"`
	InvitedTo       string     `gorm:"type:text" json:"invited_to"` // JSON array of addresses
	InvitedAt       *time.Time `json:"invited_at,omitempty"`

	Timestamp
}
