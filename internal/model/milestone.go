package model

import (
	"strings"
	"time"
)

// ImageKeyPrefix scopes object-store keys managed by this application.
// A non-empty image_url without this prefix is a legacy absolute URL and
// is never deleted or re-uploaded over.
const ImageKeyPrefix = "milestones/"

type Milestone struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	EventDate   string    `db:"event_date" json:"event_date"` // ISO YYYY-MM-DD
	ImageURL    *string   `db:"image_url" json:"image_url"`   // managed key or legacy absolute URL
	CreatedBy   *string   `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// HasManagedImage reports whether the record references an object this
// application stored (as opposed to a legacy externally hosted URL).
func (m *Milestone) HasManagedImage() bool {
	return m.ImageURL != nil && strings.HasPrefix(*m.ImageURL, ImageKeyPrefix)
}

// CreateMilestoneInput carries the fields for a new milestone record.
type CreateMilestoneInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date"`
	ImageURL    *string `json:"image_url"`
}

// UpdateMilestoneInput carries a partial update. Nil fields are left
// untouched; non-nil fields are written, including explicit empty strings.
type UpdateMilestoneInput struct {
	ID          string  `json:"id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	EventDate   *string `json:"event_date"`
	ImageURL    *string `json:"image_url"`
}
