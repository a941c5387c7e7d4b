package models

import "time"

// VisualCode classifies how a cooling bucket looks on the yard dashboard.
type VisualCode string

const (
	VisualRed    VisualCode = "Red"
	VisualYellow VisualCode = "Yellow"
	VisualBlue   VisualCode = "Blue"
	VisualGreen  VisualCode = "Green"
)

// Material is a slag material with its own cooling profile.
type Material struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MaterialFilter defines filters supported by the material list endpoint.
type MaterialFilter struct {
	IncludeDeleted bool
	Page           int
	PageSize       int
}

// CoolingStage is one time-bucketed slice of a material's cooling profile.
// Stages for a material cover [0, TotalDurationMinutes/60) contiguously and
// all share the same TotalDurationMinutes.
type CoolingStage struct {
	ID                   string     `db:"id" json:"id"`
	MaterialID           string     `db:"material_id" json:"material_id"`
	TotalDurationMinutes int        `db:"total_duration_minutes" json:"total_duration_minutes"`
	VisualCode           VisualCode `db:"visual_code" json:"visual_code"`
	MinHours             float64    `db:"min_hours" json:"min_hours"`
	MaxHours             float64    `db:"max_hours" json:"max_hours"`
}
