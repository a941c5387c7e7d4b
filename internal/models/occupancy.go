package models

import "time"

// OccupancyState tags the lifecycle stage of an open occupancy record.
type OccupancyState string

const (
	StateBucketPlaced  OccupancyState = "BucketPlaced"
	StateBucketEmptied OccupancyState = "BucketEmptied"
)

// OccupancyRecord is the open state of one place. A record exists only while
// a bucket sits on the place; removal and invalidation delete the row, so at
// most one record per place exists at any time.
type OccupancyRecord struct {
	ID          string         `db:"id" json:"id"`
	PlaceID     string         `db:"place_id" json:"place_id"`
	BucketID    string         `db:"bucket_id" json:"bucket_id"`
	MaterialID  string         `db:"material_id" json:"material_id"`
	State       OccupancyState `db:"state" json:"state"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	EndDate     *time.Time     `db:"end_date" json:"end_date"`
	WeightGrams int64          `db:"weight_grams" json:"weight_grams"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// CoolingAssessment is the on-demand evaluation of an occupancy record
// against its material's cooling profile at a given wall-clock instant.
type CoolingAssessment struct {
	ElapsedHours       float64       `json:"elapsed_hours"`
	Stage              *CoolingStage `json:"stage,omitempty"`
	Eligible           bool          `json:"eligible"`
	EligibleAfterHours *float64      `json:"eligible_after_hours,omitempty"`
	MaxDurationHours   float64       `json:"max_duration_hours"`
	ExceedsMaxDuration bool          `json:"exceeds_max_duration"`
}

// Eligibility is the empty-gate verdict exposed to the UI.
type Eligibility struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// VisualStage is the current cooling classification exposed to the UI.
type VisualStage struct {
	Stage        *VisualCode `json:"stage,omitempty"`
	ElapsedHours float64     `json:"elapsed_hours"`
	ExceedsMax   bool        `json:"exceeds_max"`
}

// FieldPlaceView is one enriched row of the slag field dashboard: the place
// plus its occupancy and cooling assessment, if any.
type FieldPlaceView struct {
	Place        Place            `json:"place"`
	Occupancy    *OccupancyRecord `json:"occupancy,omitempty"`
	BucketName   string           `json:"bucket_name,omitempty"`
	MaterialName string           `json:"material_name,omitempty"`
	ElapsedHours float64          `json:"elapsed_hours,omitempty"`
	VisualCode   *VisualCode      `json:"visual_code,omitempty"`
	Eligible     bool             `json:"eligible,omitempty"`
	ExceedsMax   bool             `json:"exceeds_max,omitempty"`
}
