package models

import "time"

// HistoryAction names the operator action a history row records.
type HistoryAction string

const (
	ActionPlaceBucket     HistoryAction = "placeBucket"
	ActionEmptyBucket     HistoryAction = "emptyBucket"
	ActionRemoveBucket    HistoryAction = "removeBucket"
	ActionInvalidateState HistoryAction = "invalidateState"
	ActionEnablePlace     HistoryAction = "enablePlace"
	ActionDisablePlace    HistoryAction = "disablePlace"
	ActionCreatePlace     HistoryAction = "createPlace"
	ActionUpdatePlace     HistoryAction = "updatePlace"
	ActionDeletePlace     HistoryAction = "deletePlace"
	ActionCreateBucket    HistoryAction = "createBucket"
	ActionUpdateBucket    HistoryAction = "updateBucket"
	ActionDeleteBucket    HistoryAction = "deleteBucket"
	ActionCreateMaterial  HistoryAction = "createMaterial"
	ActionUpdateMaterial  HistoryAction = "updateMaterial"
	ActionDeleteMaterial  HistoryAction = "deleteMaterial"
	ActionReplaceProfile  HistoryAction = "replaceCoolingProfile"
)

// HistoryRecord is an append-only audit row. Names are denormalized copies
// taken at operation time so later catalog renames do not rewrite history.
type HistoryRecord struct {
	ID            string        `db:"id" json:"id"`
	Action        HistoryAction `db:"action" json:"action"`
	Timestamp     time.Time     `db:"timestamp" json:"timestamp"`
	PlaceID       *string       `db:"place_id" json:"place_id,omitempty"`
	PlaceRow      *int          `db:"place_row" json:"place_row,omitempty"`
	PlaceNumber   *int          `db:"place_number" json:"place_number,omitempty"`
	BucketID      *string       `db:"bucket_id" json:"bucket_id,omitempty"`
	BucketName    *string       `db:"bucket_name" json:"bucket_name,omitempty"`
	MaterialID    *string       `db:"material_id" json:"material_id,omitempty"`
	MaterialName  *string       `db:"material_name" json:"material_name,omitempty"`
	WeightGrams   *int64        `db:"weight_grams" json:"weight_grams,omitempty"`
	OperationTime time.Time     `db:"operation_time" json:"operation_time"`
	PlacementTime *time.Time    `db:"placement_time" json:"placement_time,omitempty"`
	EmptyTime     *time.Time    `db:"empty_time" json:"empty_time,omitempty"`
	Reason        *string       `db:"reason" json:"reason,omitempty"`
}

// HistoryFilter defines filters supported by the history list endpoint.
type HistoryFilter struct {
	Action   HistoryAction
	PlaceID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
