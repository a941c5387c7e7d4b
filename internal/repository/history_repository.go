package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

// HistoryRepository reads the append-only audit trail. Writes happen through
// insertHistory inside the same transaction as the state change they record.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository instantiates a history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

const historyColumns = `id, action, timestamp, place_id, place_row, place_number, bucket_id, bucket_name, material_id, material_name, weight_grams, operation_time, placement_time, empty_time, reason`

// List returns history records matching provided filters, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, int, error) {
	base := "FROM history_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Action != "" {
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)+1))
		args = append(args, filter.Action)
	}
	if filter.PlaceID != "" {
		conditions = append(conditions, fmt.Sprintf("place_id = $%d", len(args)+1))
		args = append(args, filter.PlaceID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("timestamp < $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY timestamp DESC LIMIT %d OFFSET %d", historyColumns, base, size, offset)

	var records []models.HistoryRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	return records, total, nil
}

// CountByPlace returns the number of history rows referencing a place.
// A place may not be hard-deleted while referenced by history.
func (r *HistoryRepository) CountByPlace(ctx context.Context, placeID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM history_records WHERE place_id = $1`, placeID); err != nil {
		return 0, fmt.Errorf("count place history: %w", err)
	}
	return count, nil
}

// Append writes a single history record outside of a transition transaction.
// Used by catalog operations that do not mutate the occupancy table.
func (r *HistoryRepository) Append(ctx context.Context, rec *models.HistoryRecord) error {
	return insertHistory(ctx, r.db, rec)
}

// insertHistory appends a record using the provided executor, which may be a
// transaction so the audit row commits atomically with the state change.
func insertHistory(ctx context.Context, ext sqlx.ExtContext, rec *models.HistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = now
	}
	if rec.OperationTime.IsZero() {
		rec.OperationTime = now
	}

	const query = `INSERT INTO history_records (id, action, timestamp, place_id, place_row, place_number, bucket_id, bucket_name, material_id, material_name, weight_grams, operation_time, placement_time, empty_time, reason)
VALUES (:id, :action, :timestamp, :place_id, :place_row, :place_number, :bucket_id, :bucket_name, :material_id, :material_name, :weight_grams, :operation_time, :placement_time, :empty_time, :reason)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, rec); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
