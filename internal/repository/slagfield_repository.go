package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

// SlagFieldRepository owns the occupancy table and commits lifecycle
// transitions. Every transition runs in a transaction that first takes a row
// lock on the place, so two concurrent operations on the same place
// serialize instead of both passing the read-then-write check. The history
// row is inserted in the same transaction: either the transition and its
// audit record both commit, or neither does.
type SlagFieldRepository struct {
	db *sqlx.DB
}

// NewSlagFieldRepository instantiates a slag field repository.
func NewSlagFieldRepository(db *sqlx.DB) *SlagFieldRepository {
	return &SlagFieldRepository{db: db}
}

const stateColumns = `id, place_id, bucket_id, material_id, state, start_date, end_date, weight_grams, created_at`

// OpenState returns the open occupancy record for a place, if any.
// Removal deletes the row, so existence alone means the record is open.
func (r *SlagFieldRepository) OpenState(ctx context.Context, placeID string) (*models.OccupancyRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM slag_field_states WHERE place_id = $1", stateColumns)
	var rec models.OccupancyRecord
	if err := r.db.GetContext(ctx, &rec, query, placeID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListStates returns all open occupancy records.
func (r *SlagFieldRepository) ListStates(ctx context.Context) ([]models.OccupancyRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM slag_field_states ORDER BY start_date", stateColumns)
	var states []models.OccupancyRecord
	if err := r.db.SelectContext(ctx, &states, query); err != nil {
		return nil, fmt.Errorf("list field states: %w", err)
	}
	return states, nil
}

// PlaceBucket creates the occupancy record for a free, enabled place. The
// place row is locked before the occupancy and bucket guards are evaluated.
func (r *SlagFieldRepository) PlaceBucket(ctx context.Context, rec *models.OccupancyRecord, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin place bucket tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockPlace(ctx, tx, rec.PlaceID); err != nil {
		return err
	}

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE place_id = $1 LIMIT 1`, rec.PlaceID)
	if err == nil {
		return ErrPlaceOccupied
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check place occupancy: %w", err)
	}

	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE bucket_id = $1 LIMIT 1`, rec.BucketID)
	if err == nil {
		return ErrBucketInUse
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check bucket in use: %w", err)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.State = models.StateBucketPlaced
	rec.EndDate = nil

	const insert = `INSERT INTO slag_field_states (id, place_id, bucket_id, material_id, state, start_date, end_date, weight_grams, created_at) VALUES (:id, :place_id, :bucket_id, :material_id, :state, :start_date, :end_date, :weight_grams, :created_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insert, rec); err != nil {
		return fmt.Errorf("insert field state: %w", err)
	}

	if err = insertHistory(ctx, tx, hist); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit place bucket tx: %w", err)
	}
	return nil
}

// EmptyBucket moves an open record from BucketPlaced to BucketEmptied. The
// guarded UPDATE acts as the compare-and-commit: zero rows affected means
// the record changed state or disappeared since it was validated.
func (r *SlagFieldRepository) EmptyBucket(ctx context.Context, stateID string, endDate time.Time, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin empty bucket tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE slag_field_states SET state = $2, end_date = $3 WHERE id = $1 AND state = $4`,
		stateID, models.StateBucketEmptied, endDate, models.StateBucketPlaced)
	if err != nil {
		return fmt.Errorf("update field state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStateConflict
	}

	if err = insertHistory(ctx, tx, hist); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit empty bucket tx: %w", err)
	}
	return nil
}

// RemoveBucket deletes an emptied record, returning the place to empty.
func (r *SlagFieldRepository) RemoveBucket(ctx context.Context, stateID string, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove bucket tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM slag_field_states WHERE id = $1 AND state = $2`, stateID, models.StateBucketEmptied)
	if err != nil {
		return fmt.Errorf("delete field state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrStateConflict
	}

	if err = insertHistory(ctx, tx, hist); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit remove bucket tx: %w", err)
	}
	return nil
}

// InvalidateState deletes an open record regardless of its lifecycle state.
// Escape hatch for operator error; the reason travels in the history row.
func (r *SlagFieldRepository) InvalidateState(ctx context.Context, stateID string, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invalidate tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM slag_field_states WHERE id = $1`, stateID)
	if err != nil {
		return fmt.Errorf("delete field state: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNoOpenState
	}

	if err = insertHistory(ctx, tx, hist); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit invalidate tx: %w", err)
	}
	return nil
}

// SetPlaceEnabled toggles a place in or out of service. Disabling requires
// the place to hold no open occupancy record, checked under the place lock.
func (r *SlagFieldRepository) SetPlaceEnabled(ctx context.Context, placeID string, enabled bool, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set enabled tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockPlace(ctx, tx, placeID); err != nil {
		return err
	}

	if !enabled {
		var exists int
		err = tx.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE place_id = $1 LIMIT 1`, placeID)
		if err == nil {
			return ErrPlaceOccupied
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check place occupancy: %w", err)
		}
		err = nil
	}

	if _, err = tx.ExecContext(ctx, `UPDATE places SET is_enabled = $2, updated_at = $3 WHERE id = $1`, placeID, enabled, time.Now().UTC()); err != nil {
		return fmt.Errorf("update place enabled: %w", err)
	}

	if err = insertHistory(ctx, tx, hist); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set enabled tx: %w", err)
	}
	return nil
}

// lockPlace takes the per-place row lock that serializes transitions.
func lockPlace(ctx context.Context, tx *sqlx.Tx, placeID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM places WHERE id = $1 FOR UPDATE`, placeID); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock place: %w", err)
	}
	return nil
}
