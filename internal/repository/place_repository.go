package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

// PlaceRepository handles persistence for yard places.
type PlaceRepository struct {
	db *sqlx.DB
}

// NewPlaceRepository instantiates a place repository.
func NewPlaceRepository(db *sqlx.DB) *PlaceRepository {
	return &PlaceRepository{db: db}
}

const placeColumns = `id, yard_row, number, is_enabled, created_at, updated_at`

// List returns places matching provided filters ordered by row and number.
func (r *PlaceRepository) List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, int, error) {
	base := "FROM places WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Row > 0 {
		conditions = append(conditions, fmt.Sprintf("yard_row = $%d", len(args)+1))
		args = append(args, filter.Row)
	}
	if filter.IsEnabled != nil {
		conditions = append(conditions, fmt.Sprintf("is_enabled = $%d", len(args)+1))
		args = append(args, *filter.IsEnabled)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY yard_row, number LIMIT %d OFFSET %d", placeColumns, base, size, offset)

	var places []models.Place
	if err := r.db.SelectContext(ctx, &places, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list places: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count places: %w", err)
	}

	return places, total, nil
}

// FindByID loads a place by identifier.
func (r *PlaceRepository) FindByID(ctx context.Context, id string) (*models.Place, error) {
	query := fmt.Sprintf("SELECT %s FROM places WHERE id = $1", placeColumns)
	var place models.Place
	if err := r.db.GetContext(ctx, &place, query, id); err != nil {
		return nil, err
	}
	return &place, nil
}

// ExistsByRowNumber checks if a place occupies the same (row, number) pair.
func (r *PlaceRepository) ExistsByRowNumber(ctx context.Context, row, number int, excludeID string) (bool, error) {
	base := "SELECT 1 FROM places WHERE yard_row = $1 AND number = $2"
	args := []interface{}{row, number}
	if excludeID != "" {
		base += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check place uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new place record.
func (r *PlaceRepository) Create(ctx context.Context, place *models.Place) error {
	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	const query = `INSERT INTO places (id, yard_row, number, is_enabled, created_at, updated_at) VALUES (:id, :yard_row, :number, :is_enabled, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, place); err != nil {
		return fmt.Errorf("create place: %w", err)
	}
	return nil
}

// Update modifies the row/number coordinates of an existing place.
func (r *PlaceRepository) Update(ctx context.Context, place *models.Place) error {
	place.UpdatedAt = time.Now().UTC()
	const query = `UPDATE places SET yard_row = :yard_row, number = :number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, place); err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return nil
}

// Delete removes a place permanently. Callers must verify the place holds no
// open occupancy record and is not referenced by history.
func (r *PlaceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}

// HasOpenState reports whether the place currently holds an open occupancy
// record of any lifecycle state.
func (r *PlaceRepository) HasOpenState(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE place_id = $1 LIMIT 1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check place occupancy: %w", err)
	}
	return true, nil
}
