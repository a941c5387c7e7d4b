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

// MaterialRepository handles persistence for materials and their cooling
// profiles.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository instantiates a material repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `id, name, is_deleted, created_at, updated_at`

// List returns materials, excluding soft-deleted ones unless requested.
func (r *MaterialRepository) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	base := "FROM materials WHERE 1=1"
	var args []interface{}
	if !filter.IncludeDeleted {
		base += " AND is_deleted = FALSE"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name LIMIT %d OFFSET %d", materialColumns, base, size, offset)

	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}

	return materials, total, nil
}

// FindByID loads a material by identifier.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	query := fmt.Sprintf("SELECT %s FROM materials WHERE id = $1", materialColumns)
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create inserts a new material record.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now

	const query = `INSERT INTO materials (id, name, is_deleted, created_at, updated_at) VALUES (:id, :name, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// Update modifies an existing material.
func (r *MaterialRepository) Update(ctx context.Context, material *models.Material) error {
	material.UpdatedAt = time.Now().UTC()
	const query = `UPDATE materials SET name = :name, is_deleted = :is_deleted, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return nil
}

// SoftDelete marks the material deleted without removing the row.
func (r *MaterialRepository) SoftDelete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE materials SET is_deleted = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete material: %w", err)
	}
	return nil
}

// IsReferencedByOpenState reports whether an open occupancy record uses the
// material.
func (r *MaterialRepository) IsReferencedByOpenState(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE material_id = $1 LIMIT 1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check material references: %w", err)
	}
	return true, nil
}

// ListStages returns a material's cooling stages ordered by lower bound.
func (r *MaterialRepository) ListStages(ctx context.Context, materialID string) ([]models.CoolingStage, error) {
	const query = `SELECT id, material_id, total_duration_minutes, visual_code, min_hours, max_hours FROM cooling_stages WHERE material_id = $1 ORDER BY min_hours`
	var stages []models.CoolingStage
	if err := r.db.SelectContext(ctx, &stages, query, materialID); err != nil {
		return nil, fmt.Errorf("list cooling stages: %w", err)
	}
	return stages, nil
}

// CountStages returns the number of stages configured for a material.
func (r *MaterialRepository) CountStages(ctx context.Context, materialID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM cooling_stages WHERE material_id = $1`, materialID); err != nil {
		return 0, fmt.Errorf("count cooling stages: %w", err)
	}
	return count, nil
}

// ReplaceStages swaps the material's whole stage set atomically. Editing a
// single stage conceptually replaces the set, so the old rows are deleted
// and the new ones inserted in one transaction.
func (r *MaterialRepository) ReplaceStages(ctx context.Context, materialID string, stages []models.CoolingStage, hist *models.HistoryRecord) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace stages tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM cooling_stages WHERE material_id = $1`, materialID); err != nil {
		return fmt.Errorf("clear cooling stages: %w", err)
	}

	const insert = `INSERT INTO cooling_stages (id, material_id, total_duration_minutes, visual_code, min_hours, max_hours) VALUES (:id, :material_id, :total_duration_minutes, :visual_code, :min_hours, :max_hours)`
	for i := range stages {
		if stages[i].ID == "" {
			stages[i].ID = uuid.NewString()
		}
		stages[i].MaterialID = materialID
		if _, err = sqlx.NamedExecContext(ctx, tx, insert, stages[i]); err != nil {
			return fmt.Errorf("insert cooling stage: %w", err)
		}
	}

	if hist != nil {
		if err = insertHistory(ctx, tx, hist); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace stages tx: %w", err)
	}
	return nil
}
