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

// BucketRepository handles persistence for slag buckets.
type BucketRepository struct {
	db *sqlx.DB
}

// NewBucketRepository instantiates a bucket repository.
func NewBucketRepository(db *sqlx.DB) *BucketRepository {
	return &BucketRepository{db: db}
}

const bucketColumns = `id, name, is_deleted, created_at, updated_at`

// List returns buckets, excluding soft-deleted ones unless requested.
func (r *BucketRepository) List(ctx context.Context, filter models.BucketFilter) ([]models.Bucket, int, error) {
	base := "FROM buckets WHERE 1=1"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name LIMIT %d OFFSET %d", bucketColumns, base, size, offset)

	var buckets []models.Bucket
	if err := r.db.SelectContext(ctx, &buckets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list buckets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count buckets: %w", err)
	}

	return buckets, total, nil
}

// FindByID loads a bucket by identifier.
func (r *BucketRepository) FindByID(ctx context.Context, id string) (*models.Bucket, error) {
	query := fmt.Sprintf("SELECT %s FROM buckets WHERE id = $1", bucketColumns)
	var bucket models.Bucket
	if err := r.db.GetContext(ctx, &bucket, query, id); err != nil {
		return nil, err
	}
	return &bucket, nil
}

// Create inserts a new bucket record.
func (r *BucketRepository) Create(ctx context.Context, bucket *models.Bucket) error {
	if bucket.ID == "" {
		bucket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if bucket.CreatedAt.IsZero() {
		bucket.CreatedAt = now
	}
	bucket.UpdatedAt = now

	const query = `INSERT INTO buckets (id, name, is_deleted, created_at, updated_at) VALUES (:id, :name, :is_deleted, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, bucket); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Update modifies an existing bucket.
func (r *BucketRepository) Update(ctx context.Context, bucket *models.Bucket) error {
	bucket.UpdatedAt = time.Now().UTC()
	const query = `UPDATE buckets SET name = :name, is_deleted = :is_deleted, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, bucket); err != nil {
		return fmt.Errorf("update bucket: %w", err)
	}
	return nil
}

// SoftDelete marks the bucket deleted without removing the row.
func (r *BucketRepository) SoftDelete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE buckets SET is_deleted = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete bucket: %w", err)
	}
	return nil
}

// IsInUse reports whether the bucket is referenced by an open occupancy record.
func (r *BucketRepository) IsInUse(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM slag_field_states WHERE bucket_id = $1 LIMIT 1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check bucket in use: %w", err)
	}
	return true, nil
}
