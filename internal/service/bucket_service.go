package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type bucketRepository interface {
	List(ctx context.Context, filter models.BucketFilter) ([]models.Bucket, int, error)
	FindByID(ctx context.Context, id string) (*models.Bucket, error)
	Create(ctx context.Context, bucket *models.Bucket) error
	Update(ctx context.Context, bucket *models.Bucket) error
	SoftDelete(ctx context.Context, id string) error
	IsInUse(ctx context.Context, id string) (bool, error)
}

// CreateBucketRequest captures fields for registering buckets.
type CreateBucketRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateBucketRequest renames a bucket.
type UpdateBucketRequest struct {
	Name string `json:"name" validate:"required"`
}

// BucketService handles the slag bucket catalog.
type BucketService struct {
	repo      bucketRepository
	history   historyAppender
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBucketService creates a new bucket service.
func NewBucketService(repo bucketRepository, history historyAppender, validate *validator.Validate, logger *zap.Logger) *BucketService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BucketService{repo: repo, history: history, validator: validate, logger: logger}
}

// List returns paginated buckets.
func (s *BucketService) List(ctx context.Context, filter models.BucketFilter) ([]models.Bucket, *models.Pagination, error) {
	buckets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list buckets")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return buckets, pagination, nil
}

// Get returns a bucket by identifier.
func (s *BucketService) Get(ctx context.Context, id string) (*models.Bucket, error) {
	bucket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bucket")
	}
	return bucket, nil
}

// Create registers a new bucket.
func (s *BucketService) Create(ctx context.Context, req CreateBucketRequest) (*models.Bucket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bucket payload")
	}

	bucket := &models.Bucket{Name: strings.TrimSpace(req.Name)}

	if err := s.repo.Create(ctx, bucket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bucket")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionCreateBucket, nil, bucket, nil))
	return bucket, nil
}

// Update renames an existing bucket.
func (s *BucketService) Update(ctx context.Context, id string, req UpdateBucketRequest) (*models.Bucket, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bucket payload")
	}

	bucket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bucket")
	}
	if bucket.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket is deleted")
	}

	bucket.Name = strings.TrimSpace(req.Name)

	if err := s.repo.Update(ctx, bucket); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bucket")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionUpdateBucket, nil, bucket, nil))
	return bucket, nil
}

// Delete soft-deletes a bucket that is not currently on the field.
func (s *BucketService) Delete(ctx context.Context, id string) error {
	bucket, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bucket")
	}

	inUse, err := s.repo.IsInUse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bucket usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrBucketAlreadyInUse, "bucket is currently placed on the field")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bucket")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionDeleteBucket, nil, bucket, nil))
	return nil
}

func (s *BucketService) appendHistory(ctx context.Context, rec *models.HistoryRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append history record", zap.String("action", string(rec.Action)), zap.Error(err))
	}
}
