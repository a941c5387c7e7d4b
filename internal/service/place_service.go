package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/repository"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type placeRepository interface {
	List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, int, error)
	FindByID(ctx context.Context, id string) (*models.Place, error)
	ExistsByRowNumber(ctx context.Context, row, number int, excludeID string) (bool, error)
	Create(ctx context.Context, place *models.Place) error
	Update(ctx context.Context, place *models.Place) error
	Delete(ctx context.Context, id string) error
	HasOpenState(ctx context.Context, id string) (bool, error)
}

type historyAppender interface {
	Append(ctx context.Context, rec *models.HistoryRecord) error
}

type placeHistory interface {
	historyAppender
	CountByPlace(ctx context.Context, placeID string) (int, error)
}

// CreatePlaceRequest captures fields for creating yard places.
type CreatePlaceRequest struct {
	Row    int `json:"row" validate:"required,gte=1"`
	Number int `json:"number" validate:"required,gte=1"`
}

// UpdatePlaceRequest moves a place to new coordinates.
type UpdatePlaceRequest struct {
	Row    int `json:"row" validate:"required,gte=1"`
	Number int `json:"number" validate:"required,gte=1"`
}

// PlaceService handles the yard place catalog.
type PlaceService struct {
	repo      placeRepository
	history   placeHistory
	cache     fieldCache
	maxNumber int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlaceService creates a new place service.
func NewPlaceService(repo placeRepository, history placeHistory, cache fieldCache, maxNumber int, validate *validator.Validate, logger *zap.Logger) *PlaceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxNumber <= 0 {
		maxNumber = 20
	}
	return &PlaceService{repo: repo, history: history, cache: cache, maxNumber: maxNumber, validator: validate, logger: logger}
}

// List returns paginated places.
func (s *PlaceService) List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, *models.Pagination, error) {
	places, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list places")
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
	return places, pagination, nil
}

// Get returns a place by identifier.
func (s *PlaceService) Get(ctx context.Context, id string) (*models.Place, error) {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "place not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load place")
	}
	return place, nil
}

// Create adds a new place ensuring the (row, number) pair stays unique.
func (s *PlaceService) Create(ctx context.Context, req CreatePlaceRequest) (*models.Place, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid place payload")
	}
	if req.Number > s.maxNumber {
		return nil, appErrors.Clone(appErrors.ErrValidation, "place number exceeds row capacity")
	}

	exists, err := s.repo.ExistsByRowNumber(ctx, req.Row, req.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check place coordinates")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "place with same row and number already exists")
	}

	place := &models.Place{
		Row:       req.Row,
		Number:    req.Number,
		IsEnabled: true,
	}

	if err := s.repo.Create(ctx, place); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create place")
	}

	s.appendHistory(ctx, placeCatalogSnapshot(models.ActionCreatePlace, place))
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return place, nil
}

// Update moves an existing place to new coordinates.
func (s *PlaceService) Update(ctx context.Context, id string, req UpdatePlaceRequest) (*models.Place, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid place payload")
	}
	if req.Number > s.maxNumber {
		return nil, appErrors.Clone(appErrors.ErrValidation, "place number exceeds row capacity")
	}

	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "place not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load place")
	}

	exists, err := s.repo.ExistsByRowNumber(ctx, req.Row, req.Number, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check place coordinates")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "place with same row and number already exists")
	}

	place.Row = req.Row
	place.Number = req.Number

	if err := s.repo.Update(ctx, place); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update place")
	}

	s.appendHistory(ctx, placeCatalogSnapshot(models.ActionUpdatePlace, place))
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return place, nil
}

// Delete removes an unoccupied place that no history rows reference. A place
// with lifecycle history keeps its row and should be taken out of use instead.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "place not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load place")
	}

	occupied, err := s.repo.HasOpenState(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check place occupancy")
	}
	if occupied {
		return appErrors.Clone(appErrors.ErrPlaceNotAvailable, "place still holds a bucket")
	}

	if s.history != nil {
		refs, err := s.history.CountByPlace(ctx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check place history")
		}
		if refs > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "place is referenced by history records, take it out of use instead")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete place")
	}

	s.appendHistory(ctx, placeCatalogSnapshot(models.ActionDeletePlace, place))
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return nil
}

// placeCatalogSnapshot records a catalog change by coordinates only. History
// rows carrying the place id pin the place against hard deletion; catalog
// bookkeeping must not.
func placeCatalogSnapshot(action models.HistoryAction, place *models.Place) *models.HistoryRecord {
	rec := historySnapshot(action, place, nil, nil)
	rec.PlaceID = nil
	return rec
}

func (s *PlaceService) appendHistory(ctx context.Context, rec *models.HistoryRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append history record", zap.String("action", string(rec.Action)), zap.Error(err))
	}
}
