package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/repository"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type slagFieldRepository interface {
	OpenState(ctx context.Context, placeID string) (*models.OccupancyRecord, error)
	ListStates(ctx context.Context) ([]models.OccupancyRecord, error)
	PlaceBucket(ctx context.Context, rec *models.OccupancyRecord, hist *models.HistoryRecord) error
	EmptyBucket(ctx context.Context, stateID string, endDate time.Time, hist *models.HistoryRecord) error
	RemoveBucket(ctx context.Context, stateID string, hist *models.HistoryRecord) error
	InvalidateState(ctx context.Context, stateID string, hist *models.HistoryRecord) error
	SetPlaceEnabled(ctx context.Context, placeID string, enabled bool, hist *models.HistoryRecord) error
}

type placeCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Place, error)
	List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, int, error)
}

type bucketCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Bucket, error)
}

type materialCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ListStages(ctx context.Context, materialID string) ([]models.CoolingStage, error)
}

type fieldCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

// PlaceBucketRequest describes payload for setting a bucket down on a place.
type PlaceBucketRequest struct {
	BucketID    string    `json:"bucket_id" validate:"required"`
	MaterialID  string    `json:"material_id" validate:"required"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	WeightGrams int64     `json:"weight_grams" validate:"gte=0"`
}

// EmptyBucketRequest describes payload for the gated empty transition.
type EmptyBucketRequest struct {
	EndDate time.Time `json:"end_date" validate:"required"`
}

// InvalidateStateRequest clears a place after an operator error.
type InvalidateStateRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// SlagFieldService is the place lifecycle state machine. It validates
// transitions against catalog data and the cooling gate, then commits the
// new state and its audit record through the repository.
type SlagFieldService struct {
	states    slagFieldRepository
	places    placeCatalog
	buckets   bucketCatalog
	materials materialCatalog
	cache     fieldCache
	policy    CoolingPolicy
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSlagFieldService creates the lifecycle service.
func NewSlagFieldService(states slagFieldRepository, places placeCatalog, buckets bucketCatalog, materials materialCatalog, cache fieldCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SlagFieldService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlagFieldService{
		states:    states,
		places:    places,
		buckets:   buckets,
		materials: materials,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// PlaceBucket creates a new occupancy record in BucketPlaced state.
func (s *SlagFieldService) PlaceBucket(ctx context.Context, placeID string, req PlaceBucketRequest) (*models.OccupancyRecord, error) {
	rec, err := s.placeBucket(ctx, placeID, req)
	s.record(models.ActionPlaceBucket, err)
	return rec, err
}

func (s *SlagFieldService) placeBucket(ctx context.Context, placeID string, req PlaceBucketRequest) (*models.OccupancyRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid place bucket payload")
	}

	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if !place.IsEnabled {
		return nil, appErrors.Clone(appErrors.ErrPlaceNotAvailable, fmt.Sprintf("place %d is out of service", place.Code()))
	}

	bucket, err := s.buckets.FindByID(ctx, req.BucketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "bucket not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bucket")
	}
	if bucket.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "bucket is deleted")
	}

	material, err := s.materials.FindByID(ctx, req.MaterialID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "material is deleted")
	}

	rec := &models.OccupancyRecord{
		PlaceID:     placeID,
		BucketID:    bucket.ID,
		MaterialID:  material.ID,
		StartDate:   req.StartDate,
		WeightGrams: req.WeightGrams,
	}

	hist := historySnapshot(models.ActionPlaceBucket, place, bucket, material)
	hist.WeightGrams = &rec.WeightGrams
	hist.PlacementTime = &rec.StartDate

	if err := s.states.PlaceBucket(ctx, rec, hist); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlaceOccupied):
			return nil, appErrors.Clone(appErrors.ErrPlaceNotAvailable, fmt.Sprintf("place %d already holds a bucket", place.Code()))
		case errors.Is(err, repository.ErrBucketInUse):
			return nil, appErrors.Clone(appErrors.ErrBucketAlreadyInUse, fmt.Sprintf("bucket %s is already placed elsewhere", bucket.Name))
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "place not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit placement")
		}
	}

	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return rec, nil
}

// EmptyBucket moves the open record to BucketEmptied once the cooling gate
// allows it. Eligibility is evaluated against wall-clock now, not endDate.
func (s *SlagFieldService) EmptyBucket(ctx context.Context, placeID string, req EmptyBucketRequest) (*models.OccupancyRecord, error) {
	rec, err := s.emptyBucket(ctx, placeID, req)
	s.record(models.ActionEmptyBucket, err)
	return rec, err
}

func (s *SlagFieldService) emptyBucket(ctx context.Context, placeID string, req EmptyBucketRequest) (*models.OccupancyRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid empty bucket payload")
	}

	state, err := s.loadOpenState(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if state.State != models.StateBucketPlaced {
		return nil, appErrors.Clone(appErrors.ErrNoActiveState, "bucket on this place is already emptied")
	}

	material, err := s.materials.FindByID(ctx, state.MaterialID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	stages, err := s.materials.ListStages(ctx, state.MaterialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cooling profile")
	}

	assessment := s.policy.Assess(stages, state.StartDate, time.Now().UTC())
	if !assessment.Eligible {
		return nil, appErrors.Clone(appErrors.ErrNotReadyForEmptying, notReadyMessage(material, assessment))
	}

	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}
	bucket, _ := s.buckets.FindByID(ctx, state.BucketID)

	hist := historySnapshot(models.ActionEmptyBucket, place, bucket, material)
	hist.WeightGrams = &state.WeightGrams
	hist.PlacementTime = &state.StartDate
	hist.EmptyTime = &req.EndDate

	if err := s.states.EmptyBucket(ctx, state.ID, req.EndDate, hist); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "field state changed concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit emptying")
	}

	state.State = models.StateBucketEmptied
	state.EndDate = &req.EndDate
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return state, nil
}

// RemoveBucket deletes the emptied record, returning the place to empty.
func (s *SlagFieldService) RemoveBucket(ctx context.Context, placeID string) error {
	err := s.removeBucket(ctx, placeID)
	s.record(models.ActionRemoveBucket, err)
	return err
}

func (s *SlagFieldService) removeBucket(ctx context.Context, placeID string) error {
	state, err := s.loadOpenState(ctx, placeID)
	if err != nil {
		return err
	}
	if state.State != models.StateBucketEmptied {
		return appErrors.Clone(appErrors.ErrBucketNotEmptied, "bucket must be emptied before removal")
	}

	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return err
	}
	bucket, _ := s.buckets.FindByID(ctx, state.BucketID)
	material, _ := s.materials.FindByID(ctx, state.MaterialID)

	hist := historySnapshot(models.ActionRemoveBucket, place, bucket, material)
	hist.WeightGrams = &state.WeightGrams
	hist.PlacementTime = &state.StartDate
	hist.EmptyTime = state.EndDate

	if err := s.states.RemoveBucket(ctx, state.ID, hist); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return appErrors.Clone(appErrors.ErrConflict, "field state changed concurrently, retry")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit removal")
	}

	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return nil
}

// InvalidateState deletes the open record unconditionally, recording why.
func (s *SlagFieldService) InvalidateState(ctx context.Context, placeID string, req InvalidateStateRequest) error {
	err := s.invalidateState(ctx, placeID, req)
	s.record(models.ActionInvalidateState, err)
	return err
}

func (s *SlagFieldService) invalidateState(ctx context.Context, placeID string, req InvalidateStateRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invalidate payload")
	}

	state, err := s.loadOpenState(ctx, placeID)
	if err != nil {
		return err
	}

	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return err
	}
	bucket, _ := s.buckets.FindByID(ctx, state.BucketID)
	material, _ := s.materials.FindByID(ctx, state.MaterialID)

	hist := historySnapshot(models.ActionInvalidateState, place, bucket, material)
	hist.WeightGrams = &state.WeightGrams
	hist.PlacementTime = &state.StartDate
	hist.Reason = &req.Reason

	if err := s.states.InvalidateState(ctx, state.ID, hist); err != nil {
		if errors.Is(err, repository.ErrNoOpenState) {
			return appErrors.Clone(appErrors.ErrNoActiveState, "place has no active bucket")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit invalidation")
	}

	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return nil
}

// EnablePlace puts a place back in service.
func (s *SlagFieldService) EnablePlace(ctx context.Context, placeID string) error {
	err := s.setEnabled(ctx, placeID, true)
	s.record(models.ActionEnablePlace, err)
	return err
}

// DisablePlace takes a place out of service. Allowed only while the place
// holds no open occupancy record.
func (s *SlagFieldService) DisablePlace(ctx context.Context, placeID string) error {
	err := s.setEnabled(ctx, placeID, false)
	s.record(models.ActionDisablePlace, err)
	return err
}

func (s *SlagFieldService) setEnabled(ctx context.Context, placeID string, enabled bool) error {
	place, err := s.loadPlace(ctx, placeID)
	if err != nil {
		return err
	}

	action := models.ActionDisablePlace
	if enabled {
		action = models.ActionEnablePlace
	}
	hist := historySnapshot(action, place, nil, nil)

	if err := s.states.SetPlaceEnabled(ctx, placeID, enabled, hist); err != nil {
		switch {
		case errors.Is(err, repository.ErrPlaceOccupied):
			return appErrors.Clone(appErrors.ErrPlaceNotAvailable, fmt.Sprintf("place %d still holds a bucket", place.Code()))
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrReferenceNotFound, "place not found")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle place")
		}
	}

	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return nil
}

// Eligibility answers whether the bucket on a place may be emptied now.
func (s *SlagFieldService) Eligibility(ctx context.Context, placeID string, now time.Time) (*models.Eligibility, error) {
	state, err := s.loadOpenState(ctx, placeID)
	if err != nil {
		return nil, err
	}

	material, err := s.materials.FindByID(ctx, state.MaterialID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	stages, err := s.materials.ListStages(ctx, state.MaterialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cooling profile")
	}

	assessment := s.policy.Assess(stages, state.StartDate, now)
	out := &models.Eligibility{Eligible: assessment.Eligible}
	if !assessment.Eligible {
		out.Reason = notReadyMessage(material, assessment)
	}
	return out, nil
}

// VisualStage returns the current cooling classification of a place.
func (s *SlagFieldService) VisualStage(ctx context.Context, placeID string, now time.Time) (*models.VisualStage, error) {
	state, err := s.loadOpenState(ctx, placeID)
	if err != nil {
		return nil, err
	}

	stages, err := s.materials.ListStages(ctx, state.MaterialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cooling profile")
	}

	assessment := s.policy.Assess(stages, state.StartDate, now)
	out := &models.VisualStage{
		ElapsedHours: assessment.ElapsedHours,
		ExceedsMax:   assessment.ExceedsMaxDuration,
	}
	if assessment.Stage != nil {
		code := assessment.Stage.VisualCode
		out.Stage = &code
	}
	return out, nil
}

// FieldState returns the enriched dashboard rows for every place. The view
// is served from a short-lived cache when available.
func (s *SlagFieldService) FieldState(ctx context.Context) ([]models.FieldPlaceView, error) {
	var cached []models.FieldPlaceView
	start := time.Now()
	if err := s.cache.Get(ctx, repository.FieldStateCacheKey, &cached); err == nil {
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return cached, nil
	}
	s.metrics.RecordCacheOperation(false, time.Since(start))

	places, _, err := s.places.List(ctx, models.PlaceFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list places")
	}

	states, err := s.states.ListStates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list field states")
	}
	byPlace := make(map[string]*models.OccupancyRecord, len(states))
	for i := range states {
		byPlace[states[i].PlaceID] = &states[i]
	}

	now := time.Now().UTC()
	views := make([]models.FieldPlaceView, 0, len(places))
	for _, place := range places {
		view := models.FieldPlaceView{Place: place}
		if state, ok := byPlace[place.ID]; ok {
			view.Occupancy = state

			if bucket, err := s.buckets.FindByID(ctx, state.BucketID); err == nil {
				view.BucketName = bucket.Name
			}
			if material, err := s.materials.FindByID(ctx, state.MaterialID); err == nil {
				view.MaterialName = material.Name
			}

			stages, err := s.materials.ListStages(ctx, state.MaterialID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cooling profile")
			}
			assessment := s.policy.Assess(stages, state.StartDate, now)
			view.ElapsedHours = assessment.ElapsedHours
			view.Eligible = assessment.Eligible
			view.ExceedsMax = assessment.ExceedsMaxDuration
			if assessment.Stage != nil {
				code := assessment.Stage.VisualCode
				view.VisualCode = &code
			}
		}
		views = append(views, view)
	}

	if err := s.cache.Set(ctx, repository.FieldStateCacheKey, views, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache field state", zap.Error(err))
	}
	return views, nil
}

func (s *SlagFieldService) loadPlace(ctx context.Context, placeID string) (*models.Place, error) {
	place, err := s.places.FindByID(ctx, placeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrReferenceNotFound, "place not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load place")
	}
	return place, nil
}

func (s *SlagFieldService) loadOpenState(ctx context.Context, placeID string) (*models.OccupancyRecord, error) {
	state, err := s.states.OpenState(ctx, placeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveState, "place has no active bucket")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load field state")
	}
	return state, nil
}

func (s *SlagFieldService) record(action models.HistoryAction, err error) {
	outcome := "success"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.RecordFieldOperation(string(action), outcome)
}

// historySnapshot copies names into the audit row at operation time so later
// renames do not corrupt history.
func historySnapshot(action models.HistoryAction, place *models.Place, bucket *models.Bucket, material *models.Material) *models.HistoryRecord {
	hist := &models.HistoryRecord{Action: action, OperationTime: time.Now().UTC()}
	if place != nil {
		hist.PlaceID = &place.ID
		hist.PlaceRow = &place.Row
		hist.PlaceNumber = &place.Number
	}
	if bucket != nil {
		hist.BucketID = &bucket.ID
		hist.BucketName = &bucket.Name
	}
	if material != nil {
		hist.MaterialID = &material.ID
		hist.MaterialName = &material.Name
	}
	return hist
}

func notReadyMessage(material *models.Material, assessment models.CoolingAssessment) string {
	name := "unknown material"
	if material != nil {
		name = material.Name
	}
	msg := fmt.Sprintf("%s: cooling not finished", name)
	if assessment.EligibleAfterHours != nil {
		msg += fmt.Sprintf(", emptying possible after %g hours", *assessment.EligibleAfterHours)
	}
	return msg
}
