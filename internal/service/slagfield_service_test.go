package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/repository"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type fakeStateRepo struct {
	open        map[string]*models.OccupancyRecord
	placeErr    error
	histories   []*models.HistoryRecord
	emptied     []string
	removed     []string
	invalidated []string
	toggled     map[string]bool
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{open: map[string]*models.OccupancyRecord{}, toggled: map[string]bool{}}
}

func (f *fakeStateRepo) OpenState(ctx context.Context, placeID string) (*models.OccupancyRecord, error) {
	if rec, ok := f.open[placeID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStateRepo) ListStates(ctx context.Context) ([]models.OccupancyRecord, error) {
	var out []models.OccupancyRecord
	for _, rec := range f.open {
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeStateRepo) PlaceBucket(ctx context.Context, rec *models.OccupancyRecord, hist *models.HistoryRecord) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	if _, ok := f.open[rec.PlaceID]; ok {
		return repository.ErrPlaceOccupied
	}
	for _, existing := range f.open {
		if existing.BucketID == rec.BucketID {
			return repository.ErrBucketInUse
		}
	}
	rec.ID = "state-" + rec.PlaceID
	rec.State = models.StateBucketPlaced
	cp := *rec
	f.open[rec.PlaceID] = &cp
	f.histories = append(f.histories, hist)
	return nil
}

func (f *fakeStateRepo) EmptyBucket(ctx context.Context, stateID string, endDate time.Time, hist *models.HistoryRecord) error {
	for _, rec := range f.open {
		if rec.ID == stateID {
			if rec.State != models.StateBucketPlaced {
				return repository.ErrStateConflict
			}
			rec.State = models.StateBucketEmptied
			rec.EndDate = &endDate
			f.emptied = append(f.emptied, stateID)
			f.histories = append(f.histories, hist)
			return nil
		}
	}
	return repository.ErrStateConflict
}

func (f *fakeStateRepo) RemoveBucket(ctx context.Context, stateID string, hist *models.HistoryRecord) error {
	for placeID, rec := range f.open {
		if rec.ID == stateID {
			if rec.State != models.StateBucketEmptied {
				return repository.ErrStateConflict
			}
			delete(f.open, placeID)
			f.removed = append(f.removed, stateID)
			f.histories = append(f.histories, hist)
			return nil
		}
	}
	return repository.ErrStateConflict
}

func (f *fakeStateRepo) InvalidateState(ctx context.Context, stateID string, hist *models.HistoryRecord) error {
	for placeID, rec := range f.open {
		if rec.ID == stateID {
			delete(f.open, placeID)
			f.invalidated = append(f.invalidated, stateID)
			f.histories = append(f.histories, hist)
			return nil
		}
	}
	return repository.ErrNoOpenState
}

func (f *fakeStateRepo) SetPlaceEnabled(ctx context.Context, placeID string, enabled bool, hist *models.HistoryRecord) error {
	if !enabled {
		if _, ok := f.open[placeID]; ok {
			return repository.ErrPlaceOccupied
		}
	}
	f.toggled[placeID] = enabled
	f.histories = append(f.histories, hist)
	return nil
}

type fakePlaceCatalog struct {
	places map[string]*models.Place
}

func (f *fakePlaceCatalog) FindByID(ctx context.Context, id string) (*models.Place, error) {
	if p, ok := f.places[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakePlaceCatalog) List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, int, error) {
	var out []models.Place
	for _, p := range f.places {
		out = append(out, *p)
	}
	return out, len(out), nil
}

type fakeBucketCatalog struct {
	buckets map[string]*models.Bucket
}

func (f *fakeBucketCatalog) FindByID(ctx context.Context, id string) (*models.Bucket, error) {
	if b, ok := f.buckets[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeMaterialCatalog struct {
	materials map[string]*models.Material
	stages    map[string][]models.CoolingStage
}

func (f *fakeMaterialCatalog) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if m, ok := f.materials[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeMaterialCatalog) ListStages(ctx context.Context, materialID string) ([]models.CoolingStage, error) {
	return f.stages[materialID], nil
}

type fakeCache struct {
	store       map[string][]byte
	sets        int
	invalidated int
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, keys ...string) {
	f.invalidated++
}

type fieldFixture struct {
	states    *fakeStateRepo
	places    *fakePlaceCatalog
	buckets   *fakeBucketCatalog
	materials *fakeMaterialCatalog
	cache     *fakeCache
	service   *SlagFieldService
}

func newFieldFixture() *fieldFixture {
	states := newFakeStateRepo()
	places := &fakePlaceCatalog{places: map[string]*models.Place{
		"place-1": {ID: "place-1", Row: 1, Number: 4, IsEnabled: true},
		"place-2": {ID: "place-2", Row: 1, Number: 5, IsEnabled: true},
		"place-3": {ID: "place-3", Row: 2, Number: 1, IsEnabled: false},
	}}
	buckets := &fakeBucketCatalog{buckets: map[string]*models.Bucket{
		"bucket-1": {ID: "bucket-1", Name: "K-101"},
		"bucket-2": {ID: "bucket-2", Name: "K-102"},
	}}
	materials := &fakeMaterialCatalog{
		materials: map[string]*models.Material{
			"mat-1": {ID: "mat-1", Name: "Converter slag"},
		},
		stages: map[string][]models.CoolingStage{"mat-1": slagProfile()},
	}
	cache := &fakeCache{}
	svc := NewSlagFieldService(states, places, buckets, materials, cache, 30*time.Second, nil, nil, zap.NewNop())
	return &fieldFixture{states: states, places: places, buckets: buckets, materials: materials, cache: cache, service: svc}
}

func placeReq(start time.Time) PlaceBucketRequest {
	return PlaceBucketRequest{
		BucketID:    "bucket-1",
		MaterialID:  "mat-1",
		StartDate:   start,
		WeightGrams: 12_500_000,
	}
}

func TestPlaceBucketSuccess(t *testing.T) {
	f := newFieldFixture()

	rec, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC()))
	require.NoError(t, err)
	assert.Equal(t, models.StateBucketPlaced, rec.State)
	assert.Nil(t, rec.EndDate)
	assert.Equal(t, 1, f.cache.invalidated)

	require.Len(t, f.states.histories, 1)
	hist := f.states.histories[0]
	assert.Equal(t, models.ActionPlaceBucket, hist.Action)
	require.NotNil(t, hist.BucketName)
	assert.Equal(t, "K-101", *hist.BucketName)
	require.NotNil(t, hist.MaterialName)
	assert.Equal(t, "Converter slag", *hist.MaterialName)
}

func TestPlaceBucketOnDisabledPlace(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-3", placeReq(time.Now().UTC()))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPlaceNotAvailable.Code, appErr.Code)
}

func TestPlaceBucketOnOccupiedPlace(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC()))
	require.NoError(t, err)

	req := placeReq(time.Now().UTC())
	req.BucketID = "bucket-2"
	_, err = f.service.PlaceBucket(context.Background(), "place-1", req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPlaceNotAvailable.Code, appErr.Code)
}

func TestPlaceBucketAlreadyInUse(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC()))
	require.NoError(t, err)

	_, err = f.service.PlaceBucket(context.Background(), "place-2", placeReq(time.Now().UTC()))
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrBucketAlreadyInUse.Code, appErr.Code)
}

func TestPlaceBucketUnknownReferences(t *testing.T) {
	f := newFieldFixture()

	req := placeReq(time.Now().UTC())
	req.BucketID = "missing"
	_, err := f.service.PlaceBucket(context.Background(), "place-1", req)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrReferenceNotFound.Code, appErr.Code)

	req = placeReq(time.Now().UTC())
	req.MaterialID = "missing"
	_, err = f.service.PlaceBucket(context.Background(), "place-1", req)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrReferenceNotFound.Code, appErr.Code)
}

func TestEmptyBucketBeforeCoolingFinishes(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC().Add(-6*time.Hour)))
	require.NoError(t, err)

	_, err = f.service.EmptyBucket(context.Background(), "place-1", EmptyBucketRequest{EndDate: time.Now().UTC()})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotReadyForEmptying.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Converter slag")
	assert.Contains(t, appErr.Message, "36")
}

func TestEmptyBucketAfterCooling(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC().Add(-40*time.Hour)))
	require.NoError(t, err)

	end := time.Now().UTC()
	rec, err := f.service.EmptyBucket(context.Background(), "place-1", EmptyBucketRequest{EndDate: end})
	require.NoError(t, err)
	assert.Equal(t, models.StateBucketEmptied, rec.State)
	require.NotNil(t, rec.EndDate)
	assert.True(t, rec.EndDate.Equal(end))
}

func TestEmptyBucketTwice(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC().Add(-40*time.Hour)))
	require.NoError(t, err)
	_, err = f.service.EmptyBucket(context.Background(), "place-1", EmptyBucketRequest{EndDate: time.Now().UTC()})
	require.NoError(t, err)

	_, err = f.service.EmptyBucket(context.Background(), "place-1", EmptyBucketRequest{EndDate: time.Now().UTC()})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoActiveState.Code, appErr.Code)
}

func TestRemoveBucketRequiresEmptiedState(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC().Add(-40*time.Hour)))
	require.NoError(t, err)

	err = f.service.RemoveBucket(context.Background(), "place-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrBucketNotEmptied.Code, appErr.Code)

	_, err = f.service.EmptyBucket(context.Background(), "place-1", EmptyBucketRequest{EndDate: time.Now().UTC()})
	require.NoError(t, err)

	require.NoError(t, f.service.RemoveBucket(context.Background(), "place-1"))
	_, ok := f.states.open["place-1"]
	assert.False(t, ok, "removal deletes the open record")
}

func TestRemoveBucketWithoutState(t *testing.T) {
	f := newFieldFixture()

	err := f.service.RemoveBucket(context.Background(), "place-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoActiveState.Code, appErr.Code)
}

func TestInvalidateStateClearsPlace(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC()))
	require.NoError(t, err)

	err = f.service.InvalidateState(context.Background(), "place-1", InvalidateStateRequest{Reason: "wrong bucket scanned"})
	require.NoError(t, err)

	_, ok := f.states.open["place-1"]
	assert.False(t, ok)

	last := f.states.histories[len(f.states.histories)-1]
	assert.Equal(t, models.ActionInvalidateState, last.Action)
	require.NotNil(t, last.Reason)
	assert.Equal(t, "wrong bucket scanned", *last.Reason)
}

func TestInvalidateStateWithoutRecord(t *testing.T) {
	f := newFieldFixture()

	err := f.service.InvalidateState(context.Background(), "place-1", InvalidateStateRequest{Reason: "typo"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoActiveState.Code, appErr.Code)
}

func TestDisablePlaceBlockedWhileOccupied(t *testing.T) {
	f := newFieldFixture()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(time.Now().UTC()))
	require.NoError(t, err)

	err = f.service.DisablePlace(context.Background(), "place-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPlaceNotAvailable.Code, appErr.Code)

	require.NoError(t, f.service.DisablePlace(context.Background(), "place-2"))
	assert.False(t, f.states.toggled["place-2"])

	require.NoError(t, f.service.EnablePlace(context.Background(), "place-3"))
	assert.True(t, f.states.toggled["place-3"])
}

func TestEligibilityReason(t *testing.T) {
	f := newFieldFixture()
	now := time.Now().UTC()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(now.Add(-6*time.Hour)))
	require.NoError(t, err)

	res, err := f.service.Eligibility(context.Background(), "place-1", now)
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Contains(t, res.Reason, "Converter slag")

	res, err = f.service.Eligibility(context.Background(), "place-1", now.Add(40*time.Hour))
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Empty(t, res.Reason)
}

func TestVisualStageClassification(t *testing.T) {
	f := newFieldFixture()
	now := time.Now().UTC()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(now.Add(-14*time.Hour)))
	require.NoError(t, err)

	res, err := f.service.VisualStage(context.Background(), "place-1", now)
	require.NoError(t, err)
	require.NotNil(t, res.Stage)
	assert.Equal(t, models.VisualYellow, *res.Stage)
	assert.False(t, res.ExceedsMax)

	res, err = f.service.VisualStage(context.Background(), "place-1", now.Add(40*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, res.Stage)
	assert.True(t, res.ExceedsMax)
}

func TestFieldStateView(t *testing.T) {
	f := newFieldFixture()
	now := time.Now().UTC()

	_, err := f.service.PlaceBucket(context.Background(), "place-1", placeReq(now.Add(-14*time.Hour)))
	require.NoError(t, err)

	views, err := f.service.FieldState(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, 1, f.cache.sets)

	var occupied *models.FieldPlaceView
	for i := range views {
		if views[i].Place.ID == "place-1" {
			occupied = &views[i]
		} else {
			assert.Nil(t, views[i].Occupancy)
		}
	}
	require.NotNil(t, occupied)
	require.NotNil(t, occupied.Occupancy)
	assert.Equal(t, "K-101", occupied.BucketName)
	assert.Equal(t, "Converter slag", occupied.MaterialName)
	require.NotNil(t, occupied.VisualCode)
	assert.Equal(t, models.VisualYellow, *occupied.VisualCode)
	assert.False(t, occupied.Eligible)
}
