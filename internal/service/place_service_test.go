package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type mockPlaceRepo struct {
	items    map[string]*models.Place
	occupied map[string]bool
	deleted  []string
}

func newMockPlaceRepo() *mockPlaceRepo {
	return &mockPlaceRepo{items: map[string]*models.Place{}, occupied: map[string]bool{}}
}

func (m *mockPlaceRepo) List(ctx context.Context, filter models.PlaceFilter) ([]models.Place, int, error) {
	var out []models.Place
	for _, p := range m.items {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockPlaceRepo) FindByID(ctx context.Context, id string) (*models.Place, error) {
	if p, ok := m.items[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlaceRepo) ExistsByRowNumber(ctx context.Context, row, number int, excludeID string) (bool, error) {
	for id, p := range m.items {
		if p.Row == row && p.Number == number && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPlaceRepo) Create(ctx context.Context, place *models.Place) error {
	if place.ID == "" {
		place.ID = "generated"
	}
	cp := *place
	m.items[place.ID] = &cp
	return nil
}

func (m *mockPlaceRepo) Update(ctx context.Context, place *models.Place) error {
	cp := *place
	m.items[place.ID] = &cp
	return nil
}

func (m *mockPlaceRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockPlaceRepo) HasOpenState(ctx context.Context, id string) (bool, error) {
	return m.occupied[id], nil
}

type mockHistory struct {
	records   []*models.HistoryRecord
	placeRefs map[string]int
}

func (m *mockHistory) Append(ctx context.Context, rec *models.HistoryRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockHistory) CountByPlace(ctx context.Context, placeID string) (int, error) {
	return m.placeRefs[placeID], nil
}

func placeFixture() (*PlaceService, *mockPlaceRepo, *mockHistory) {
	repo := newMockPlaceRepo()
	hist := &mockHistory{}
	svc := NewPlaceService(repo, hist, &fakeCache{}, 20, nil, zap.NewNop())
	return svc, repo, hist
}

func TestCreatePlace(t *testing.T) {
	svc, _, hist := placeFixture()

	place, err := svc.Create(context.Background(), CreatePlaceRequest{Row: 1, Number: 4})
	require.NoError(t, err)
	assert.True(t, place.IsEnabled, "new places start in service")
	assert.Equal(t, 104, place.Code())

	require.Len(t, hist.records, 1)
	assert.Equal(t, models.ActionCreatePlace, hist.records[0].Action)
	assert.Nil(t, hist.records[0].PlaceID, "catalog bookkeeping must not pin the place")
	require.NotNil(t, hist.records[0].PlaceRow)
	assert.Equal(t, 1, *hist.records[0].PlaceRow)
}

func TestCreatePlaceDuplicateCoordinates(t *testing.T) {
	svc, _, _ := placeFixture()

	_, err := svc.Create(context.Background(), CreatePlaceRequest{Row: 1, Number: 4})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreatePlaceRequest{Row: 1, Number: 4})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCreatePlaceBeyondRowCapacity(t *testing.T) {
	svc, _, _ := placeFixture()

	_, err := svc.Create(context.Background(), CreatePlaceRequest{Row: 1, Number: 21})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestDeletePlaceBlockedWhileOccupied(t *testing.T) {
	svc, repo, _ := placeFixture()

	place, err := svc.Create(context.Background(), CreatePlaceRequest{Row: 2, Number: 7})
	require.NoError(t, err)
	repo.occupied[place.ID] = true

	err = svc.Delete(context.Background(), place.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrPlaceNotAvailable.Code, appErr.Code)

	repo.occupied[place.ID] = false
	require.NoError(t, svc.Delete(context.Background(), place.ID))
	assert.Contains(t, repo.deleted, place.ID)
}

func TestDeletePlaceBlockedWhileReferencedByHistory(t *testing.T) {
	svc, repo, hist := placeFixture()

	place, err := svc.Create(context.Background(), CreatePlaceRequest{Row: 3, Number: 2})
	require.NoError(t, err)
	hist.placeRefs = map[string]int{place.ID: 3}

	err = svc.Delete(context.Background(), place.ID)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, repo.deleted, "place with lifecycle history must keep its row")

	hist.placeRefs[place.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), place.ID))
	assert.Contains(t, repo.deleted, place.ID)
}
