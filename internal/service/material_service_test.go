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

type mockMaterialRepo struct {
	items      map[string]*models.Material
	stages     map[string][]models.CoolingStage
	referenced map[string]bool
	deleted    []string
}

func newMockMaterialRepo() *mockMaterialRepo {
	return &mockMaterialRepo{
		items:      map[string]*models.Material{},
		stages:     map[string][]models.CoolingStage{},
		referenced: map[string]bool{},
	}
}

func (m *mockMaterialRepo) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	var out []models.Material
	for _, mat := range m.items {
		if mat.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		out = append(out, *mat)
	}
	return out, len(out), nil
}

func (m *mockMaterialRepo) FindByID(ctx context.Context, id string) (*models.Material, error) {
	if mat, ok := m.items[id]; ok {
		cp := *mat
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = "generated"
	}
	cp := *material
	m.items[material.ID] = &cp
	return nil
}

func (m *mockMaterialRepo) Update(ctx context.Context, material *models.Material) error {
	cp := *material
	m.items[material.ID] = &cp
	return nil
}

func (m *mockMaterialRepo) SoftDelete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	if mat, ok := m.items[id]; ok {
		mat.IsDeleted = true
	}
	return nil
}

func (m *mockMaterialRepo) IsReferencedByOpenState(ctx context.Context, id string) (bool, error) {
	return m.referenced[id], nil
}

func (m *mockMaterialRepo) ListStages(ctx context.Context, materialID string) ([]models.CoolingStage, error) {
	return m.stages[materialID], nil
}

func (m *mockMaterialRepo) CountStages(ctx context.Context, materialID string) (int, error) {
	return len(m.stages[materialID]), nil
}

func (m *mockMaterialRepo) ReplaceStages(ctx context.Context, materialID string, stages []models.CoolingStage, hist *models.HistoryRecord) error {
	m.stages[materialID] = stages
	return nil
}

func validStagesInput() []CoolingStageInput {
	return []CoolingStageInput{
		{TotalDurationMinutes: 2880, VisualCode: models.VisualRed, MinHours: 0, MaxHours: 12},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualYellow, MinHours: 12, MaxHours: 24},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualBlue, MinHours: 24, MaxHours: 36},
		{TotalDurationMinutes: 2880, VisualCode: models.VisualGreen, MinHours: 36, MaxHours: 48},
	}
}

type materialFixture struct {
	repo    *mockMaterialRepo
	history *mockHistory
	cache   *fakeCache
	service *MaterialService
}

func newMaterialFixture() *materialFixture {
	repo := newMockMaterialRepo()
	repo.items["mat-1"] = &models.Material{ID: "mat-1", Name: "Converter slag"}
	hist := &mockHistory{}
	cache := &fakeCache{}
	svc := NewMaterialService(repo, hist, cache, nil, zap.NewNop())
	return &materialFixture{repo: repo, history: hist, cache: cache, service: svc}
}

func TestReplaceCoolingProfileSuccess(t *testing.T) {
	f := newMaterialFixture()

	stages, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: validStagesInput()})
	require.NoError(t, err)
	require.Len(t, stages, 4)
	assert.Equal(t, models.VisualRed, stages[0].VisualCode)
	assert.Len(t, f.repo.stages["mat-1"], 4)
	assert.Equal(t, 1, f.cache.invalidated, "field state view must be recomputed with the new profile")
}

func TestReplaceCoolingProfileSortsInput(t *testing.T) {
	f := newMaterialFixture()

	input := validStagesInput()
	input[0], input[3] = input[3], input[0]

	stages, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: input})
	require.NoError(t, err)
	assert.Equal(t, models.VisualRed, stages[0].VisualCode)
	assert.Equal(t, models.VisualGreen, stages[3].VisualCode)
}

func TestReplaceCoolingProfileRejectsGap(t *testing.T) {
	f := newMaterialFixture()

	input := validStagesInput()
	input[2].MinHours = 25 // gap between 24 and 25

	_, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: input})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReplaceCoolingProfileRejectsNonZeroStart(t *testing.T) {
	f := newMaterialFixture()

	input := validStagesInput()
	input[0].MinHours = 1

	_, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: input})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReplaceCoolingProfileRejectsMixedDurations(t *testing.T) {
	f := newMaterialFixture()

	input := validStagesInput()
	input[1].TotalDurationMinutes = 1440

	_, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: input})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReplaceCoolingProfileRejectsShortTimeline(t *testing.T) {
	f := newMaterialFixture()

	input := validStagesInput()[:3] // ends at 36h, total says 48h

	_, err := f.service.ReplaceCoolingProfile(context.Background(), "mat-1", ReplaceCoolingProfileRequest{Stages: input})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCreateMaterialAppendsHistory(t *testing.T) {
	f := newMaterialFixture()

	material, err := f.service.Create(context.Background(), CreateMaterialRequest{Name: "Ladle slag"})
	require.NoError(t, err)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, models.ActionCreateMaterial, f.history.records[0].Action)
	require.NotNil(t, f.history.records[0].MaterialName)
	assert.Equal(t, material.Name, *f.history.records[0].MaterialName)
}

func TestUpdateMaterialAppendsHistory(t *testing.T) {
	f := newMaterialFixture()

	_, err := f.service.Update(context.Background(), "mat-1", UpdateMaterialRequest{Name: "Converter slag B"})
	require.NoError(t, err)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, models.ActionUpdateMaterial, f.history.records[0].Action)
	assert.Equal(t, 1, f.cache.invalidated, "renamed material shows on the field state view")
}

func TestDeleteMaterialBlockedWhileReferenced(t *testing.T) {
	f := newMaterialFixture()
	f.repo.referenced["mat-1"] = true

	err := f.service.Delete(context.Background(), "mat-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	f.repo.referenced["mat-1"] = false
	require.NoError(t, f.service.Delete(context.Background(), "mat-1"))
	assert.Contains(t, f.repo.deleted, "mat-1")

	require.Len(t, f.history.records, 1)
	assert.Equal(t, models.ActionDeleteMaterial, f.history.records[0].Action)
}

func TestDeleteMaterialBlockedWhileProfileConfigured(t *testing.T) {
	f := newMaterialFixture()
	f.repo.stages["mat-1"] = slagProfile()

	err := f.service.Delete(context.Background(), "mat-1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Empty(t, f.repo.deleted, "material with a configured profile must stay")

	f.repo.stages["mat-1"] = nil
	require.NoError(t, f.service.Delete(context.Background(), "mat-1"))
	assert.Contains(t, f.repo.deleted, "mat-1")
}
