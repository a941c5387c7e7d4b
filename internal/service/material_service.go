package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/repository"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
)

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	SoftDelete(ctx context.Context, id string) error
	IsReferencedByOpenState(ctx context.Context, id string) (bool, error)
	ListStages(ctx context.Context, materialID string) ([]models.CoolingStage, error)
	CountStages(ctx context.Context, materialID string) (int, error)
	ReplaceStages(ctx context.Context, materialID string, stages []models.CoolingStage, hist *models.HistoryRecord) error
}

// CreateMaterialRequest captures fields for registering materials.
type CreateMaterialRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateMaterialRequest renames a material.
type UpdateMaterialRequest struct {
	Name string `json:"name" validate:"required"`
}

// CoolingStageInput is one stage of a replacement cooling profile.
type CoolingStageInput struct {
	TotalDurationMinutes int               `json:"total_duration_minutes" validate:"gte=0"`
	VisualCode           models.VisualCode `json:"visual_code" validate:"required,oneof=Red Yellow Blue Green"`
	MinHours             float64           `json:"min_hours" validate:"gte=0"`
	MaxHours             float64           `json:"max_hours" validate:"gtfield=MinHours"`
}

// ReplaceCoolingProfileRequest swaps the entire stage set of a material.
type ReplaceCoolingProfileRequest struct {
	Stages []CoolingStageInput `json:"stages" validate:"required,min=1,dive"`
}

// MaterialService handles materials and their cooling profiles.
type MaterialService struct {
	repo      materialRepository
	history   historyAppender
	cache     fieldCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService creates a new material service.
func NewMaterialService(repo materialRepository, history historyAppender, cache fieldCache, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, history: history, cache: cache, validator: validate, logger: logger}
}

// List returns paginated materials.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, *models.Pagination, error) {
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
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
	return materials, pagination, nil
}

// Get returns a material by identifier.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	return material, nil
}

// Stages returns the cooling profile ordered by stage start.
func (s *MaterialService) Stages(ctx context.Context, id string) ([]models.CoolingStage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	stages, err := s.repo.ListStages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cooling profile")
	}
	return stages, nil
}

// Create registers a new material.
func (s *MaterialService) Create(ctx context.Context, req CreateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material := &models.Material{Name: strings.TrimSpace(req.Name)}

	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionCreateMaterial, nil, nil, material))
	return material, nil
}

// Update renames an existing material.
func (s *MaterialService) Update(ctx context.Context, id string, req UpdateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material is deleted")
	}

	material.Name = strings.TrimSpace(req.Name)

	if err := s.repo.Update(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionUpdateMaterial, nil, nil, material))
	// The material name shows on cached field state rows.
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return material, nil
}

// Delete soft-deletes a material. The material must be unreferenced by open
// field states and carry no cooling profile; stages have to be cleared first.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	material, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	referenced, err := s.repo.IsReferencedByOpenState(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check material usage")
	}
	if referenced {
		return appErrors.Clone(appErrors.ErrConflict, "material is used by a bucket on the field")
	}

	stages, err := s.repo.CountStages(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check cooling profile")
	}
	if stages > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "material still has a cooling profile configured")
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}

	s.appendHistory(ctx, historySnapshot(models.ActionDeleteMaterial, nil, nil, material))
	return nil
}

// ReplaceCoolingProfile atomically swaps the material's stage set after
// validating it forms a contiguous, gapless timeline with a shared total
// duration.
func (s *MaterialService) ReplaceCoolingProfile(ctx context.Context, id string, req ReplaceCoolingProfileRequest) ([]models.CoolingStage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cooling profile payload")
	}

	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if material.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "material is deleted")
	}

	stages := make([]models.CoolingStage, len(req.Stages))
	for i, in := range req.Stages {
		stages[i] = models.CoolingStage{
			MaterialID:           id,
			TotalDurationMinutes: in.TotalDurationMinutes,
			VisualCode:           in.VisualCode,
			MinHours:             in.MinHours,
			MaxHours:             in.MaxHours,
		}
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i].MinHours < stages[j].MinHours })

	if err := validateProfile(stages); err != nil {
		return nil, err
	}

	hist := historySnapshot(models.ActionReplaceProfile, nil, nil, material)

	if err := s.repo.ReplaceStages(ctx, id, stages, hist); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace cooling profile")
	}

	// Visual stages and eligibility on the cached field state view derive
	// from the profile just replaced.
	s.cache.Invalidate(ctx, repository.FieldStateCacheKey)
	return stages, nil
}

func (s *MaterialService) appendHistory(ctx context.Context, rec *models.HistoryRecord) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(ctx, rec); err != nil {
		s.logger.Warn("failed to append history record", zap.String("action", string(rec.Action)), zap.Error(err))
	}
}

// validateProfile enforces profile invariants on a min-hours sorted stage set:
// start at zero, no gaps or overlaps, one shared total duration covering the
// whole timeline.
func validateProfile(stages []models.CoolingStage) error {
	total := stages[0].TotalDurationMinutes
	for _, st := range stages {
		if st.TotalDurationMinutes != total {
			return appErrors.Clone(appErrors.ErrValidation, "all stages must share the same total duration")
		}
	}

	if stages[0].MinHours != 0 {
		return appErrors.Clone(appErrors.ErrValidation, "first stage must start at 0 hours")
	}
	for i := 1; i < len(stages); i++ {
		prev, cur := stages[i-1], stages[i]
		if cur.MinHours != prev.MaxHours {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("stage starting at %g hours must start where the previous one ends (%g hours)", cur.MinHours, prev.MaxHours))
		}
	}

	totalHours := float64(total) / 60
	last := stages[len(stages)-1]
	if math.Abs(last.MaxHours-totalHours) > 1e-9 {
		return appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("stages end at %g hours but total duration is %g hours", last.MaxHours, totalHours))
	}
	return nil
}
