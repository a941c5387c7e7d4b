package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ermuhamett/slagfield-api/internal/service"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
	"github.com/ermuhamett/slagfield-api/pkg/response"
)

// SlagFieldHandler handles place lifecycle endpoints.
type SlagFieldHandler struct {
	service *service.SlagFieldService
}

// NewSlagFieldHandler constructs a slag field handler.
func NewSlagFieldHandler(svc *service.SlagFieldService) *SlagFieldHandler {
	return &SlagFieldHandler{service: svc}
}

// State godoc
// @Summary Full field state for the dashboard
// @Tags SlagField
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /slagfield/state [get]
func (h *SlagFieldHandler) State(c *gin.Context) {
	views, err := h.service.FieldState(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// PlaceBucket godoc
// @Summary Place a bucket on a place
// @Tags SlagField
// @Accept json
// @Produce json
// @Param id path string true "Place ID"
// @Param payload body service.PlaceBucketRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slagfield/places/{id}/place-bucket [post]
func (h *SlagFieldHandler) PlaceBucket(c *gin.Context) {
	var req service.PlaceBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.service.PlaceBucket(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// EmptyBucket godoc
// @Summary Empty the bucket on a place
// @Tags SlagField
// @Accept json
// @Produce json
// @Param id path string true "Place ID"
// @Param payload body service.EmptyBucketRequest true "Emptying payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slagfield/places/{id}/empty-bucket [post]
func (h *SlagFieldHandler) EmptyBucket(c *gin.Context) {
	var req service.EmptyBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.service.EmptyBucket(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// RemoveBucket godoc
// @Summary Remove the emptied bucket from a place
// @Tags SlagField
// @Param id path string true "Place ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /slagfield/places/{id}/remove-bucket [post]
func (h *SlagFieldHandler) RemoveBucket(c *gin.Context) {
	if err := h.service.RemoveBucket(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// InvalidateState godoc
// @Summary Invalidate the state of a place after an operator mistake
// @Tags SlagField
// @Accept json
// @Param id path string true "Place ID"
// @Param payload body service.InvalidateStateRequest true "Invalidate payload"
// @Success 204
// @Router /slagfield/places/{id}/invalid [post]
func (h *SlagFieldHandler) InvalidateState(c *gin.Context) {
	var req service.InvalidateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.InvalidateState(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EnablePlace godoc
// @Summary Put a place back in service
// @Tags SlagField
// @Param id path string true "Place ID"
// @Success 204
// @Router /slagfield/places/{id}/went-in-use [post]
func (h *SlagFieldHandler) EnablePlace(c *gin.Context) {
	if err := h.service.EnablePlace(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DisablePlace godoc
// @Summary Take a place out of service
// @Tags SlagField
// @Param id path string true "Place ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /slagfield/places/{id}/out-of-use [post]
func (h *SlagFieldHandler) DisablePlace(c *gin.Context) {
	if err := h.service.DisablePlace(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Eligibility godoc
// @Summary Check whether the bucket on a place may be emptied
// @Tags SlagField
// @Produce json
// @Param id path string true "Place ID"
// @Param at query string false "Evaluation instant (RFC3339), defaults to now"
// @Success 200 {object} response.Envelope
// @Router /slagfield/places/{id}/eligibility [get]
func (h *SlagFieldHandler) Eligibility(c *gin.Context) {
	now, err := evaluationInstant(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.Eligibility(c.Request.Context(), c.Param("id"), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// VisualStage godoc
// @Summary Current cooling classification of a place
// @Tags SlagField
// @Produce json
// @Param id path string true "Place ID"
// @Param at query string false "Evaluation instant (RFC3339), defaults to now"
// @Success 200 {object} response.Envelope
// @Router /slagfield/places/{id}/visual-stage [get]
func (h *SlagFieldHandler) VisualStage(c *gin.Context) {
	now, err := evaluationInstant(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.VisualStage(c.Request.Context(), c.Param("id"), now)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

func evaluationInstant(c *gin.Context) (time.Time, error) {
	raw := c.Query("at")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "at must be an RFC3339 timestamp")
	}
	return at.UTC(), nil
}
