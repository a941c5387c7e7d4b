package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/service"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
	"github.com/ermuhamett/slagfield-api/pkg/response"
)

// PlaceHandler handles yard place catalog endpoints.
type PlaceHandler struct {
	service *service.PlaceService
}

// NewPlaceHandler constructs a place handler.
func NewPlaceHandler(svc *service.PlaceService) *PlaceHandler {
	return &PlaceHandler{service: svc}
}

// List godoc
// @Summary List yard places
// @Tags Places
// @Produce json
// @Param row query int false "Filter by row"
// @Param enabled query bool false "Filter by availability"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /places [get]
func (h *PlaceHandler) List(c *gin.Context) {
	var filter models.PlaceFilter
	if row, err := strconv.Atoi(c.Query("row")); err == nil {
		filter.Row = row
	}
	if raw := c.Query("enabled"); raw != "" {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			filter.IsEnabled = &enabled
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}

	places, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, places, pagination)
}

// Get godoc
// @Summary Get place by id
// @Tags Places
// @Produce json
// @Param id path string true "Place ID"
// @Success 200 {object} response.Envelope
// @Router /places/{id} [get]
func (h *PlaceHandler) Get(c *gin.Context) {
	place, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, place, nil)
}

// Create godoc
// @Summary Create place
// @Tags Places
// @Accept json
// @Produce json
// @Param payload body service.CreatePlaceRequest true "Place payload"
// @Success 201 {object} response.Envelope
// @Router /places [post]
func (h *PlaceHandler) Create(c *gin.Context) {
	var req service.CreatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	place, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, place)
}

// Update godoc
// @Summary Update place coordinates
// @Tags Places
// @Accept json
// @Produce json
// @Param id path string true "Place ID"
// @Param payload body service.UpdatePlaceRequest true "Place payload"
// @Success 200 {object} response.Envelope
// @Router /places/{id} [put]
func (h *PlaceHandler) Update(c *gin.Context) {
	var req service.UpdatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	place, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, place, nil)
}

// Delete godoc
// @Summary Delete place
// @Tags Places
// @Param id path string true "Place ID"
// @Success 204
// @Router /places/{id} [delete]
func (h *PlaceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
