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

// BucketHandler handles slag bucket catalog endpoints.
type BucketHandler struct {
	service *service.BucketService
}

// NewBucketHandler constructs a bucket handler.
func NewBucketHandler(svc *service.BucketService) *BucketHandler {
	return &BucketHandler{service: svc}
}

// List godoc
// @Summary List buckets
// @Tags Buckets
// @Produce json
// @Param include_deleted query bool false "Include soft-deleted buckets"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /buckets [get]
func (h *BucketHandler) List(c *gin.Context) {
	var filter models.BucketFilter
	if raw := c.Query("include_deleted"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.IncludeDeleted = v
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}

	buckets, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, pagination)
}

// Get godoc
// @Summary Get bucket by id
// @Tags Buckets
// @Produce json
// @Param id path string true "Bucket ID"
// @Success 200 {object} response.Envelope
// @Router /buckets/{id} [get]
func (h *BucketHandler) Get(c *gin.Context) {
	bucket, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bucket, nil)
}

// Create godoc
// @Summary Register bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param payload body service.CreateBucketRequest true "Bucket payload"
// @Success 201 {object} response.Envelope
// @Router /buckets [post]
func (h *BucketHandler) Create(c *gin.Context) {
	var req service.CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	bucket, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bucket)
}

// Update godoc
// @Summary Rename bucket
// @Tags Buckets
// @Accept json
// @Produce json
// @Param id path string true "Bucket ID"
// @Param payload body service.UpdateBucketRequest true "Bucket payload"
// @Success 200 {object} response.Envelope
// @Router /buckets/{id} [put]
func (h *BucketHandler) Update(c *gin.Context) {
	var req service.UpdateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	bucket, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bucket, nil)
}

// Delete godoc
// @Summary Delete bucket
// @Tags Buckets
// @Param id path string true "Bucket ID"
// @Success 204
// @Router /buckets/{id} [delete]
func (h *BucketHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
