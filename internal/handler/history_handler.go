package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ermuhamett/slagfield-api/internal/models"
	"github.com/ermuhamett/slagfield-api/internal/service"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
	"github.com/ermuhamett/slagfield-api/pkg/response"
)

// HistoryHandler handles audit log endpoints.
type HistoryHandler struct {
	service *service.HistoryService
}

// NewHistoryHandler constructs a history handler.
func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{service: svc}
}

// List godoc
// @Summary List history records
// @Tags History
// @Produce json
// @Param action query string false "Filter by action"
// @Param place_id query string false "Filter by place"
// @Param from query string false "Start of range (RFC3339)"
// @Param to query string false "End of range (RFC3339)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	filter, err := historyFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Export godoc
// @Summary Export history as CSV or PDF
// @Tags History
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format: csv or pdf" default(csv)
// @Param action query string false "Filter by action"
// @Param place_id query string false "Filter by place"
// @Param from query string false "Start of range (RFC3339)"
// @Param to query string false "End of range (RFC3339)"
// @Success 200 {file} file
// @Router /history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	filter, err := historyFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), filter, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func historyFilter(c *gin.Context) (models.HistoryFilter, error) {
	var filter models.HistoryFilter
	filter.Action = models.HistoryAction(c.Query("action"))
	filter.PlaceID = c.Query("place_id")

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be an RFC3339 timestamp")
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be an RFC3339 timestamp")
		}
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		filter.PageSize = limit
	}
	return filter, nil
}
