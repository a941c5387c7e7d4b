package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ermuhamett/slagfield-api/internal/models"
	appErrors "github.com/ermuhamett/slagfield-api/pkg/errors"
	"github.com/ermuhamett/slagfield-api/pkg/export"
)

type historyRepository interface {
	List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, int, error)
	Append(ctx context.Context, rec *models.HistoryRecord) error
}

type csvRenderer interface {
	Render(table export.Table) ([]byte, error)
}

type pdfRenderer interface {
	Render(table export.Table, title string) ([]byte, error)
}

// ExportFile is a rendered history export ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// HistoryService serves the audit log and renders exports of it.
type HistoryService struct {
	repo   historyRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(repo historyRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *HistoryService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{repo: repo, csv: csv, pdf: pdf, logger: logger}
}

// List returns paginated history records, newest first.
func (s *HistoryService) List(ctx context.Context, filter models.HistoryFilter) ([]models.HistoryRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
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
	return records, pagination, nil
}

// Export renders the filtered history as a downloadable CSV or PDF file.
func (s *HistoryService) Export(ctx context.Context, filter models.HistoryFilter, format string) (*ExportFile, error) {
	// Exports ignore pagination and dump the full filtered range.
	filter.Page = 1
	filter.PageSize = 10000

	records, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}

	table := historyTable(records)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case "csv", "":
		data, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("slagfield-history-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case "pdf":
		data, err := s.pdf.Render(table, "Slag field history")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("slagfield-history-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}

func historyTable(records []models.HistoryRecord) export.Table {
	table := export.Table{
		Headers: []string{"Timestamp", "Action", "Place", "Bucket", "Material", "Weight (kg)", "Placed at", "Emptied at", "Reason"},
	}
	for _, rec := range records {
		table.Rows = append(table.Rows, []string{
			rec.Timestamp.UTC().Format(time.RFC3339),
			string(rec.Action),
			placeLabel(rec),
			strValue(rec.BucketName),
			strValue(rec.MaterialName),
			weightKg(rec.WeightGrams),
			timeValue(rec.PlacementTime),
			timeValue(rec.EmptyTime),
			strValue(rec.Reason),
		})
	}
	return table
}

func placeLabel(rec models.HistoryRecord) string {
	if rec.PlaceRow == nil || rec.PlaceNumber == nil {
		return ""
	}
	return strconv.Itoa(*rec.PlaceRow*100 + *rec.PlaceNumber)
}

func strValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func timeValue(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func weightKg(grams *int64) string {
	if grams == nil {
		return ""
	}
	return strconv.FormatFloat(float64(*grams)/1000, 'f', -1, 64)
}
