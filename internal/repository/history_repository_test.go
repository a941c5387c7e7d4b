package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ermuhamett/slagfield-api/internal/models"
)

func TestHistoryRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO history_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := testHistory(models.ActionCreatePlace)
	require.NoError(t, repo.Append(context.Background(), rec))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.Timestamp.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "action", "timestamp", "place_id", "place_row", "place_number", "bucket_id", "bucket_name", "material_id", "material_name", "weight_grams", "operation_time", "placement_time", "empty_time", "reason"}).
		AddRow("hist-1", string(models.ActionPlaceBucket), time.Now(), "place-1", 1, 4, "bucket-1", "K-101", "mat-1", "Converter slag", int64(12_500_000), time.Now(), time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM history_records WHERE 1=1 AND action = $1 AND place_id = $2 AND timestamp >= $3 ORDER BY timestamp DESC")).
		WithArgs(string(models.ActionPlaceBucket), "place-1", from).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM history_records WHERE 1=1 AND action = $1 AND place_id = $2 AND timestamp >= $3")).
		WithArgs(string(models.ActionPlaceBucket), "place-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.HistoryFilter{
		Action:   models.ActionPlaceBucket,
		PlaceID:  "place-1",
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, total)
	require.Equal(t, models.ActionPlaceBucket, records[0].Action)
	require.NotNil(t, records[0].BucketName)
	require.Equal(t, "K-101", *records[0].BucketName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryCountByPlace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM history_records WHERE place_id = $1")).
		WithArgs("place-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByPlace(context.Background(), "place-1")
	require.NoError(t, err)
	require.Equal(t, 5, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
