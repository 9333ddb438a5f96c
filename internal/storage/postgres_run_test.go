package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/apperrors"
	"gitlab.com/arvadi/analytics/rfm-segmentation-service/internal/model"
)

func TestPostgresRepo_SaveRun(t *testing.T) {
	insertPattern := regexp.QuoteMeta(`INSERT INTO "segmentation_runs"`)
	run := model.SegmentationRun{
		RunID:           "run-abc-123",
		AnalysisDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:          model.RunStatusSucceeded,
		RawCustomers:    100,
		CleanCustomers:  98,
		SegmentsWritten: 98,
		StartedAt:       time.Now().UTC(),
		FinishedAt:      time.Now().UTC(),
	}

	t.Run("Success", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectExec(insertPattern).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SaveRun(context.Background(), run)
		assert.NoError(t, err)
	})

	t.Run("Duplicate Run ID", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectExec(insertPattern).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "segmentation_runs_pkey"})

		err := repo.SaveRun(context.Background(), run)
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	})

	t.Run("Insert Fails", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectExec(insertPattern).WillReturnError(errors.New("disk full"))

		err := repo.SaveRun(context.Background(), run)
		assert.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}

func TestPostgresRepo_FindRunByID(t *testing.T) {
	selectPattern := regexp.QuoteMeta(`SELECT * FROM "segmentation_runs" WHERE run_id = `)

	t.Run("Found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		rows := sqlmock.NewRows([]string{"run_id", "analysis_date", "status", "segments_written"}).
			AddRow("run-abc-123", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), model.RunStatusSucceeded, 98)
		mock.ExpectQuery(selectPattern).WithArgs("run-abc-123", 1).WillReturnRows(rows)

		found, err := repo.FindRunByID(context.Background(), "run-abc-123")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, model.RunStatusSucceeded, found.Status)
		assert.Equal(t, 98, found.SegmentsWritten)
	})

	t.Run("Not Found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		rows := sqlmock.NewRows([]string{"run_id", "analysis_date", "status", "segments_written"})
		mock.ExpectQuery(selectPattern).WithArgs("run-missing", 1).WillReturnRows(rows)

		found, err := repo.FindRunByID(context.Background(), "run-missing")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
