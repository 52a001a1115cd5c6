package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockAttendanceRepo struct {
	upserted []*models.AttendanceRecord
}

func (m *mockAttendanceRepo) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceDetail, int, error) {
	return nil, 0, nil
}

func (m *mockAttendanceRepo) BulkUpsert(_ context.Context, records []*models.AttendanceRecord) error {
	m.upserted = records
	return nil
}

func TestAttendanceServiceRecordBulk(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, &mockClassReader{class: testClassDetail()}, nil, nil)

	count, err := svc.RecordBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "class-1",
		Date:    time.Date(2026, 9, 14, 13, 45, 0, 0, time.UTC),
		Entries: []AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-2", Status: models.AttendanceAbsent},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.upserted, 2)
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), repo.upserted[0].Date, "date is truncated to midnight UTC")
}

func TestAttendanceServiceRecordBulkRejectsDuplicate(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := NewAttendanceService(repo, &mockClassReader{class: testClassDetail()}, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "class-1",
		Date:    time.Now(),
		Entries: []AttendanceEntry{
			{StudentID: "stu-1", Status: models.AttendancePresent},
			{StudentID: "stu-1", Status: models.AttendanceTardy},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestAttendanceServiceRecordBulkUnknownClass(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockClassReader{err: sql.ErrNoRows}, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "missing",
		Date:    time.Now(),
		Entries: []AttendanceEntry{{StudentID: "stu-1", Status: models.AttendancePresent}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceServiceRecordBulkUnknownStatus(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockClassReader{class: testClassDetail()}, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkAttendanceRequest{
		ClassID: "class-1",
		Date:    time.Now(),
		Entries: []AttendanceEntry{{StudentID: "stu-1", Status: "NAPPING"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
