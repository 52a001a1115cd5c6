package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	BulkUpsert(ctx context.Context, records []*models.AttendanceRecord) error
}

// AttendanceEntry is one student's mark in a bulk attendance submission.
type AttendanceEntry struct {
	StudentID string                  `json:"student_id" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Notes     *string                 `json:"notes"`
}

// BulkAttendanceRequest records a class roster's attendance for one date.
type BulkAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required"`
	Date    time.Time         `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService handles attendance use-cases.
type AttendanceService struct {
	repo      attendanceRepository
	classes   enrollmentClassReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, classes enrollmentClassReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns attendance records and pagination metadata.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// RecordBulk stores a roster's attendance for one date. The whole submission
// is rejected when any entry is invalid, and the write itself is atomic, so
// a partial roster is never persisted.
func (s *AttendanceService) RecordBulk(ctx context.Context, req BulkAttendanceRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}

	seen := make(map[string]struct{}, len(req.Entries))
	records := make([]*models.AttendanceRecord, 0, len(req.Entries))
	date := req.Date.UTC().Truncate(24 * time.Hour)
	for i, entry := range req.Entries {
		if !entry.Status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: unknown attendance status", i))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: duplicate student", i))
		}
		seen[entry.StudentID] = struct{}{}
		records = append(records, &models.AttendanceRecord{
			StudentID: entry.StudentID,
			ClassID:   req.ClassID,
			Date:      date,
			Status:    entry.Status,
			Notes:     entry.Notes,
		})
	}

	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return len(records), nil
}
