package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	BulkUpsert(ctx context.Context, grades []*models.Grade) error
}

// GradeEntry is one student's result in a bulk grade submission.
type GradeEntry struct {
	StudentID string             `json:"student_id" validate:"required"`
	Score     *float64           `json:"score"`
	Status    models.GradeStatus `json:"status" validate:"required"`
	Comment   *string            `json:"comment"`
}

// BulkGradeRequest records grades for one assignment across a class.
type BulkGradeRequest struct {
	ClassID      string       `json:"class_id" validate:"required"`
	AssignmentID string       `json:"assignment_id" validate:"required"`
	MaxScore     float64      `json:"max_score" validate:"required,gt=0"`
	Entries      []GradeEntry `json:"entries" validate:"required,min=1,dive"`
}

// GradeService handles grading use-cases.
type GradeService struct {
	repo      gradeRepository
	classes   enrollmentClassReader
	notifier  registrationNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service. The notifier is optional.
func NewGradeService(repo gradeRepository, classes enrollmentClassReader, notifier registrationNotifier, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, classes: classes, notifier: notifier, validator: validate, logger: logger}
}

// List returns grades, each with its derived letter, and pagination metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, *models.Pagination, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// RecordBulk stores grades for one assignment. Scores must fall inside
// [0, max_score]; MISSING and EXCUSED entries are stored with a null score
// whatever the caller sent. The write is atomic.
func (s *GradeService) RecordBulk(ctx context.Context, req BulkGradeRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}

	seen := make(map[string]struct{}, len(req.Entries))
	grades := make([]*models.Grade, 0, len(req.Entries))
	for i, entry := range req.Entries {
		if !entry.Status.Valid() {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: unknown grade status", i))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: duplicate student", i))
		}
		seen[entry.StudentID] = struct{}{}

		score := entry.Score
		if entry.Status.ScoreForbidden() {
			score = nil
		} else if score != nil && (*score < 0 || *score > req.MaxScore) {
			return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("entry %d: score outside [0, %g]", i, req.MaxScore))
		}

		grades = append(grades, &models.Grade{
			StudentID:    entry.StudentID,
			ClassID:      req.ClassID,
			AssignmentID: req.AssignmentID,
			Score:        score,
			MaxScore:     req.MaxScore,
			Status:       entry.Status,
			Comment:      entry.Comment,
		})
	}

	if err := s.repo.BulkUpsert(ctx, grades); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grades")
	}

	s.notifyStudents(ctx, class, grades)
	return len(grades), nil
}

func (s *GradeService) notifyStudents(ctx context.Context, class *models.ClassDetail, grades []*models.Grade) {
	if s.notifier == nil {
		return
	}
	for _, grade := range grades {
		notification := &models.Notification{
			RecipientID: grade.StudentID,
			Title:       "New grade posted",
			Message:     fmt.Sprintf("A grade was posted for %s", class.CourseName),
			Type:        models.NotificationGrade,
			RelatedID:   &grade.ID,
		}
		if err := s.notifier.Create(ctx, notification); err != nil {
			s.logger.Warn("failed to create grade notification",
				zap.String("student_id", grade.StudentID), zap.Error(err))
		}
	}
}
