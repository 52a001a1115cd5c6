package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.SectionDetail, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	CountEnrollments(ctx context.Context, sectionID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type sectionClassReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// SectionRequest holds payload for creating and updating sections.
type SectionRequest struct {
	ClassID   string               `json:"class_id" validate:"required"`
	Name      string               `json:"name" validate:"required,min=1,max=50"`
	Capacity  int                  `json:"capacity" validate:"required,min=1,max=100"`
	Room      string               `json:"room"`
	TeacherID *string              `json:"teacher_id"`
	Status    models.SectionStatus `json:"status"`
}

// SectionService handles section use-cases.
type SectionService struct {
	repo      sectionRepository
	classes   sectionClassReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs the section service.
func NewSectionService(repo sectionRepository, classes sectionClassReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns sections and pagination metadata.
func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, *models.Pagination, error) {
	sections, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a section by ID.
func (s *SectionService) Get(ctx context.Context, id string) (*models.SectionDetail, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create adds a section under an existing class.
func (s *SectionService) Create(ctx context.Context, req SectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section status")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class")
	}
	section := &models.Section{
		ClassID:   req.ClassID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		Room:      req.Room,
		TeacherID: req.TeacherID,
		Status:    req.Status,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return s.Get(ctx, section.ID)
}

// Update modifies a section.
func (s *SectionService) Update(ctx context.Context, id string, req SectionRequest) (*models.SectionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section status")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	section := detail.Section
	section.Name = req.Name
	section.Capacity = req.Capacity
	section.Room = req.Room
	section.TeacherID = req.TeacherID
	if req.Status != "" {
		section.Status = req.Status
	}
	if err := s.repo.Update(ctx, &section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return s.Get(ctx, id)
}

// Delete removes a section that has no active enrollments.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	enrollments, err := s.repo.CountEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section enrollments")
	}
	if enrollments > 0 {
		return appErrors.Clone(appErrors.ErrHasDependents, "section has enrolled students")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}
