package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
}

// CreateStudentRequest holds payload for creating students directly,
// bypassing the registration pipeline.
type CreateStudentRequest struct {
	FullName      string    `json:"full_name" validate:"required,min=2"`
	Email         *string   `json:"email" validate:"omitempty,email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	BirthDate     time.Time `json:"birth_date" validate:"required"`
	GradeLevel    string    `json:"grade_level" validate:"required"`
	GuardianName  string    `json:"guardian_name"`
	GuardianPhone string    `json:"guardian_phone"`
	GuardianEmail *string   `json:"guardian_email" validate:"omitempty,email"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName      string               `json:"full_name" validate:"required,min=2"`
	Email         *string              `json:"email" validate:"omitempty,email"`
	Phone         string               `json:"phone"`
	Address       string               `json:"address"`
	BirthDate     time.Time            `json:"birth_date" validate:"required"`
	GradeLevel    string               `json:"grade_level" validate:"required"`
	Status        models.StudentStatus `json:"status" validate:"required"`
	GuardianName  string               `json:"guardian_name"`
	GuardianPhone string               `json:"guardian_phone"`
	GuardianEmail *string              `json:"guardian_email" validate:"omitempty,email"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if req.Email != nil && *req.Email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}
	student := &models.Student{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		BirthDate:      req.BirthDate,
		GradeLevel:     req.GradeLevel,
		Status:         models.StudentStatusActive,
		EnrollmentDate: time.Now().UTC(),
		GuardianName:   req.GuardianName,
		GuardianPhone:  req.GuardianPhone,
		GuardianEmail:  req.GuardianEmail,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student status")
	}
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
		}
	}
	student := detail.Student
	student.FullName = req.FullName
	student.Email = req.Email
	student.Phone = req.Phone
	student.Address = req.Address
	student.BirthDate = req.BirthDate
	student.GradeLevel = req.GradeLevel
	student.Status = req.Status
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.GuardianEmail = req.GuardianEmail
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return &student, nil
}

// UpdateStatus transitions the student lifecycle state.
func (s *StudentService) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown student status")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	return nil
}
