package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/repository"
	appErrors "github.com/campushq/sis-api/pkg/errors"
	"github.com/campushq/sis-api/pkg/jobs"
	"github.com/campushq/sis-api/pkg/mailer"
)

// JobTypeWelcomeEmail identifies the acceptance email job on the mail queue.
const JobTypeWelcomeEmail = "registration.welcome_email"

type registrationRepository interface {
	List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.RegistrationDetail, error)
	Create(ctx context.Context, reg *models.Registration) error
	Reject(ctx context.Context, id string, adminNote *string) error
	Accept(ctx context.Context, id string, adminNote *string, student *models.Student) error
}

type registrationNotifier interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type mailEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// CreateRegistrationRequest holds the public admission application payload.
type CreateRegistrationRequest struct {
	ApplicantName    string    `json:"applicant_name" validate:"required,min=2"`
	BirthDate        time.Time `json:"birth_date" validate:"required"`
	Email            *string   `json:"email" validate:"omitempty,email"`
	Phone            string    `json:"phone" validate:"required"`
	Address          string    `json:"address"`
	GuardianName     string    `json:"guardian_name" validate:"required"`
	GuardianPhone    string    `json:"guardian_phone" validate:"required"`
	DesiredGrade     string    `json:"desired_grade" validate:"required"`
	DesiredSectionID *string   `json:"desired_section_id"`
	Subjects         []string  `json:"subjects"`
	DocumentURLs     []string  `json:"document_urls" validate:"omitempty,dive,url"`
}

// ReviewRegistrationRequest carries the reviewer's note for accept/reject.
type ReviewRegistrationRequest struct {
	AdminNote *string `json:"admin_note"`
}

// RegistrationService handles admission application use-cases.
type RegistrationService struct {
	repo      registrationRepository
	notifier  registrationNotifier
	mailQueue mailEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegistrationService constructs the registration service. The notifier
// and mail queue are optional; when nil the corresponding side effects are
// skipped.
func NewRegistrationService(repo registrationRepository, notifier registrationNotifier, mailQueue mailEnqueuer, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, notifier: notifier, mailQueue: mailQueue, validator: validate, logger: logger}
}

// List returns registrations and pagination metadata.
func (s *RegistrationService) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, *models.Pagination, error) {
	registrations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single registration.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return reg, nil
}

// Create files a new pending application. This endpoint is public.
func (s *RegistrationService) Create(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	reg := &models.Registration{
		ApplicantName:    req.ApplicantName,
		BirthDate:        req.BirthDate,
		Email:            req.Email,
		Phone:            req.Phone,
		Address:          req.Address,
		GuardianName:     req.GuardianName,
		GuardianPhone:    req.GuardianPhone,
		DesiredGrade:     req.DesiredGrade,
		DesiredSectionID: req.DesiredSectionID,
		Subjects:         req.Subjects,
		DocumentURLs:     req.DocumentURLs,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}
	return reg, nil
}

// Accept transitions a pending application to ACCEPTED and creates the
// student record atomically. A second accept, or an accept after reject,
// yields a conflict and no duplicate student. On success a welcome email is
// queued and the reviewer gets an in-app notification; both are best effort.
func (s *RegistrationService) Accept(ctx context.Context, id, actorID string, req ReviewRegistrationRequest) (*models.RegistrationDetail, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		FullName:       reg.ApplicantName,
		Email:          reg.Email,
		Phone:          reg.Phone,
		Address:        reg.Address,
		BirthDate:      reg.BirthDate,
		GradeLevel:     reg.DesiredGrade,
		Status:         models.StudentStatusActive,
		EnrollmentDate: time.Now().UTC(),
		GuardianName:   reg.GuardianName,
		GuardianPhone:  reg.GuardianPhone,
	}

	if err := s.repo.Accept(ctx, id, req.AdminNote, student); err != nil {
		if errors.Is(err, repository.ErrNoPendingTransition) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("registration already %s", reg.Status))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept registration")
	}

	s.queueWelcomeEmail(reg, student)
	s.notifyReviewer(ctx, actorID, reg)

	return s.Get(ctx, id)
}

// Reject transitions a pending application to REJECTED.
func (s *RegistrationService) Reject(ctx context.Context, id string, req ReviewRegistrationRequest) (*models.RegistrationDetail, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Reject(ctx, id, req.AdminNote); err != nil {
		if errors.Is(err, repository.ErrNoPendingTransition) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("registration already %s", reg.Status))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject registration")
	}
	return s.Get(ctx, id)
}

func (s *RegistrationService) queueWelcomeEmail(reg *models.RegistrationDetail, student *models.Student) {
	if s.mailQueue == nil || reg.Email == nil || *reg.Email == "" {
		return
	}
	msg := mailer.Message{
		ToName:  reg.ApplicantName,
		ToEmail: *reg.Email,
		Subject: "Your registration has been accepted",
		TextBody: fmt.Sprintf("Hello %s, your registration for grade %s has been accepted. Your student ID is %s. Welcome aboard!",
			reg.ApplicantName, reg.DesiredGrade, student.ID),
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeWelcomeEmail, Payload: msg}
	if err := s.mailQueue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue welcome email", zap.String("registration_id", reg.ID), zap.Error(err))
	}
}

func (s *RegistrationService) notifyReviewer(ctx context.Context, actorID string, reg *models.RegistrationDetail) {
	if s.notifier == nil || actorID == "" {
		return
	}
	notification := &models.Notification{
		RecipientID: actorID,
		Title:       "Registration accepted",
		Message:     fmt.Sprintf("%s was accepted into grade %s", reg.ApplicantName, reg.DesiredGrade),
		Type:        models.NotificationRegistration,
		RelatedID:   &reg.ID,
	}
	if err := s.notifier.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to create registration notification", zap.String("registration_id", reg.ID), zap.Error(err))
	}
}

// NewMailJobHandler returns the queue handler delivering queued emails.
func NewMailJobHandler(m mailer.Mailer, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mailer.Message)
		if !ok {
			logger.Error("mail job carried unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		return m.Send(ctx, msg)
	}
}
