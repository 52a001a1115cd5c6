package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/repository"
	appErrors "github.com/campushq/sis-api/pkg/errors"
	"github.com/campushq/sis-api/pkg/jobs"
	"github.com/campushq/sis-api/pkg/mailer"
)

type mockRegistrationRepo struct {
	detail          *models.RegistrationDetail
	acceptErr       error
	rejectErr       error
	acceptedStudent *models.Student
	created         *models.Registration
}

func (m *mockRegistrationRepo) List(_ context.Context, _ models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockRegistrationRepo) FindByID(_ context.Context, _ string) (*models.RegistrationDetail, error) {
	return m.detail, nil
}

func (m *mockRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	reg.ID = "reg-1"
	m.created = reg
	return nil
}

func (m *mockRegistrationRepo) Reject(_ context.Context, _ string, _ *string) error {
	return m.rejectErr
}

func (m *mockRegistrationRepo) Accept(_ context.Context, _ string, _ *string, student *models.Student) error {
	if m.acceptErr != nil {
		return m.acceptErr
	}
	student.ID = "stu-1"
	m.acceptedStudent = student
	return nil
}

type mockMailQueue struct {
	jobs []jobs.Job
	err  error
}

func (m *mockMailQueue) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func pendingRegistration() *models.RegistrationDetail {
	email := "jane@example.com"
	return &models.RegistrationDetail{
		Registration: models.Registration{
			ID:            "reg-1",
			ApplicantName: "Jane Doe",
			BirthDate:     time.Date(2012, 4, 1, 0, 0, 0, 0, time.UTC),
			Email:         &email,
			Phone:         "555-0101",
			GuardianName:  "John Doe",
			GuardianPhone: "555-0102",
			DesiredGrade:  "7",
			Status:        models.RegistrationStatusPending,
		},
	}
}

func TestRegistrationServiceAccept(t *testing.T) {
	repo := &mockRegistrationRepo{detail: pendingRegistration()}
	notifier := &mockNotifier{}
	queue := &mockMailQueue{}
	svc := NewRegistrationService(repo, notifier, queue, nil, nil)

	_, err := svc.Accept(context.Background(), "reg-1", "admin-1", ReviewRegistrationRequest{})
	require.NoError(t, err)

	require.NotNil(t, repo.acceptedStudent)
	assert.Equal(t, "Jane Doe", repo.acceptedStudent.FullName)
	assert.Equal(t, "7", repo.acceptedStudent.GradeLevel)
	assert.Equal(t, models.StudentStatusActive, repo.acceptedStudent.Status)

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeWelcomeEmail, queue.jobs[0].Type)
	msg, ok := queue.jobs[0].Payload.(mailer.Message)
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", msg.ToEmail)
	assert.Contains(t, msg.TextBody, "stu-1", "welcome email carries the new student id")

	require.Len(t, notifier.created, 1)
	assert.Equal(t, "admin-1", notifier.created[0].RecipientID)
	assert.Equal(t, models.NotificationRegistration, notifier.created[0].Type)
}

func TestRegistrationServiceAcceptAlreadyReviewed(t *testing.T) {
	detail := pendingRegistration()
	detail.Status = models.RegistrationStatusAccepted
	repo := &mockRegistrationRepo{detail: detail, acceptErr: repository.ErrNoPendingTransition}
	queue := &mockMailQueue{}
	svc := NewRegistrationService(repo, nil, queue, nil, nil)

	_, err := svc.Accept(context.Background(), "reg-1", "admin-1", ReviewRegistrationRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "ACCEPTED")
	assert.Empty(t, queue.jobs)
}

func TestRegistrationServiceAcceptSkipsMailWithoutEmail(t *testing.T) {
	detail := pendingRegistration()
	detail.Email = nil
	repo := &mockRegistrationRepo{detail: detail}
	queue := &mockMailQueue{}
	svc := NewRegistrationService(repo, nil, queue, nil, nil)

	_, err := svc.Accept(context.Background(), "reg-1", "admin-1", ReviewRegistrationRequest{})
	require.NoError(t, err)
	assert.Empty(t, queue.jobs)
}

func TestRegistrationServiceRejectAlreadyReviewed(t *testing.T) {
	detail := pendingRegistration()
	detail.Status = models.RegistrationStatusRejected
	repo := &mockRegistrationRepo{detail: detail, rejectErr: repository.ErrNoPendingTransition}
	svc := NewRegistrationService(repo, nil, nil, nil, nil)

	_, err := svc.Reject(context.Background(), "reg-1", ReviewRegistrationRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceCreateValidation(t *testing.T) {
	svc := NewRegistrationService(&mockRegistrationRepo{}, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateRegistrationRequest{ApplicantName: "J"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMailJobHandlerDelivers(t *testing.T) {
	delivered := make([]mailer.Message, 0, 1)
	m := mailerFunc(func(_ context.Context, msg mailer.Message) error {
		delivered = append(delivered, msg)
		return nil
	})
	h := NewMailJobHandler(m, nil)

	err := h(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeWelcomeEmail, Payload: mailer.Message{ToEmail: "jane@example.com"}})
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, "jane@example.com", delivered[0].ToEmail)

	// Unexpected payloads are dropped without retrying.
	err = h(context.Background(), jobs.Job{ID: "job-2", Type: JobTypeWelcomeEmail, Payload: 42})
	require.NoError(t, err)
	assert.Len(t, delivered, 1)
}

type mailerFunc func(context.Context, mailer.Message) error

func (f mailerFunc) Send(ctx context.Context, msg mailer.Message) error { return f(ctx, msg) }
