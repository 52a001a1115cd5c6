package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	"github.com/campushq/sis-api/internal/repository"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollErr error
	position  int
	enrolled  *models.Enrollment
	found     *models.Enrollment
	dropped   []string
}

func (m *mockEnrollmentRepo) List(_ context.Context, _ models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(_ context.Context, _ string) (*models.Enrollment, error) {
	if m.found == nil {
		return nil, sql.ErrNoRows
	}
	return m.found, nil
}

func (m *mockEnrollmentRepo) Enroll(_ context.Context, enrollment *models.Enrollment) (int, error) {
	if m.enrollErr != nil {
		return 0, m.enrollErr
	}
	enrollment.ID = "enr-1"
	if m.position > 0 {
		enrollment.Status = models.EnrollmentStatusWaitlisted
	} else {
		enrollment.Status = models.EnrollmentStatusEnrolled
	}
	m.enrolled = enrollment
	return m.position, nil
}

func (m *mockEnrollmentRepo) Drop(_ context.Context, id string) error {
	m.dropped = append(m.dropped, id)
	return nil
}

type mockStudentReader struct {
	err error
}

func (m *mockStudentReader) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.StudentDetail{Student: models.Student{ID: id}}, nil
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockClassReader{class: testClassDetail()}, nil, nil)

	result, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Zero(t, result.WaitlistPosition)
	assert.Equal(t, models.EnrollmentStatusEnrolled, result.Enrollment.Status)
	assert.Equal(t, "term-1", repo.enrolled.TermID, "term comes from the class")
}

func TestEnrollmentServiceEnrollWaitlisted(t *testing.T) {
	repo := &mockEnrollmentRepo{position: 2}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockClassReader{class: testClassDetail()}, nil, nil)

	result, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.WaitlistPosition)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, result.Enrollment.Status)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollErr: repository.ErrAlreadyEnrolled}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockClassReader{class: testClassDetail()}, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "stu-1", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceEnrollUnknownStudent(t *testing.T) {
	svc := NewEnrollmentService(&mockEnrollmentRepo{}, &mockStudentReader{err: sql.ErrNoRows}, &mockClassReader{class: testClassDetail()}, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "missing", ClassID: "class-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentServiceDrop(t *testing.T) {
	repo := &mockEnrollmentRepo{found: &models.Enrollment{ID: "enr-1"}}
	svc := NewEnrollmentService(repo, &mockStudentReader{}, &mockClassReader{class: testClassDetail()}, nil, nil)

	require.NoError(t, svc.Drop(context.Background(), "enr-1"))
	assert.Equal(t, []string{"enr-1"}, repo.dropped)

	repo.found = nil
	err := svc.Drop(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
