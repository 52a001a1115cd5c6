package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockGradeRepo struct {
	upserted  []*models.Grade
	upsertErr error
}

func (m *mockGradeRepo) List(_ context.Context, _ models.GradeFilter) ([]models.GradeDetail, int, error) {
	return nil, 0, nil
}

func (m *mockGradeRepo) BulkUpsert(_ context.Context, grades []*models.Grade) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	// The real repository scans the stored row id back into each grade.
	for i, grade := range grades {
		grade.ID = fmt.Sprintf("grade-%d", i+1)
	}
	m.upserted = grades
	return nil
}

type mockClassReader struct {
	class *models.ClassDetail
	err   error
}

func (m *mockClassReader) FindByID(_ context.Context, _ string) (*models.ClassDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.class, nil
}

type mockNotifier struct {
	created   []*models.Notification
	createErr error
}

func (m *mockNotifier) Create(_ context.Context, n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func float64Ptr(v float64) *float64 { return &v }

func testClassDetail() *models.ClassDetail {
	return &models.ClassDetail{
		Class:      models.Class{ID: "class-1", TermID: "term-1", Capacity: 30},
		CourseCode: "MATH101",
		CourseName: "Algebra I",
		TermName:   "Fall 2026",
	}
}

func TestGradeServiceRecordBulk(t *testing.T) {
	repo := &mockGradeRepo{}
	notifier := &mockNotifier{}
	svc := NewGradeService(repo, &mockClassReader{class: testClassDetail()}, notifier, nil, nil)

	count, err := svc.RecordBulk(context.Background(), BulkGradeRequest{
		ClassID:      "class-1",
		AssignmentID: "hw-3",
		MaxScore:     50,
		Entries: []GradeEntry{
			{StudentID: "stu-1", Score: float64Ptr(45), Status: models.GradeSubmitted},
			{StudentID: "stu-2", Score: float64Ptr(0), Status: models.GradeSubmitted},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.upserted, 2)
	assert.Equal(t, "hw-3", repo.upserted[0].AssignmentID)
	assert.Len(t, notifier.created, 2)
	assert.Equal(t, "stu-1", notifier.created[0].RecipientID)
	assert.Equal(t, models.NotificationGrade, notifier.created[0].Type)
	require.NotNil(t, notifier.created[0].RelatedID)
	assert.Equal(t, "grade-1", *notifier.created[0].RelatedID, "related id points at the stored grade row")
}

func TestGradeServiceRecordBulkForcesNullScore(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := NewGradeService(repo, &mockClassReader{class: testClassDetail()}, nil, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkGradeRequest{
		ClassID:      "class-1",
		AssignmentID: "hw-3",
		MaxScore:     100,
		Entries: []GradeEntry{
			{StudentID: "stu-1", Score: float64Ptr(80), Status: models.GradeMissing},
			{StudentID: "stu-2", Score: float64Ptr(80), Status: models.GradeExcused},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 2)
	assert.Nil(t, repo.upserted[0].Score)
	assert.Nil(t, repo.upserted[1].Score)
}

func TestGradeServiceRecordBulkRejectsOutOfRangeScore(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockClassReader{class: testClassDetail()}, nil, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkGradeRequest{
		ClassID:      "class-1",
		AssignmentID: "hw-3",
		MaxScore:     50,
		Entries:      []GradeEntry{{StudentID: "stu-1", Score: float64Ptr(51), Status: models.GradeSubmitted}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGradeServiceRecordBulkRejectsDuplicateStudent(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockClassReader{class: testClassDetail()}, nil, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkGradeRequest{
		ClassID:      "class-1",
		AssignmentID: "hw-3",
		MaxScore:     50,
		Entries: []GradeEntry{
			{StudentID: "stu-1", Score: float64Ptr(40), Status: models.GradeSubmitted},
			{StudentID: "stu-1", Score: float64Ptr(41), Status: models.GradeSubmitted},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGradeServiceRecordBulkUnknownClass(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, &mockClassReader{err: sql.ErrNoRows}, nil, nil, nil)

	_, err := svc.RecordBulk(context.Background(), BulkGradeRequest{
		ClassID:      "missing",
		AssignmentID: "hw-3",
		MaxScore:     50,
		Entries:      []GradeEntry{{StudentID: "stu-1", Status: models.GradeSubmitted}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLetterBoundaries(t *testing.T) {
	cases := []struct {
		score  float64
		letter string
	}{
		{90, "A"},
		{89.9, "B"},
		{80, "B"},
		{79.9, "C"},
		{70, "C"},
		{69.9, "D"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letter, models.Letter(tc.score, 100), "score %v", tc.score)
	}
}
