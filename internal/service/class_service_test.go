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

type mockClassRepo struct {
	byTerm      []models.Class
	detail      *models.ClassDetail
	created     []*models.Class
	enrollments int
	sections    int
	deleted     []string
	adjusted    int
}

func (m *mockClassRepo) List(_ context.Context, _ models.ClassFilter) ([]models.ClassDetail, int, error) {
	return nil, 0, nil
}

func (m *mockClassRepo) FindByID(_ context.Context, id string) (*models.ClassDetail, error) {
	if m.detail == nil {
		return nil, sql.ErrNoRows
	}
	return m.detail, nil
}

func (m *mockClassRepo) ListByTerm(_ context.Context, _ string) ([]models.Class, error) {
	return m.byTerm, nil
}

func (m *mockClassRepo) Create(_ context.Context, class *models.Class) error {
	class.ID = fmt.Sprintf("class-%d", len(m.created)+1)
	m.created = append(m.created, class)
	return nil
}

func (m *mockClassRepo) CreateBatch(_ context.Context, classes []*models.Class) error {
	for _, class := range classes {
		class.ID = fmt.Sprintf("class-%d", len(m.created)+1)
		m.created = append(m.created, class)
	}
	return nil
}

func (m *mockClassRepo) Update(_ context.Context, _ *models.Class) error { return nil }

func (m *mockClassRepo) AdjustScheduleBatch(_ context.Context, req models.ScheduleBatchRequest) (int, error) {
	m.adjusted = len(req.ClassIDs)
	return m.adjusted, nil
}

func (m *mockClassRepo) CountDependents(_ context.Context, _ string) (int, int, error) {
	return m.enrollments, m.sections, nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockClassRepo) Roster(_ context.Context, _ string) ([]models.RosterEntry, error) {
	return nil, nil
}

type mockCourseReader struct {
	missing map[string]bool
}

func (m *mockCourseReader) FindByID(_ context.Context, id string) (*models.Course, error) {
	if m.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Code: "MATH101"}, nil
}

type mockTermReader struct {
	missing map[string]bool
}

func (m *mockTermReader) FindByID(_ context.Context, id string) (*models.Term, error) {
	if m.missing[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Term{ID: id}, nil
}

func newClassService(repo *mockClassRepo) *ClassService {
	return NewClassService(repo, &mockCourseReader{}, &mockTermReader{}, nil, nil)
}

func TestClassServiceCreateBatch(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassService(repo)

	result, err := svc.CreateBatch(context.Background(), models.BatchClassCreateRequest{
		CourseIDs:         []string{"course-1", "course-2", "course-3"},
		TermID:            "term-1",
		SectionsPerCourse: 2,
		RoomPrefix:        "B",
		DefaultCapacity:   25,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, result.CreatedCount)
	assert.Len(t, result.ClassIDs, 6)
	require.Len(t, repo.created, 6)
	assert.Equal(t, "B-1", repo.created[0].Room)
	assert.Equal(t, "B-6", repo.created[5].Room)
	assert.Equal(t, 25, repo.created[0].Capacity)
	assert.Equal(t, "term-1", repo.created[0].TermID)
}

func TestClassServiceCreateBatchUnknownCourse(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, &mockCourseReader{missing: map[string]bool{"course-2": true}}, &mockTermReader{}, nil, nil)

	_, err := svc.CreateBatch(context.Background(), models.BatchClassCreateRequest{
		CourseIDs:         []string{"course-1", "course-2"},
		TermID:            "term-1",
		SectionsPerCourse: 1,
		RoomPrefix:        "B",
		DefaultCapacity:   25,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestClassServiceTransitionTerm(t *testing.T) {
	teacherID := "teacher-1"
	repo := &mockClassRepo{byTerm: []models.Class{
		{ID: "old-1", CourseID: "course-1", TermID: "term-1", TeacherID: &teacherID, Room: "A-1", Building: "Main", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:30", Capacity: 30},
		{ID: "old-2", CourseID: "course-2", TermID: "term-1", Room: "A-2", Capacity: 20},
	}}
	svc := newClassService(repo)

	result, err := svc.TransitionTerm(context.Background(), models.TermTransitionRequest{
		SourceTermID:  "term-1",
		TargetTermID:  "term-2",
		KeepTeachers:  true,
		KeepRooms:     false,
		KeepSchedules: false,
		CapacityDelta: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, []string{"teachers"}, result.Preserved)
	assert.Equal(t, []string{"rooms", "schedules", "enrollments"}, result.Reset)

	require.Len(t, repo.created, 2)
	first := repo.created[0]
	assert.Equal(t, "term-2", first.TermID)
	assert.Equal(t, 35, first.Capacity)
	assert.Equal(t, &teacherID, first.TeacherID)
	assert.Empty(t, first.Room)
	assert.Empty(t, first.DayOfWeek)
	assert.Zero(t, first.EnrolledStudents)
}

func TestClassServiceTransitionTermCapacityFloor(t *testing.T) {
	repo := &mockClassRepo{byTerm: []models.Class{{ID: "old-1", CourseID: "course-1", Capacity: 10}}}
	svc := newClassService(repo)

	_, err := svc.TransitionTerm(context.Background(), models.TermTransitionRequest{
		SourceTermID:  "term-1",
		TargetTermID:  "term-2",
		CapacityDelta: -50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.created[0].Capacity)
}

func TestClassServiceTransitionTermSameTerm(t *testing.T) {
	svc := newClassService(&mockClassRepo{})

	_, err := svc.TransitionTerm(context.Background(), models.TermTransitionRequest{
		SourceTermID: "term-1",
		TargetTermID: "term-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceTransitionTermEmptySource(t *testing.T) {
	svc := newClassService(&mockClassRepo{})

	_, err := svc.TransitionTerm(context.Background(), models.TermTransitionRequest{
		SourceTermID: "term-1",
		TargetTermID: "term-2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClassServiceDeleteBlockedByDependents(t *testing.T) {
	repo := &mockClassRepo{
		detail:      &models.ClassDetail{Class: models.Class{ID: "class-1"}},
		enrollments: 3,
	}
	svc := newClassService(repo)

	err := svc.Delete(context.Background(), "class-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHasDependents.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestClassServiceAdjustScheduleBatchValidation(t *testing.T) {
	repo := &mockClassRepo{}
	svc := newClassService(repo)

	_, err := svc.AdjustScheduleBatch(context.Background(), models.ScheduleBatchRequest{
		ClassIDs: []string{"class-1"},
		Kind:     models.AdjustmentKindRoom,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	result, err := svc.AdjustScheduleBatch(context.Background(), models.ScheduleBatchRequest{
		ClassIDs: []string{"class-1", "class-2"},
		Kind:     models.AdjustmentKindRoom,
		Room:     "C-101",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.UpdatedCount)
}
