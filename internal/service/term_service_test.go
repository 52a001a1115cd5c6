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

type mockTermRepo struct {
	terms       map[string]*models.Term
	current     *models.Term
	codeTaken   bool
	created     *models.Term
	setCurrent  []string
	classCounts map[string]int
	deleted     []string
}

func (m *mockTermRepo) List(_ context.Context, _ models.TermFilter) ([]models.Term, int, error) {
	return nil, 0, nil
}

func (m *mockTermRepo) FindByID(_ context.Context, id string) (*models.Term, error) {
	if term, ok := m.terms[id]; ok {
		copied := *term
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) FindCurrent(_ context.Context) (*models.Term, error) {
	if m.current == nil {
		return nil, sql.ErrNoRows
	}
	return m.current, nil
}

func (m *mockTermRepo) ExistsByCode(_ context.Context, _, _ string) (bool, error) {
	return m.codeTaken, nil
}

func (m *mockTermRepo) Create(_ context.Context, term *models.Term) error {
	term.ID = "term-new"
	m.created = term
	return nil
}

func (m *mockTermRepo) Update(_ context.Context, _ *models.Term) error { return nil }

func (m *mockTermRepo) SetCurrent(_ context.Context, id string) error {
	if _, ok := m.terms[id]; !ok {
		return sql.ErrNoRows
	}
	m.setCurrent = append(m.setCurrent, id)
	return nil
}

func (m *mockTermRepo) CountClasses(_ context.Context, termID string) (int, error) {
	return m.classCounts[termID], nil
}

func (m *mockTermRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func validTermRequest() TermRequest {
	return TermRequest{
		Name:              "Fall 2026",
		Code:              "2026-FALL",
		Type:              models.TermTypeSemester,
		AcademicYear:      "2026/2027",
		StartDate:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC),
		RegistrationStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		RegistrationEnd:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		IsActive:          true,
	}
}

func TestTermServiceCreate(t *testing.T) {
	repo := &mockTermRepo{}
	svc := NewTermService(repo, nil, nil)

	term, err := svc.Create(context.Background(), validTermRequest())
	require.NoError(t, err)
	assert.Equal(t, "term-new", term.ID)
	assert.Equal(t, "2026-FALL", repo.created.Code)
}

func TestTermServiceCreateRejectsBadDates(t *testing.T) {
	svc := NewTermService(&mockTermRepo{}, nil, nil)

	req := validTermRequest()
	req.EndDate = req.StartDate.AddDate(0, -1, 0)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validTermRequest()
	req.RegistrationEnd = req.StartDate.AddDate(0, 0, 10)
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTermServiceCreateRejectsDuplicateCode(t *testing.T) {
	svc := NewTermService(&mockTermRepo{codeTaken: true}, nil, nil)

	_, err := svc.Create(context.Background(), validTermRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTermServiceSetCurrent(t *testing.T) {
	repo := &mockTermRepo{terms: map[string]*models.Term{"term-1": {ID: "term-1"}}}
	svc := NewTermService(repo, nil, nil)

	_, err := svc.SetCurrent(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"term-1"}, repo.setCurrent)

	_, err = svc.SetCurrent(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTermServiceCurrentNotSet(t *testing.T) {
	svc := NewTermService(&mockTermRepo{}, nil, nil)

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTermServiceDeleteBlockedByClasses(t *testing.T) {
	repo := &mockTermRepo{
		terms:       map[string]*models.Term{"term-1": {ID: "term-1"}},
		classCounts: map[string]int{"term-1": 4},
	}
	svc := NewTermService(repo, nil, nil)

	err := svc.Delete(context.Background(), "term-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrHasDependents.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}
