package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func TestGradeRepositoryBulkUpsertKeepsStoredID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO grades").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grade-existing"))
	mock.ExpectCommit()

	grade := &models.Grade{
		StudentID:    "stu-1",
		ClassID:      "class-1",
		AssignmentID: "hw-1",
		MaxScore:     100,
		Status:       models.GradeSubmitted,
	}
	err := repo.BulkUpsert(context.Background(), []*models.Grade{grade})
	require.NoError(t, err)
	assert.Equal(t, "grade-existing", grade.ID, "conflicting upsert adopts the stored row id")
	require.NoError(t, mock.ExpectationsWereMet())
}
