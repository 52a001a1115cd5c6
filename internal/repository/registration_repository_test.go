package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRegistrationRepositoryAccept(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	student := &models.Student{FullName: "Jane Doe", GradeLevel: "7", Status: models.StudentStatusActive}
	err := repo.Accept(context.Background(), "reg-1", nil, student)
	require.NoError(t, err)
	require.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryAcceptNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), "reg-1", nil, &models.Student{})
	require.ErrorIs(t, err, ErrNoPendingTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryRejectNotPending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("UPDATE registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Reject(context.Background(), "reg-1", nil)
	require.ErrorIs(t, err, ErrNoPendingTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepositoryCreateStampsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("INSERT INTO registrations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	reg := &models.Registration{ApplicantName: "Jane Doe"}
	err := repo.Create(context.Background(), reg)
	require.NoError(t, err)
	require.NotEmpty(t, reg.ID)
	require.Equal(t, models.RegistrationStatusPending, reg.Status)
	require.False(t, reg.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
