package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
)

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity, enrolled_students, waitlist_count FROM classes").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "enrolled_students", "waitlist_count"}).AddRow(30, 12, 0))
	mock.ExpectQuery("FROM enrollments WHERE student_id").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes SET enrolled_students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu-1", ClassID: "class-1", TermID: "term-1"}
	position, err := repo.Enroll(context.Background(), enrollment)
	require.NoError(t, err)
	assert.Zero(t, position)
	assert.Equal(t, models.EnrollmentStatusEnrolled, enrollment.Status)
	assert.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollWaitlistsWhenFull(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity, enrolled_students, waitlist_count FROM classes").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "enrolled_students", "waitlist_count"}).AddRow(30, 30, 2))
	mock.ExpectQuery("FROM enrollments WHERE student_id").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes SET waitlist_count").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{StudentID: "stu-1", ClassID: "class-1", TermID: "term-1"}
	position, err := repo.Enroll(context.Background(), enrollment)
	require.NoError(t, err)
	assert.Equal(t, 3, position)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, enrollment.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT capacity, enrolled_students, waitlist_count FROM classes").
		WillReturnRows(sqlmock.NewRows([]string{"capacity", "enrolled_students", "waitlist_count"}).AddRow(30, 12, 0))
	mock.ExpectQuery("FROM enrollments WHERE student_id").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "stu-1", ClassID: "class-1"})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDropReleasesSeat(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "section_id", "term_id", "status", "joined_at", "left_at"}).
		AddRow("enr-1", "stu-1", "class-1", nil, "term-1", models.EnrollmentStatusEnrolled, time.Now(), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM enrollments WHERE id").WillReturnRows(rows)
	mock.ExpectExec("UPDATE enrollments SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE classes SET enrolled_students").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Drop(context.Background(), "enr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
