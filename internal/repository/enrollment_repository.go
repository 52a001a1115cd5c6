package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// ErrAlreadyEnrolled is returned when the student already holds an active
// enrollment in the class.
var ErrAlreadyEnrolled = errors.New("student already enrolled in class")

// EnrollmentRepository manages persistence for enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `e.id, e.student_id, e.class_id, e.section_id, e.term_id, e.status, e.joined_at, e.left_at`

// List returns enrollments matching the provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        JOIN terms t ON t.id = e.term_id`
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("e.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column := sortColumn(filter.SortBy, map[string]string{
		"student_name": "s.full_name",
		"joined_at":    "e.joined_at",
	}, "e.joined_at")
	order := sortOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name, co.name AS course_name, t.name AS term_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, enrollmentColumns, base, column, order, limit, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID fetches an enrollment by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments e WHERE e.id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enroll places the student in the class, or on the waitlist when the class
// is full. The class row is locked so the capacity check and the counter
// update cannot race. Returns the stored enrollment and, for waitlisted
// students, their 1-based waitlist position.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin enroll: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var class struct {
		Capacity      int `db:"capacity"`
		Enrolled      int `db:"enrolled_students"`
		WaitlistCount int `db:"waitlist_count"`
	}
	const lockQuery = `SELECT capacity, enrolled_students, waitlist_count FROM classes WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &class, lockQuery, enrollment.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sql.ErrNoRows
		}
		return 0, fmt.Errorf("lock class: %w", err)
	}

	// The duplicate check runs after the class row is locked so concurrent
	// enrolls of the same student serialize on the lock instead of both
	// reading a zero count. The partial unique index on active enrollments
	// backstops this at the schema level.
	var existing int
	const dupQuery = `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status <> $3`
	if err := tx.GetContext(ctx, &existing, dupQuery, enrollment.StudentID, enrollment.ClassID, models.EnrollmentStatusDropped); err != nil {
		return 0, fmt.Errorf("check existing enrollment: %w", err)
	}
	if existing > 0 {
		return 0, ErrAlreadyEnrolled
	}

	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.JoinedAt = time.Now().UTC()

	waitlistPosition := 0
	var counterUpdate string
	if class.Enrolled < class.Capacity {
		enrollment.Status = models.EnrollmentStatusEnrolled
		counterUpdate = `UPDATE classes SET enrolled_students = enrolled_students + 1, updated_at = $2 WHERE id = $1`
	} else {
		enrollment.Status = models.EnrollmentStatusWaitlisted
		waitlistPosition = class.WaitlistCount + 1
		counterUpdate = `UPDATE classes SET waitlist_count = waitlist_count + 1, updated_at = $2 WHERE id = $1`
	}

	const insert = `INSERT INTO enrollments (id, student_id, class_id, section_id, term_id, status, joined_at)
        VALUES (:id, :student_id, :class_id, :section_id, :term_id, :status, :joined_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		return 0, fmt.Errorf("create enrollment: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterUpdate, enrollment.ClassID, enrollment.JoinedAt); err != nil {
		return 0, fmt.Errorf("update class counters: %w", err)
	}
	if enrollment.SectionID != nil && enrollment.Status == models.EnrollmentStatusEnrolled {
		const sectionUpdate = `UPDATE sections SET enrolled_students = enrolled_students + 1, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, sectionUpdate, *enrollment.SectionID, enrollment.JoinedAt); err != nil {
			return 0, fmt.Errorf("update section counters: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit enroll: %w", err)
	}
	return waitlistPosition, nil
}

// Drop marks an enrollment dropped and releases its capacity or waitlist slot.
func (r *EnrollmentRepository) Drop(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var enrollment models.Enrollment
	const find = `SELECT id, student_id, class_id, section_id, term_id, status, joined_at, left_at
        FROM enrollments WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &enrollment, find, id); err != nil {
		return err
	}
	if enrollment.Status == models.EnrollmentStatusDropped {
		return tx.Commit()
	}

	now := time.Now().UTC()
	const update = `UPDATE enrollments SET status = $2, left_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, models.EnrollmentStatusDropped, now); err != nil {
		return fmt.Errorf("drop enrollment: %w", err)
	}

	var counterUpdate string
	if enrollment.Status == models.EnrollmentStatusEnrolled {
		counterUpdate = `UPDATE classes SET enrolled_students = GREATEST(enrolled_students - 1, 0), updated_at = $2 WHERE id = $1`
	} else {
		counterUpdate = `UPDATE classes SET waitlist_count = GREATEST(waitlist_count - 1, 0), updated_at = $2 WHERE id = $1`
	}
	if _, err := tx.ExecContext(ctx, counterUpdate, enrollment.ClassID, now); err != nil {
		return fmt.Errorf("update class counters: %w", err)
	}
	if enrollment.SectionID != nil && enrollment.Status == models.EnrollmentStatusEnrolled {
		const sectionUpdate = `UPDATE sections SET enrolled_students = GREATEST(enrolled_students - 1, 0), updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, sectionUpdate, *enrollment.SectionID, now); err != nil {
			return fmt.Errorf("update section counters: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drop: %w", err)
	}
	return nil
}
