package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/sis-api/internal/models"
)

// ClassRepository manages persistence for class offerings.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `c.id, c.course_id, c.term_id, c.teacher_id, c.room, c.building,
        c.day_of_week, c.start_time, c.end_time, c.capacity, c.enrolled_students,
        c.waitlist_count, c.status, c.created_at, c.updated_at`

const classDetailColumns = classColumns + `,
        co.code AS course_code, co.name AS course_name, t.name AS term_name, te.full_name AS teacher_name`

const classJoins = `FROM classes c
        JOIN courses co ON co.id = c.course_id
        JOIN terms t ON t.id = c.term_id
        LEFT JOIN teachers te ON te.id = c.teacher_id`

// List returns classes matching the provided filters.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := classJoins
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("c.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(co.name) LIKE $%d OR LOWER(co.code) LIKE $%d OR LOWER(c.room) LIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column := sortColumn(filter.SortBy, map[string]string{
		"course_name": "co.name",
		"room":        "c.room",
		"day_of_week": "c.day_of_week",
		"start_time":  "c.start_time",
		"created_at":  "c.created_at",
	}, "c.created_at")
	order := sortOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classDetailColumns, base, column, order, limit, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class with its course, term and teacher context.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE c.id = $1", classDetailColumns, classJoins)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTerm returns all classes scheduled within a term.
func (r *ClassRepository) ListByTerm(ctx context.Context, termID string) ([]models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes c WHERE c.term_id = $1 ORDER BY c.created_at", classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, termID); err != nil {
		return nil, fmt.Errorf("list classes by term: %w", err)
	}
	return classes, nil
}

const insertClassQuery = `INSERT INTO classes (id, course_id, term_id, teacher_id, room, building,
        day_of_week, start_time, end_time, capacity, enrolled_students, waitlist_count, status,
        created_at, updated_at)
        VALUES (:id, :course_id, :term_id, :teacher_id, :room, :building,
        :day_of_week, :start_time, :end_time, :capacity, :enrolled_students, :waitlist_count, :status,
        :created_at, :updated_at)`

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	stampClass(class)
	if _, err := r.db.NamedExecContext(ctx, insertClassQuery, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// CreateBatch inserts all classes in a single transaction. Any failure rolls
// the whole batch back.
func (r *ClassRepository) CreateBatch(ctx context.Context, classes []*models.Class) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch create classes: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, class := range classes {
		stampClass(class)
		if _, err := tx.NamedExecContext(ctx, insertClassQuery, class); err != nil {
			return fmt.Errorf("batch create class: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch create classes: %w", err)
	}
	return nil
}

func stampClass(class *models.Class) {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	if class.Status == "" {
		class.Status = models.ClassStatusScheduled
	}
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET course_id = :course_id, term_id = :term_id, teacher_id = :teacher_id,
        room = :room, building = :building, day_of_week = :day_of_week, start_time = :start_time,
        end_time = :end_time, capacity = :capacity, status = :status, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// AdjustScheduleBatch applies one uniform room or time change to the given
// classes inside a transaction. It fails when any class is missing so the
// batch stays all-or-nothing.
func (r *ClassRepository) AdjustScheduleBatch(ctx context.Context, req models.ScheduleBatchRequest) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin schedule batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	var query string
	var args []interface{}
	switch req.Kind {
	case models.AdjustmentKindRoom:
		query = `UPDATE classes SET room = $1, building = $2, updated_at = $3 WHERE id = ANY($4)`
		args = []interface{}{req.Room, req.Building, now, pq.Array(req.ClassIDs)}
	case models.AdjustmentKindTime:
		query = `UPDATE classes SET day_of_week = $1, start_time = $2, end_time = $3, updated_at = $4 WHERE id = ANY($5)`
		args = []interface{}{req.DayOfWeek, req.StartTime, req.EndTime, now, pq.Array(req.ClassIDs)}
	default:
		return 0, fmt.Errorf("unknown schedule adjustment kind %q", req.Kind)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("schedule batch update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("schedule batch update: %w", err)
	}
	if int(affected) != len(req.ClassIDs) {
		return 0, fmt.Errorf("schedule batch update: %d of %d classes found", affected, len(req.ClassIDs))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit schedule batch: %w", err)
	}
	return int(affected), nil
}

// CountDependents returns active enrollments and sections attached to a class.
func (r *ClassRepository) CountDependents(ctx context.Context, classID string) (enrollments, sections int, err error) {
	const enrollQuery = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status <> $2`
	if err = r.db.GetContext(ctx, &enrollments, enrollQuery, classID, models.EnrollmentStatusDropped); err != nil {
		return 0, 0, fmt.Errorf("count class enrollments: %w", err)
	}
	const sectionQuery = `SELECT COUNT(*) FROM sections WHERE class_id = $1`
	if err = r.db.GetContext(ctx, &sections, sectionQuery, classID); err != nil {
		return 0, 0, fmt.Errorf("count class sections: %w", err)
	}
	return enrollments, sections, nil
}

// Delete removes a class. Callers must check dependents first.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// Roster lists the students enrolled or waitlisted in a class.
func (r *ClassRepository) Roster(ctx context.Context, classID string) ([]models.RosterEntry, error) {
	const query = `SELECT s.id AS student_id, s.full_name, s.email, s.grade_level,
        e.status, sec.name AS section_name
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        LEFT JOIN sections sec ON sec.id = e.section_id
        WHERE e.class_id = $1 AND e.status <> $2
        ORDER BY e.status, s.full_name`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, classID, models.EnrollmentStatusDropped); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return roster, nil
}
