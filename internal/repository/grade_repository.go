package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// GradeRepository manages persistence for assignment grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.student_id, g.class_id, g.assignment_id, g.score, g.max_score,
        g.status, g.comment, g.created_at, g.updated_at`

// List returns grades matching the provided filters.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	base := "FROM grades g JOIN students s ON s.id = g.student_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("g.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.AssignmentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.assignment_id = $%d", len(args)+1))
		args = append(args, filter.AssignmentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("g.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column := sortColumn(filter.SortBy, map[string]string{
		"student_name": "s.full_name",
		"score":        "g.score",
		"updated_at":   "g.updated_at",
	}, "g.updated_at")
	order := sortOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, s.full_name AS student_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, gradeColumns, base, column, order, limit, offset)

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}
	for i := range grades {
		grades[i].Letter = grades[i].LetterGrade()
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// BulkUpsert records assignment grades in one transaction. A grade keyed
// (student_id, assignment_id) that already exists is overwritten and keeps
// its stored id, which is scanned back into the passed grade.
func (r *GradeRepository) BulkUpsert(ctx context.Context, grades []*models.Grade) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO grades (id, student_id, class_id, assignment_id, score, max_score,
        status, comment, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :assignment_id, :score, :max_score,
        :status, :comment, :created_at, :updated_at)
        ON CONFLICT (student_id, assignment_id)
        DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score,
        status = EXCLUDED.status, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
        RETURNING id`

	now := time.Now().UTC()
	for _, grade := range grades {
		if grade.ID == "" {
			grade.ID = uuid.NewString()
		}
		grade.CreatedAt = now
		grade.UpdatedAt = now
		rows, err := sqlx.NamedQueryContext(ctx, tx, query, grade)
		if err != nil {
			return fmt.Errorf("upsert grade: %w", err)
		}
		if rows.Next() {
			if err := rows.Scan(&grade.ID); err != nil {
				rows.Close()
				return fmt.Errorf("scan grade id: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("close grade upsert rows: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade upsert: %w", err)
	}
	return nil
}
