package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// TermRepository manages persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs a TermRepository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, name, code, type, academic_year, start_date, end_date,
        registration_start, registration_end, is_active, is_current, created_at, updated_at`

// List returns terms matching the provided filters.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	base := "FROM terms"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column := sortColumn(filter.SortBy, map[string]string{
		"name":       "name",
		"start_date": "start_date",
		"created_at": "created_at",
	}, "start_date")
	order := sortOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", termColumns, base, column, order, limit, offset)

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}
	return terms, total, nil
}

// FindByID fetches a term by ID.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// FindCurrent fetches the term flagged as current, if any.
func (r *TermRepository) FindCurrent(ctx context.Context) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE is_current = TRUE LIMIT 1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query); err != nil {
		return nil, err
	}
	return &term, nil
}

// ExistsByCode checks code uniqueness, optionally excluding an ID.
func (r *TermRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM terms WHERE LOWER(code) = LOWER($1)"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check term code: %w", err)
	}
	return true, nil
}

// Create inserts a new term. When the term is flagged current the previous
// current term is cleared inside the same transaction.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	term.CreatedAt = now
	term.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create term: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if term.IsCurrent {
		if err := clearCurrentTerm(ctx, tx, term.ID); err != nil {
			return err
		}
	}

	const query = `INSERT INTO terms (id, name, code, type, academic_year, start_date, end_date,
        registration_start, registration_end, is_active, is_current, created_at, updated_at)
        VALUES (:id, :name, :code, :type, :academic_year, :start_date, :end_date,
        :registration_start, :registration_end, :is_active, :is_current, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create term: %w", err)
	}
	return nil
}

// Update modifies an existing term, keeping the current flag exclusive.
func (r *TermRepository) Update(ctx context.Context, term *models.Term) error {
	term.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update term: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if term.IsCurrent {
		if err := clearCurrentTerm(ctx, tx, term.ID); err != nil {
			return err
		}
	}

	const query = `UPDATE terms SET name = :name, code = :code, type = :type, academic_year = :academic_year,
        start_date = :start_date, end_date = :end_date, registration_start = :registration_start,
        registration_end = :registration_end, is_active = :is_active, is_current = :is_current,
        updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("update term: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update term: %w", err)
	}
	return nil
}

// SetCurrent marks the term as current and clears the flag everywhere else.
func (r *TermRepository) SetCurrent(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set current term: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := clearCurrentTerm(ctx, tx, id); err != nil {
		return err
	}
	const query = `UPDATE terms SET is_current = TRUE, updated_at = $2 WHERE id = $1`
	res, err := tx.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set current term: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set current term: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit set current term: %w", err)
	}
	return nil
}

func clearCurrentTerm(ctx context.Context, tx *sqlx.Tx, exceptID string) error {
	const query = `UPDATE terms SET is_current = FALSE, updated_at = $2 WHERE is_current = TRUE AND id <> $1`
	if _, err := tx.ExecContext(ctx, query, exceptID, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear current term: %w", err)
	}
	return nil
}

// CountClasses returns the number of classes scheduled under the term.
func (r *TermRepository) CountClasses(ctx context.Context, termID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE term_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, termID); err != nil {
		return 0, fmt.Errorf("count term classes: %w", err)
	}
	return count, nil
}

// Delete removes a term. Callers must check for dependent classes first.
func (r *TermRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM terms WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	return nil
}
