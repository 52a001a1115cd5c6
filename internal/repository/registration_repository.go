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

// ErrNoPendingTransition is returned when a status update races a prior
// terminal transition on the same registration.
var ErrNoPendingTransition = errors.New("registration is not pending")

// RegistrationRepository manages persistence for admission applications.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `r.id, r.applicant_name, r.birth_date, r.email, r.phone, r.address,
        r.guardian_name, r.guardian_phone, r.desired_grade, r.desired_section_id, r.subjects,
        r.document_urls, r.status, r.admin_note, r.student_id, r.created_at, r.updated_at`

// List returns registrations matching the provided filters.
func (r *RegistrationRepository) List(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationDetail, int, error) {
	base := "FROM registrations r LEFT JOIN sections sec ON sec.id = r.desired_section_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("r.desired_grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(r.applicant_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	column := sortColumn(filter.SortBy, map[string]string{
		"applicant_name": "r.applicant_name",
		"status":         "r.status",
		"created_at":     "r.created_at",
	}, "r.created_at")
	order := sortOrder(filter.SortOrder)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s, sec.name AS desired_section_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, registrationColumns, base, column, order, limit, offset)

	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}
	return registrations, total, nil
}

// FindByID fetches a registration with its resolved section name.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.RegistrationDetail, error) {
	query := fmt.Sprintf(`SELECT %s, sec.name AS desired_section_name
        FROM registrations r
        LEFT JOIN sections sec ON sec.id = r.desired_section_id
        WHERE r.id = $1`, registrationColumns)
	var detail models.RegistrationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a pending registration.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	reg.CreatedAt = now
	reg.UpdatedAt = now
	reg.Status = models.RegistrationStatusPending
	const query = `INSERT INTO registrations (id, applicant_name, birth_date, email, phone, address,
        guardian_name, guardian_phone, desired_grade, desired_section_id, subjects, document_urls,
        status, admin_note, created_at, updated_at)
        VALUES (:id, :applicant_name, :birth_date, :email, :phone, :address,
        :guardian_name, :guardian_phone, :desired_grade, :desired_section_id, :subjects, :document_urls,
        :status, :admin_note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, reg); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// Reject moves a pending registration to REJECTED. The conditional WHERE
// guards against double transitions.
func (r *RegistrationRepository) Reject(ctx context.Context, id string, adminNote *string) error {
	const query = `UPDATE registrations SET status = $2, admin_note = $3, updated_at = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.RegistrationStatusRejected, adminNote,
		time.Now().UTC(), models.RegistrationStatusPending)
	if err != nil {
		return fmt.Errorf("reject registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reject registration: %w", err)
	}
	if affected == 0 {
		return ErrNoPendingTransition
	}
	return nil
}

// Accept transitions a pending registration to ACCEPTED and creates the
// mapped student inside one transaction. The conditional status UPDATE makes
// the transition idempotent: a second accept finds no pending row and the
// whole transaction is rolled back without a duplicate student.
func (r *RegistrationRepository) Accept(ctx context.Context, id string, adminNote *string, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	const update = `UPDATE registrations SET status = $2, admin_note = $3, student_id = $4, updated_at = $5
        WHERE id = $1 AND status = $6`
	res, err := tx.ExecContext(ctx, update, id, models.RegistrationStatusAccepted, adminNote,
		student.ID, now, models.RegistrationStatusPending)
	if err != nil {
		return fmt.Errorf("accept registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accept registration: %w", err)
	}
	if affected == 0 {
		return ErrNoPendingTransition
	}

	const insert = `INSERT INTO students (id, full_name, email, phone, address, birth_date, grade_level,
        status, enrollment_date, guardian_name, guardian_phone, guardian_email, created_at, updated_at)
        VALUES (:id, :full_name, :email, :phone, :address, :birth_date, :grade_level,
        :status, :enrollment_date, :guardian_name, :guardian_phone, :guardian_email, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, student); err != nil {
		return fmt.Errorf("create student from registration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept: %w", err)
	}
	return nil
}

// IsNotFound reports whether the error is the driver's no-rows sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
