package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/sis-api/internal/models"
)

// NotificationRepository manages persistence for notifications and the
// per-user delivery preference matrix.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, title, message, type, related_id, read, created_at`

// List returns a recipient's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	base := "FROM notifications"
	args := []interface{}{filter.RecipientID}
	conditions := []string{"recipient_id = $1"}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Unread != nil {
		conditions = append(conditions, fmt.Sprintf("read = $%d", len(args)+1))
		args = append(args, !*filter.Unread)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d",
		notificationColumns, base, limit, offset)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return notifications, total, nil
}

// Create inserts a notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, recipient_id, title, message, type, related_id, read, created_at)
        VALUES (:id, :recipient_id, :title, :message, :type, :related_id, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead flags a single notification as read for its recipient.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification for the recipient.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	const query = `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND read = FALSE`
	res, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(affected), nil
}

// UnreadCount returns the recipient's unread notification count.
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("unread notification count: %w", err)
	}
	return count, nil
}

type preferencesRow struct {
	UserID    string    `db:"user_id"`
	Email     bool      `db:"email"`
	SMS       bool      `db:"sms"`
	InApp     bool      `db:"in_app"`
	Types     []byte    `db:"types"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetPreferences loads a user's delivery matrix, or sql.ErrNoRows when the
// user has never saved one.
func (r *NotificationRepository) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	const query = `SELECT user_id, email, sms, in_app, types, updated_at
        FROM notification_preferences WHERE user_id = $1`
	var row preferencesRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, err
	}

	prefs := models.NotificationPreferences{
		UserID:    row.UserID,
		Email:     row.Email,
		SMS:       row.SMS,
		InApp:     row.InApp,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Types, &prefs.Types); err != nil {
		return nil, fmt.Errorf("decode preference matrix: %w", err)
	}
	return &prefs, nil
}

// UpsertPreferences stores the user's delivery matrix, replacing any prior
// version.
func (r *NotificationRepository) UpsertPreferences(ctx context.Context, prefs *models.NotificationPreferences) error {
	types, err := json.Marshal(prefs.Types)
	if err != nil {
		return fmt.Errorf("encode preference matrix: %w", err)
	}
	prefs.UpdatedAt = time.Now().UTC()

	const query = `INSERT INTO notification_preferences (user_id, email, sms, in_app, types, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id)
        DO UPDATE SET email = EXCLUDED.email, sms = EXCLUDED.sms, in_app = EXCLUDED.in_app,
        types = EXCLUDED.types, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, prefs.UserID, prefs.Email, prefs.SMS, prefs.InApp, types, prefs.UpdatedAt); err != nil {
		return fmt.Errorf("upsert notification preferences: %w", err)
	}
	return nil
}

// IsNoPreferences reports whether the error means the user has no saved
// matrix yet.
func IsNoPreferences(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
