package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type notificationRepository interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	Create(ctx context.Context, notification *models.Notification) error
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *models.NotificationPreferences) error
}

type notificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PreferencesRequest is the PUT payload for the delivery matrix.
type PreferencesRequest struct {
	Email bool                                              `json:"email"`
	SMS   bool                                              `json:"sms"`
	InApp bool                                              `json:"in_app"`
	Types map[models.NotificationType]models.ChannelToggles `json:"types" validate:"required"`
}

// NotificationService handles notification and preference use-cases. The
// unread count is cached per recipient and invalidated on every write.
type NotificationService struct {
	repo      notificationRepository
	cache     notificationCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNotificationService constructs the notification service. The cache is
// optional; when nil every unread-count read hits the database.
func NewNotificationService(repo notificationRepository, cache notificationCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &NotificationService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func unreadCountKey(recipientID string) string {
	return fmt.Sprintf("notifications:unread:%s", recipientID)
}

// List returns a recipient's notifications and pagination metadata.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown notification type")
	}
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Create stores a notification and invalidates the recipient's cached count.
func (s *NotificationService) Create(ctx context.Context, notification *models.Notification) error {
	if !notification.Type.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown notification type")
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	s.invalidateCount(ctx, notification.RecipientID)
	return nil
}

// MarkRead flags one of the recipient's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	s.invalidateCount(ctx, recipientID)
	return nil
}

// MarkAllRead flags every unread notification for the recipient and returns
// how many were updated.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int, error) {
	updated, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateCount(ctx, recipientID)
	return updated, nil
}

// UnreadCount returns the recipient's unread count, served from cache when
// fresh.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	key := unreadCountKey(recipientID)
	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("unread count cache read failed", zap.String("recipient_id", recipientID), zap.Error(err))
		}
	}

	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, s.cacheTTL); err != nil {
			s.logger.Warn("unread count cache write failed", zap.String("recipient_id", recipientID), zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) invalidateCount(ctx context.Context, recipientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, unreadCountKey(recipientID)); err != nil {
		s.logger.Warn("unread count cache invalidation failed", zap.String("recipient_id", recipientID), zap.Error(err))
	}
}

// GetPreferences loads the user's delivery matrix, falling back to the
// default matrix for users who never saved one.
func (s *NotificationService) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	prefs, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultPreferences(userID), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
	}
	return prefs, nil
}

// UpdatePreferences replaces the user's delivery matrix. Per-type toggles for
// a globally disabled channel are forced off before saving, so a type can
// never receive through a channel the user has switched off.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, req PreferencesRequest) (*models.NotificationPreferences, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferences payload")
	}
	for t := range req.Types {
		if !t.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown notification type %q", t))
		}
	}

	prefs := &models.NotificationPreferences{
		UserID: userID,
		Email:  req.Email,
		SMS:    req.SMS,
		InApp:  req.InApp,
		Types:  make(map[models.NotificationType]models.ChannelToggles, len(models.NotificationTypes)),
	}
	// Types absent from the request keep their channel toggles on, subject
	// to the global switches.
	for _, t := range models.NotificationTypes {
		if toggles, ok := req.Types[t]; ok {
			prefs.Types[t] = toggles
		} else {
			prefs.Types[t] = models.ChannelToggles{Email: true, SMS: true, InApp: true}
		}
	}
	prefs.Normalize()

	if err := s.repo.UpsertPreferences(ctx, prefs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preferences")
	}
	return prefs, nil
}
