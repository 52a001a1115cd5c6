package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/sis-api/internal/models"
	appErrors "github.com/campushq/sis-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications []models.Notification
	unread        int
	unreadCalls   int
	markedRead    []string
	prefs         *models.NotificationPreferences
	savedPrefs    *models.NotificationPreferences
}

func (m *mockNotificationRepo) List(_ context.Context, _ models.NotificationFilter) ([]models.Notification, int, error) {
	return m.notifications, len(m.notifications), nil
}

func (m *mockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, _ string) error {
	m.markedRead = append(m.markedRead, id)
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, _ string) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) UnreadCount(_ context.Context, _ string) (int, error) {
	m.unreadCalls++
	return m.unread, nil
}

func (m *mockNotificationRepo) GetPreferences(_ context.Context, _ string) (*models.NotificationPreferences, error) {
	if m.prefs == nil {
		return nil, sql.ErrNoRows
	}
	return m.prefs, nil
}

func (m *mockNotificationRepo) UpsertPreferences(_ context.Context, prefs *models.NotificationPreferences) error {
	m.savedPrefs = prefs
	return nil
}

type stubCache struct {
	store map[string][]byte
}

func (s *stubCache) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCache) Delete(_ context.Context, key string) error {
	delete(s.store, key)
	return nil
}

func TestNotificationServiceUnreadCountCached(t *testing.T) {
	repo := &mockNotificationRepo{unread: 5}
	cache := &stubCache{}
	svc := NewNotificationService(repo, cache, time.Minute, nil, nil)

	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, repo.unreadCalls)

	count, err = svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, repo.unreadCalls, "second read should come from cache")
}

func TestNotificationServiceMarkReadInvalidatesCount(t *testing.T) {
	repo := &mockNotificationRepo{unread: 5}
	cache := &stubCache{}
	svc := NewNotificationService(repo, cache, time.Minute, nil, nil)

	_, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), "n-1", "user-1"))

	repo.unread = 4
	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 2, repo.unreadCalls)
}

func TestNotificationServiceCreateRejectsUnknownType(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil, time.Minute, nil, nil)

	err := svc.Create(context.Background(), &models.Notification{RecipientID: "user-1", Type: "BOGUS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceGetPreferencesDefaults(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil, time.Minute, nil, nil)

	prefs, err := svc.GetPreferences(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, prefs.Email)
	assert.Len(t, prefs.Types, len(models.NotificationTypes))
	for _, toggles := range prefs.Types {
		assert.True(t, toggles.Email)
		assert.True(t, toggles.InApp)
	}
}

func TestNotificationServiceUpdatePreferencesCascade(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, time.Minute, nil, nil)

	prefs, err := svc.UpdatePreferences(context.Background(), "user-1", PreferencesRequest{
		Email: false,
		SMS:   true,
		InApp: true,
		Types: map[models.NotificationType]models.ChannelToggles{
			models.NotificationGrade: {Email: true, SMS: true, InApp: false},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, repo.savedPrefs)

	// The global email switch being off forces every per-type email toggle off.
	for _, toggles := range prefs.Types {
		assert.False(t, toggles.Email)
	}
	grade := prefs.Types[models.NotificationGrade]
	assert.True(t, grade.SMS)
	assert.False(t, grade.InApp)

	// Types absent from the request stay on for enabled channels.
	announcement := prefs.Types[models.NotificationAnnouncement]
	assert.True(t, announcement.SMS)
	assert.True(t, announcement.InApp)
}

func TestNotificationServiceUpdatePreferencesUnknownType(t *testing.T) {
	svc := NewNotificationService(&mockNotificationRepo{}, nil, time.Minute, nil, nil)

	_, err := svc.UpdatePreferences(context.Background(), "user-1", PreferencesRequest{
		Types: map[models.NotificationType]models.ChannelToggles{"BOGUS": {}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
