package models

import "time"

// NotificationType categorises notifications for routing and preferences.
type NotificationType string

const (
	NotificationAnnouncement NotificationType = "ANNOUNCEMENT"
	NotificationMessage      NotificationType = "MESSAGE"
	NotificationGrade        NotificationType = "GRADE"
	NotificationAttendance   NotificationType = "ATTENDANCE"
	NotificationAssignment   NotificationType = "ASSIGNMENT"
	NotificationEvent        NotificationType = "EVENT"
	NotificationRegistration NotificationType = "REGISTRATION"
)

// NotificationTypes lists every known type, in preference-matrix order.
var NotificationTypes = []NotificationType{
	NotificationAnnouncement,
	NotificationMessage,
	NotificationGrade,
	NotificationAttendance,
	NotificationAssignment,
	NotificationEvent,
	NotificationRegistration,
}

// Valid reports whether the type is a known value.
func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is a per-user message created by system events.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Type        NotificationType `db:"type" json:"type"`
	RelatedID   *string          `db:"related_id" json:"related_id,omitempty"`
	Read        bool             `db:"read" json:"read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter narrows notification listings for one recipient.
type NotificationFilter struct {
	RecipientID string
	Type        NotificationType
	Unread      *bool
	Page        int
	PageSize    int
}

// ChannelToggles holds the per-type delivery switches.
type ChannelToggles struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"in_app"`
}

// NotificationPreferences is the channel × type delivery matrix for a user.
// A disabled global channel forces the corresponding per-type toggle off.
type NotificationPreferences struct {
	UserID    string                              `json:"user_id"`
	Email     bool                                `json:"email"`
	SMS       bool                                `json:"sms"`
	InApp     bool                                `json:"in_app"`
	Types     map[NotificationType]ChannelToggles `json:"types"`
	UpdatedAt time.Time                           `json:"updated_at"`
}

// DefaultPreferences returns the matrix with every channel enabled.
func DefaultPreferences(userID string) *NotificationPreferences {
	types := make(map[NotificationType]ChannelToggles, len(NotificationTypes))
	for _, t := range NotificationTypes {
		types[t] = ChannelToggles{Email: true, SMS: true, InApp: true}
	}
	return &NotificationPreferences{
		UserID: userID,
		Email:  true,
		SMS:    true,
		InApp:  true,
		Types:  types,
	}
}

// Normalize forces per-type toggles off wherever the global channel is off.
func (p *NotificationPreferences) Normalize() {
	for t, toggles := range p.Types {
		if !p.Email {
			toggles.Email = false
		}
		if !p.SMS {
			toggles.SMS = false
		}
		if !p.InApp {
			toggles.InApp = false
		}
		p.Types[t] = toggles
	}
}
