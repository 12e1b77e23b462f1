package model

import "time"

// NotificationType tags the variant a notification carries. The decline
// variant additionally uses DeclineChoreReason, UserID, and the supporter
// fields; the others only use the shared base.
type NotificationType string

const (
	NotificationStandard         NotificationType = "standard"
	NotificationRandomAssignment NotificationType = "random-chore-assignment"
	NotificationChoreRequest     NotificationType = "chore-request"
	NotificationDeclineChore     NotificationType = "decline-chore-assignment"
)

type Notification struct {
	ID                 string           `json:"_id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Date               time.Time        `json:"date"`
	NotificationType   NotificationType `json:"notificationType"`
	ChoreID            *string          `json:"choreID"`
	IsRead             []string         `json:"isRead"`
	DeclineChoreReason *string          `json:"declineChoreReason"`
	UserID             *string          `json:"userID"`
	NumOfSupporters    int              `json:"numOfSupporters"`
	SupportingUsers    []string         `json:"supportingUsers"`
}

// NewNotification builds a standard notification about a chore. choreID may
// be empty for membership events.
func NewNotification(title, description, choreID string) Notification {
	n := Notification{
		Title:            title,
		Description:      description,
		NotificationType: NotificationStandard,
	}
	if choreID != "" {
		n.ChoreID = &choreID
	}
	return n
}

// NewTypedNotification builds a notification with an explicit variant tag.
func NewTypedNotification(t NotificationType, title, description, choreID string) Notification {
	n := NewNotification(title, description, choreID)
	n.NotificationType = t
	return n
}

// NewDeclineNotification builds the decline-chore-assignment variant carrying
// the decliner's ID and reason so other members can react with support.
func NewDeclineNotification(title, description, choreID, declinedBy, reason string) Notification {
	n := NewTypedNotification(NotificationDeclineChore, title, description, choreID)
	n.DeclineChoreReason = &reason
	n.UserID = &declinedBy
	return n
}

// ReadBy reports whether userID already appears in the read set.
func (n *Notification) ReadBy(userID string) bool {
	for _, u := range n.IsRead {
		if u == userID {
			return true
		}
	}
	return false
}

// SupportedBy reports whether userID already appears in the supporter set.
func (n *Notification) SupportedBy(userID string) bool {
	for _, u := range n.SupportingUsers {
		if u == userID {
			return true
		}
	}
	return false
}
