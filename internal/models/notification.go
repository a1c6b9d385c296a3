package models

import "time"

type NotificationType string

const (
	NotificationFollow NotificationType = "follow"
	NotificationLike   NotificationType = "like"
)

// Notification is a row in the PostgreSQL notifications table.
type Notification struct {
	ID        string           `json:"id"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// NotificationView resolves the sender for display.
type NotificationView struct {
	ID        string           `json:"id"`
	From      *User            `json:"from"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
