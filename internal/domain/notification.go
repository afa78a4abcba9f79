package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType drives the icon and colour shown by clients.
type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification is a one-way message to a single user. Only its recipient
// may mark it read or delete it.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	Link      string           `json:"link,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ContactMessage is a message from a user to headquarters staff.
// Reply is empty until a reviewer answers.
type ContactMessage struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Subject   string
	Body      string
	Reply     string
	RepliedBy *uuid.UUID
	RepliedAt *time.Time
	CreatedAt time.Time
}
