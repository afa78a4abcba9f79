package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/repo"
)

const maxSubjectLength = 200

// ContactService carries messages between users and headquarters.
type ContactService struct {
	messages repo.ContactRepo
	profiles repo.ProfileRepo
	notifier Notifier
}

// NewContactService constructs a ContactService.
func NewContactService(messages repo.ContactRepo, profiles repo.ProfileRepo, notifier Notifier) *ContactService {
	return &ContactService{messages: messages, profiles: profiles, notifier: notifier}
}

// Send stores a message from userID.
func (s *ContactService) Send(ctx context.Context, userID uuid.UUID, subject, body string) (domain.ContactMessage, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	switch {
	case subject == "":
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Send: %w", validationErr("subject is required"))
	case utf8.RuneCountInString(subject) > maxSubjectLength:
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Send: %w",
			validationErr(fmt.Sprintf("subject must be at most %d characters", maxSubjectLength)))
	case body == "":
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Send: %w", validationErr("message body is required"))
	}

	m, err := s.messages.Create(ctx, domain.ContactMessage{UserID: userID, Subject: subject, Body: body})
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Send: %w", err)
	}
	return m, nil
}

// List returns one page of messages for reviewers.
func (s *ContactService) List(ctx context.Context, actorID uuid.UUID, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error) {
	if _, err := loadReviewer(ctx, s.profiles, actorID); err != nil {
		return nil, 0, fmt.Errorf("service.ContactService.List: %w", err)
	}
	ms, total, err := s.messages.ListPaged(ctx, unansweredOnly, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ContactService.List: %w", err)
	}
	return ms, total, nil
}

// Reply answers a message once and notifies its sender.
func (s *ContactService) Reply(ctx context.Context, actorID, id uuid.UUID, reply string) (domain.ContactMessage, error) {
	if _, err := loadReviewer(ctx, s.profiles, actorID); err != nil {
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Reply: %w", validationErr("reply is required"))
	}

	m, err := s.messages.Reply(ctx, id, actorID, reply)
	if err != nil {
		return domain.ContactMessage{}, fmt.Errorf("service.ContactService.Reply: %w", err)
	}

	_, err = s.notifier.Notify(ctx, domain.Notification{
		UserID: m.UserID,
		Title:  "Reply to: " + m.Subject,
		Body:   reply,
		Type:   domain.NotifyInfo,
		Link:   "/contact",
	})
	if err != nil {
		slog.WarnContext(ctx, "contact reply notification failed", "message_id", id, "error", err)
	}
	return m, nil
}
