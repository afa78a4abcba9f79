package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

func TestContactService_Send(t *testing.T) {
	messages := &mockContactRepo{
		create: func(_ context.Context, m domain.ContactMessage) (domain.ContactMessage, error) {
			m.ID = uuid.New()
			return m, nil
		},
	}
	svc := service.NewContactService(messages, &mockProfileRepo{}, &recordingNotifier{})

	got, err := svc.Send(context.Background(), uuid.New(), "  Bus permit ", " Which form do we need? ")
	require.NoError(t, err)
	assert.Equal(t, "Bus permit", got.Subject)
	assert.Equal(t, "Which form do we need?", got.Body)

	_, err = svc.Send(context.Background(), uuid.New(), "", "body")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Send(context.Background(), uuid.New(), strings.Repeat("s", 201), "body")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Send(context.Background(), uuid.New(), "subject", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestContactService_Reply_NotifiesSender(t *testing.T) {
	staff := reviewer(domain.RoleDeptStaff, "north")
	sender := uuid.New()
	msgID := uuid.New()
	messages := &mockContactRepo{
		reply: func(_ context.Context, id, by uuid.UUID, reply string) (domain.ContactMessage, error) {
			assert.Equal(t, staff.UserID, by)
			return domain.ContactMessage{ID: id, UserID: sender, Subject: "Bus permit", Reply: reply, RepliedBy: &by}, nil
		},
	}
	notifier := &recordingNotifier{}
	svc := service.NewContactService(messages, profilesOf(staff), notifier)

	got, err := svc.Reply(context.Background(), staff.UserID, msgID, " Form 12 ")

	require.NoError(t, err)
	assert.Equal(t, "Form 12", got.Reply)
	require.Len(t, notifier.sent, 1)
	n := notifier.sent[0]
	assert.Equal(t, sender, n.UserID)
	assert.Equal(t, domain.NotifyInfo, n.Type)
	assert.Equal(t, "Reply to: Bus permit", n.Title)
	assert.Equal(t, "Form 12", n.Body)
}

func TestContactService_ReviewerOnly(t *testing.T) {
	me := coordinator()
	svc := service.NewContactService(&mockContactRepo{}, profilesOf(me), &recordingNotifier{})

	_, _, err := svc.List(context.Background(), me.UserID, false, domain.NewPaginationParams(nil, nil))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Reply(context.Background(), me.UserID, uuid.New(), "hello")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestContactService_Reply_AlreadyAnswered(t *testing.T) {
	staff := reviewer(domain.RoleAdmin, "")
	messages := &mockContactRepo{
		reply: func(context.Context, uuid.UUID, uuid.UUID, string) (domain.ContactMessage, error) {
			return domain.ContactMessage{}, domain.ErrConflict
		},
	}
	notifier := &recordingNotifier{}
	svc := service.NewContactService(messages, profilesOf(staff), notifier)

	_, err := svc.Reply(context.Background(), staff.UserID, uuid.New(), "again")

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, notifier.sent)
}
