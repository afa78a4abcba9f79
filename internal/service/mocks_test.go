package service_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/realtime"
	"github.com/tripdesk/backend/internal/repo"
	"github.com/tripdesk/backend/internal/service"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs. Calling an unset field panics, which flags an
// unexpected repo call.

type mockTripRepo struct {
	create       func(ctx context.Context, t domain.Trip) (domain.Trip, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listPaged    func(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	list         func(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error)
	update       func(ctx context.Context, t domain.Trip, from domain.TripStatus) (domain.Trip, error)
	updateStatus func(ctx context.Context, id uuid.UUID, from, to domain.TripStatus) (domain.Trip, error)
	cancel       func(ctx context.Context, id uuid.UUID, from domain.TripStatus, reason string) (domain.Trip, error)
	delete       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTripRepo) Create(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	return m.create(ctx, t)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListPaged(ctx context.Context, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockTripRepo) List(ctx context.Context, f domain.TripFilter) ([]domain.Trip, error) {
	return m.list(ctx, f)
}
func (m *mockTripRepo) Update(ctx context.Context, t domain.Trip, from domain.TripStatus) (domain.Trip, error) {
	return m.update(ctx, t, from)
}
func (m *mockTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.TripStatus) (domain.Trip, error) {
	return m.updateStatus(ctx, id, from, to)
}
func (m *mockTripRepo) Cancel(ctx context.Context, id uuid.UUID, from domain.TripStatus, reason string) (domain.Trip, error) {
	return m.cancel(ctx, id, from, reason)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockProfileRepo struct {
	upsert          func(ctx context.Context, p domain.Profile) (domain.Profile, error)
	get             func(ctx context.Context, userID uuid.UUID) (domain.Profile, error)
	listPaged       func(ctx context.Context, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error)
	setApproval     func(ctx context.Context, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error)
	listReviewerIDs func(ctx context.Context, department string) ([]uuid.UUID, error)
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return m.upsert(ctx, p)
}
func (m *mockProfileRepo) Get(ctx context.Context, userID uuid.UUID) (domain.Profile, error) {
	return m.get(ctx, userID)
}
func (m *mockProfileRepo) ListPaged(ctx context.Context, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error) {
	return m.listPaged(ctx, status, p)
}
func (m *mockProfileRepo) SetApproval(ctx context.Context, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error) {
	return m.setApproval(ctx, userID, status)
}
func (m *mockProfileRepo) ListReviewerIDs(ctx context.Context, department string) ([]uuid.UUID, error) {
	return m.listReviewerIDs(ctx, department)
}

var _ repo.ProfileRepo = (*mockProfileRepo)(nil)

// profilesOf serves Get from a fixed set of profiles.
func profilesOf(ps ...domain.Profile) *mockProfileRepo {
	byID := map[uuid.UUID]domain.Profile{}
	for _, p := range ps {
		byID[p.UserID] = p
	}
	return &mockProfileRepo{
		get: func(_ context.Context, id uuid.UUID) (domain.Profile, error) {
			p, ok := byID[id]
			if !ok {
				return domain.Profile{}, domain.ErrNotFound
			}
			return p, nil
		},
	}
}

type mockUserRepo struct {
	create            func(ctx context.Context, email, hash string) (domain.User, error)
	getByEmail        func(ctx context.Context, email string) (domain.User, error)
	getByID           func(ctx context.Context, id uuid.UUID) (domain.User, error)
	updateCredentials func(ctx context.Context, id uuid.UUID, email, hash string) (domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, email, hash string) (domain.User, error) {
	return m.create(ctx, email, hash)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return m.getByID(ctx, id)
}
func (m *mockUserRepo) UpdateCredentials(ctx context.Context, id uuid.UUID, email, hash string) (domain.User, error) {
	return m.updateCredentials(ctx, id, email, hash)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

type mockNotificationRepo struct {
	create      func(ctx context.Context, n domain.Notification) (domain.Notification, error)
	listByUser  func(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	markRead    func(ctx context.Context, userID, id uuid.UUID) error
	markAllRead func(ctx context.Context, userID uuid.UUID) (int64, error)
	delete      func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	return m.create(ctx, n)
}
func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	return m.listByUser(ctx, userID, unreadOnly, limit)
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return m.markRead(ctx, userID, id)
}
func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return m.markAllRead(ctx, userID)
}
func (m *mockNotificationRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.delete(ctx, userID, id)
}

var _ repo.NotificationRepo = (*mockNotificationRepo)(nil)

type mockContactRepo struct {
	create    func(ctx context.Context, m domain.ContactMessage) (domain.ContactMessage, error)
	getByID   func(ctx context.Context, id uuid.UUID) (domain.ContactMessage, error)
	listPaged func(ctx context.Context, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error)
	reply     func(ctx context.Context, id, repliedBy uuid.UUID, reply string) (domain.ContactMessage, error)
}

func (m *mockContactRepo) Create(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	return m.create(ctx, msg)
}
func (m *mockContactRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ContactMessage, error) {
	return m.getByID(ctx, id)
}
func (m *mockContactRepo) ListPaged(ctx context.Context, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error) {
	return m.listPaged(ctx, unansweredOnly, p)
}
func (m *mockContactRepo) Reply(ctx context.Context, id, repliedBy uuid.UUID, reply string) (domain.ContactMessage, error) {
	return m.reply(ctx, id, repliedBy, reply)
}

var _ repo.ContactRepo = (*mockContactRepo)(nil)

// recordingNotifier keeps every notification it is asked to send.
type recordingNotifier struct {
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) (domain.Notification, error) {
	if n.err != nil {
		return domain.Notification{}, n.err
	}
	n.sent = append(n.sent, msg)
	return msg, nil
}

var _ service.Notifier = (*recordingNotifier)(nil)

// recordingRecorder keeps every metric event.
type recordingRecorder struct {
	transitions []string
	gates       []string
}

func (r *recordingRecorder) Transition(from, to string) {
	r.transitions = append(r.transitions, from+"->"+to)
}
func (r *recordingRecorder) GateFailure(gate string) {
	r.gates = append(r.gates, gate)
}

var _ service.Recorder = (*recordingRecorder)(nil)

type mockBroker struct {
	publish   func(ctx context.Context, n domain.Notification) error
	subscribe func(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error)
}

func (m *mockBroker) Publish(ctx context.Context, n domain.Notification) error {
	return m.publish(ctx, n)
}
func (m *mockBroker) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error) {
	return m.subscribe(ctx, userID)
}
func (m *mockBroker) Close() error { return nil }

var _ realtime.Broker = (*mockBroker)(nil)

type stubIssuer struct{}

func (stubIssuer) Issue(userID uuid.UUID, role domain.Role) (string, time.Time, error) {
	return "token-" + string(role), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

var _ service.TokenIssuer = stubIssuer{}
