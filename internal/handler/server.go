// Package handler implements the HTTP handlers for the trip approval API.
// All handlers are methods on Server. Methods are split into
// resource-specific files (trip.go, timeline.go, etc.) but all share the
// same Server struct so they can access its dependencies.
package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/auth"
	"github.com/tripdesk/backend/internal/catalog"
	"github.com/tripdesk/backend/internal/domain"
	"github.com/tripdesk/backend/internal/service"
)

// TripServicer defines the trip lifecycle operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type TripServicer interface {
	Get(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error)
	List(ctx context.Context, actorID uuid.UUID, f domain.TripFilter, p domain.PaginationParams) ([]domain.Trip, int64, error)
	SaveDraft(ctx context.Context, actorID uuid.UUID, in service.TripInput) (domain.Trip, error)
	SubmitNew(ctx context.Context, actorID uuid.UUID, in service.TripInput, confirm bool) (domain.Trip, error)
	Update(ctx context.Context, actorID, id uuid.UUID, in service.TripInput, confirm bool) (domain.Trip, error)
	Submit(ctx context.Context, actorID, id uuid.UUID, confirm bool) (domain.Trip, error)
	Approve(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error)
	Reject(ctx context.Context, actorID, id uuid.UUID) (domain.Trip, error)
	Cancel(ctx context.Context, actorID, id uuid.UUID, reason string) (domain.Trip, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// TimelineServicer edits single timeline entries.
type TimelineServicer interface {
	AddEntry(ctx context.Context, actorID, tripID uuid.UUID, e domain.TimelineEntry, confirm bool) (domain.Trip, time.Time, error)
	RemoveEntry(ctx context.Context, actorID, tripID, entryID uuid.UUID, confirm bool) (domain.Trip, error)
	AttachDocuments(ctx context.Context, actorID, tripID, entryID uuid.UUID, license, insurance *domain.FileRef, confirm bool) (domain.Trip, error)
}

// NotificationServicer serves the inbox and the live feed.
type NotificationServicer interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan domain.Notification, error)
}

// ProfileServicer manages profiles and account approval.
type ProfileServicer interface {
	Me(ctx context.Context, userID uuid.UUID) (domain.User, domain.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in service.ProfileInput) (domain.Profile, error)
	ListProfiles(ctx context.Context, actorID uuid.UUID, status domain.ApprovalStatus, p domain.PaginationParams) ([]domain.Profile, int64, error)
	SetApproval(ctx context.Context, actorID, userID uuid.UUID, status domain.ApprovalStatus) (domain.Profile, error)
}

// AuthServicer signs users up and in.
type AuthServicer interface {
	SignUp(ctx context.Context, in service.SignUpInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	UpdateCredentials(ctx context.Context, userID uuid.UUID, in service.CredentialsInput) (domain.User, error)
}

// ContactServicer carries messages to headquarters.
type ContactServicer interface {
	Send(ctx context.Context, userID uuid.UUID, subject, body string) (domain.ContactMessage, error)
	List(ctx context.Context, actorID uuid.UUID, unansweredOnly bool, p domain.PaginationParams) ([]domain.ContactMessage, int64, error)
	Reply(ctx context.Context, actorID, id uuid.UUID, reply string) (domain.ContactMessage, error)
}

// ExportServicer produces the reviewer export.
type ExportServicer interface {
	Export(ctx context.Context, actorID uuid.UUID, f domain.TripFilter) ([]domain.ExportRow, error)
}

// Uploader stores uploaded documents. *blob.Store satisfies it.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (domain.FileRef, error)
}

// Services groups the dependencies of Server. Nil members are allowed in
// tests that do not reach them.
type Services struct {
	Trips         TripServicer
	Timeline      TimelineServicer
	Notifications NotificationServicer
	Profiles      ProfileServicer
	Auth          AuthServicer
	Contact       ContactServicer
	Export        ExportServicer
	Uploads       Uploader
	Catalog       *catalog.Catalog
}

// Server holds the handler dependencies.
type Server struct {
	Services
	validate *validator.Validate
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services) *Server {
	return &Server{Services: svc, validate: newValidator()}
}

// Routes mounts every endpoint on r. Everything except health, sign-up,
// login and the catalog requires a bearer token verified by v.
func (s *Server) Routes(r chi.Router, v auth.Verifier) {
	r.Get("/healthz", s.GetHealth)
	r.Get("/catalog", s.GetCatalog)
	r.Post("/auth/signup", s.SignUp)
	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(v))

		r.Get("/me", s.GetMe)
		r.Put("/me", s.UpdateMe)

		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateDraft)
			r.Post("/submit", s.SubmitNewTrip)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Put("/", s.UpdateTrip)
				r.Delete("/", s.DeleteTrip)
				r.Post("/submit", s.SubmitTrip)
				r.Post("/cancel", s.CancelTrip)
				r.With(auth.RequireRole(reviewerRoles...)).Post("/approve", s.ApproveTrip)
				r.With(auth.RequireRole(reviewerRoles...)).Post("/reject", s.RejectTrip)
				r.Post("/timeline", s.AddTimelineEntry)
				r.Delete("/timeline/{entryId}", s.RemoveTimelineEntry)
				r.Put("/timeline/{entryId}/documents", s.AttachDocuments)
			})
		})

		r.Post("/uploads", s.Upload)
		r.With(auth.RequireRole(reviewerRoles...)).Get("/export", s.GetExport)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.ListNotifications)
			r.Get("/stream", s.StreamNotifications)
			r.Post("/read-all", s.MarkAllNotificationsRead)
			r.Post("/{id}/read", s.MarkNotificationRead)
			r.Delete("/{id}", s.DeleteNotification)
		})

		r.Post("/contact", s.SendContactMessage)
		r.With(auth.RequireRole(reviewerRoles...)).Get("/contact", s.ListContactMessages)
		r.With(auth.RequireRole(reviewerRoles...)).Post("/contact/{id}/reply", s.ReplyContactMessage)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(string(domain.RoleAdmin)))
			r.Get("/profiles", s.ListProfiles)
			r.Post("/profiles/{id}/approval", s.SetApproval)
		})
	})
}

// reviewerRoles are the token roles allowed onto reviewer routes. The
// services re-check against the stored profile.
var reviewerRoles = []string{
	string(domain.RoleDeptStaff),
	string(domain.RoleSafetyAdmin),
	string(domain.RoleAdmin),
}

// Handler returns a chi router serving only the API routes. Used by tests
// and by main, which adds the infrastructure middleware around it.
func (s *Server) Handler(v auth.Verifier) http.Handler {
	r := chi.NewRouter()
	s.Routes(r, v)
	return r
}
