package services

import (
	"context"
	"time"

	"eventmarket/internal/models"
	"eventmarket/internal/repositories"
	"eventmarket/internal/repositories/memory"
	"eventmarket/internal/session"
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User, profile *models.ServiceProvider) (models.User, error)
	GetUserByID(ctx context.Context, id int) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	GetSession(ctx context.Context, token string) (models.Session, error)
	TouchSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, category models.Category) (models.Category, error)
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id int) (models.Category, error)
}

type ProviderStore interface {
	GetProviders(ctx context.Context, filter models.ProviderFilter) ([]models.ServiceProvider, error)
	GetTopRated(ctx context.Context, limit int) ([]models.ServiceProvider, error)
	GetProviderByID(ctx context.Context, id int) (models.ServiceProvider, error)
	GetProviderByUserID(ctx context.Context, userID int) (models.ServiceProvider, error)
	UpdateImage(ctx context.Context, id int, imageURL string) (models.ServiceProvider, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, rev models.Review) (models.Review, models.RatingAggregate, error)
	RecomputeRating(ctx context.Context, providerID int) (models.RatingAggregate, error)
	GetReviewsByProvider(ctx context.Context, providerID int) ([]models.Review, error)
}

type EventRequestStore interface {
	CreateEventRequest(ctx context.Context, req models.EventRequest) (models.EventRequest, error)
	GetEventRequestByID(ctx context.Context, id int) (models.EventRequest, error)
	GetEventRequestsByCustomer(ctx context.Context, customerID int) ([]models.EventRequest, error)
	GetEventRequestsByProvider(ctx context.Context, providerID int) ([]models.EventRequest, error)
	UpdateStatus(ctx context.Context, id int, from, to string) (models.EventRequest, error)
}

// ImageStore persists uploaded provider images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Notifier delivers request lifecycle events to the given users.
type Notifier interface {
	Notify(userIDs []int, event models.RequestEvent)
}

// Recorder receives domain counters.
type Recorder interface {
	RequestCreated()
	RequestTransitioned(from, to string)
	ReviewSubmitted(rating int)
}

type nopNotifier struct{}

func (nopNotifier) Notify([]int, models.RequestEvent) {}

type nopRecorder struct{}

func (nopRecorder) RequestCreated()                     {}
func (nopRecorder) RequestTransitioned(from, to string) {}
func (nopRecorder) ReviewSubmitted(rating int)          {}

var (
	_ UserStore         = (*repositories.UserRepository)(nil)
	_ SessionStore      = (*repositories.SessionRepository)(nil)
	_ CategoryStore     = (*repositories.CategoryRepository)(nil)
	_ ProviderStore     = (*repositories.ProviderRepository)(nil)
	_ ReviewStore       = (*repositories.ReviewRepository)(nil)
	_ EventRequestStore = (*repositories.EventRequestRepository)(nil)

	_ UserStore         = (*memory.Store)(nil)
	_ SessionStore      = (*memory.Store)(nil)
	_ CategoryStore     = (*memory.Store)(nil)
	_ ProviderStore     = (*memory.Store)(nil)
	_ ReviewStore       = (*memory.Store)(nil)
	_ EventRequestStore = (*memory.Store)(nil)

	_ SessionStore = (*session.RedisStore)(nil)
)

func nowUTC(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
