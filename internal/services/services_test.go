package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"eventmarket/internal/fsm"
	"eventmarket/internal/models"
	"eventmarket/internal/repositories/memory"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notified
}

type notified struct {
	users []int
	event models.RequestEvent
}

func (n *recordingNotifier) Notify(userIDs []int, event models.RequestEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notified{users: userIDs, event: event})
}

type countingRecorder struct {
	mu          sync.Mutex
	created     int
	transitions []string
	reviews     []int
}

func (r *countingRecorder) RequestCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
}

func (r *countingRecorder) RequestTransitioned(from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from+"->"+to)
}

func (r *countingRecorder) ReviewSubmitted(rating int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, rating)
}

type fakeImages struct {
	keys []string
}

func (f *fakeImages) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.keys = append(f.keys, key)
	return "https://cdn.example.com/" + key, nil
}

type fixture struct {
	store    *memory.Store
	now      time.Time
	users    *UserService
	catalog  *ProviderService
	reviews  *ReviewService
	requests *EventRequestService
	notifier *recordingNotifier
	metrics  *countingRecorder
	images   *fakeImages
	category models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		now:      time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		notifier: &recordingNotifier{},
		metrics:  &countingRecorder{},
		images:   &fakeImages{},
	}
	clock := func() time.Time { return f.now }
	f.users = &UserService{
		UserRepo:     f.store,
		SessionRepo:  f.store,
		CategoryRepo: f.store,
		Hasher:       BcryptHasher{Cost: bcrypt.MinCost},
		SessionTTL:   time.Hour,
		Now:          clock,
	}
	f.catalog = &ProviderService{ProviderRepo: f.store, Images: f.images}
	f.reviews = &ReviewService{ReviewsRepo: f.store, Metrics: f.metrics, Now: clock}
	f.requests = &EventRequestService{
		RequestRepo:  f.store,
		ProviderRepo: f.store,
		CategoryRepo: f.store,
		Notifier:     f.notifier,
		Metrics:      f.metrics,
		Now:          clock,
	}

	cat, err := f.store.CreateCategory(context.Background(), models.Category{Name: "Catering", Description: "Food"})
	require.NoError(t, err)
	f.category = cat
	return f
}

func (f *fixture) customer(t *testing.T, username string) models.User {
	t.Helper()
	resp, err := f.users.Register(context.Background(), models.SignUpRequest{
		Role:     models.RoleCustomer,
		Username: username,
		Password: "password123",
		Email:    username + "@example.com",
		FullName: "Customer " + username,
	})
	require.NoError(t, err)
	return resp.User
}

func (f *fixture) provider(t *testing.T, username string) (models.User, models.ServiceProvider) {
	t.Helper()
	resp, err := f.users.Register(context.Background(), models.SignUpRequest{
		Role:        models.RoleProvider,
		Username:    username,
		Password:    "password123",
		Email:       username + "@example.com",
		FullName:    "Provider " + username,
		CompanyName: "Company " + username,
		CategoryID:  f.category.ID,
		Tags:        []string{"weddings"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Provider)
	return resp.User, *resp.Provider
}

func TestRegisterStoresHashAndProfile(t *testing.T) {
	f := newFixture(t)
	user, profile := f.provider(t, "gourmet")

	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	assert.Equal(t, models.RoleProvider, user.Role)
	assert.Equal(t, user.ID, profile.UserID)
	assert.Zero(t, profile.Rating)
	assert.Zero(t, profile.ReviewCount)

	got, err := f.catalog.GetProviderByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)
	assert.Equal(t, []string{"weddings"}, got.Tags)
}

func TestRegisterDuplicateIdentity(t *testing.T) {
	f := newFixture(t)
	first := f.customer(t, "alice")

	_, err := f.users.Register(context.Background(), models.SignUpRequest{
		Role: models.RoleCustomer, Username: "alice", Password: "secret1", Email: "new@example.com", FullName: "Alice Two",
	})
	require.ErrorIs(t, err, models.ErrDuplicateIdentity)

	_, err = f.users.Register(context.Background(), models.SignUpRequest{
		Role: models.RoleCustomer, Username: "alice2", Password: "secret1", Email: "alice@example.com", FullName: "Alice Two",
	})
	require.ErrorIs(t, err, models.ErrDuplicateIdentity)

	got, err := f.users.UserRepo.GetUserByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		req    models.SignUpRequest
		fields []string
	}{
		{
			name:   "short username and password",
			req:    models.SignUpRequest{Role: models.RoleCustomer, Username: "ab", Password: "123", Email: "a@example.com", FullName: "Ab"},
			fields: []string{"username", "password"},
		},
		{
			name:   "bad email and role",
			req:    models.SignUpRequest{Role: "admin", Username: "abc", Password: "123456", Email: "nope", FullName: "Abc"},
			fields: []string{"userType", "email"},
		},
		{
			name:   "provider without company or category",
			req:    models.SignUpRequest{Role: models.RoleProvider, Username: "prov", Password: "123456", Email: "p@example.com", FullName: "Pro"},
			fields: []string{"companyName", "categoryId"},
		},
		{
			name: "provider with unknown category",
			req: models.SignUpRequest{
				Role: models.RoleProvider, Username: "prov", Password: "123456", Email: "p@example.com", FullName: "Pro",
				CompanyName: "Pro Co", CategoryID: 99,
			},
			fields: []string{"categoryId"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, models.ErrInvalidInput)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, field := range tt.fields {
				assert.Contains(t, verr.Fields, field)
			}
		})
	}

	n, err := f.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoginAndSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.customer(t, "alice")

	_, _, err := f.users.Login(ctx, models.SignInRequest{Username: "alice", Password: "wrong-password"})
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, _, err = f.users.Login(ctx, models.SignInRequest{Username: "nobody", Password: "password123"})
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	sess, loggedIn, err := f.users.Login(ctx, models.SignInRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Len(t, sess.Token, 36)
	assert.True(t, sess.ExpiresAt.Equal(f.now.Add(time.Hour)))

	current, err := f.users.CurrentUser(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	f.now = f.now.Add(50 * time.Minute)
	_, err = f.users.Touch(ctx, sess.Token)
	require.NoError(t, err)
	f.now = f.now.Add(50 * time.Minute)
	_, err = f.users.CurrentUser(ctx, sess.Token)
	require.NoError(t, err, "touch should slide the expiry")

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.users.CurrentUser(ctx, sess.Token)
	require.ErrorIs(t, err, models.ErrUnauthenticated)

	purged, err := f.users.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = f.users.CurrentUser(ctx, "unknown")
	require.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.customer(t, "alice")

	sess, _, err := f.users.Login(ctx, models.SignInRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, f.users.Logout(ctx, sess.Token))
	require.NoError(t, f.users.Logout(ctx, sess.Token))
	require.NoError(t, f.users.Logout(ctx, ""))

	_, err = f.users.CurrentUser(ctx, sess.Token)
	require.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestSubmitReviewAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	_, profile := f.provider(t, "gourmet")

	_, agg, err := f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
		ProviderID: profile.ID, Rating: 5, Comment: "Absolutely delicious food.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RatingAggregate{Average: 5, Count: 1}, agg)

	_, agg, err = f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
		ProviderID: profile.ID, Rating: 3, Comment: "Good but arrived late.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RatingAggregate{Average: 4, Count: 2}, agg)

	got, err := f.catalog.GetProviderByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 2, got.ReviewCount)
	assert.Equal(t, []int{5, 3}, f.metrics.reviews)
}

func TestSubmitReviewRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	providerUser, profile := f.provider(t, "gourmet")

	for _, rating := range []int{0, 6, -1} {
		_, _, err := f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
			ProviderID: profile.ID, Rating: rating, Comment: "Out of range rating here.",
		})
		require.ErrorIs(t, err, models.ErrInvalidInput, "rating %d", rating)
	}

	_, _, err := f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
		ProviderID: profile.ID, Rating: 4, Comment: "short",
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, _, err = f.reviews.SubmitReview(ctx, providerUser, models.CreateReviewRequest{
		ProviderID: profile.ID, Rating: 5, Comment: "Reviewing myself is fine?",
	})
	require.ErrorIs(t, err, models.ErrForbidden)

	_, _, err = f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
		ProviderID: 999, Rating: 5, Comment: "Nobody is home here.",
	})
	require.ErrorIs(t, err, models.ErrNotFound)

	got, err := f.catalog.GetProviderByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.ReviewCount)
}

func TestConcurrentReviewSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	_, profile := f.provider(t, "gourmet")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rating := 2
			if i%2 == 0 {
				rating = 5
			}
			_, _, err := f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
				ProviderID: profile.ID, Rating: rating, Comment: "Concurrent review body.",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := f.catalog.GetProviderByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.ReviewCount)
	assert.InDelta(t, 3.5, got.Rating, 1e-9)
}

func TestTopRated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	_, a := f.provider(t, "alpha")
	_, b := f.provider(t, "bravo")
	_, c := f.provider(t, "charlie")

	for _, r := range []struct {
		provider int
		rating   int
	}{{a.ID, 4}, {a.ID, 5}, {b.ID, 3}, {c.ID, 5}} {
		_, _, err := f.reviews.SubmitReview(ctx, customer, models.CreateReviewRequest{
			ProviderID: r.provider, Rating: r.rating, Comment: "Seeded rating comment.",
		})
		require.NoError(t, err)
	}

	top, err := f.catalog.GetTopRated(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 5.0, top[0].Rating)
	assert.Equal(t, 4.5, top[1].Rating)

	_, err = f.catalog.GetTopRated(ctx, 0)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	providerUser, profile := f.provider(t, "gourmet")
	stranger := f.customer(t, "mallory")

	in := models.CreateEventRequest{
		ProviderID:  profile.ID,
		CategoryID:  f.category.ID,
		Title:       "Summer Wedding",
		Description: "Catering for 120 guests in the garden.",
		EventDate:   f.now.Add(30 * 24 * time.Hour),
	}

	_, err := f.requests.CreateEventRequest(ctx, providerUser, in)
	require.ErrorIs(t, err, models.ErrForbidden)

	req, err := f.requests.CreateEventRequest(ctx, customer, in)
	require.NoError(t, err)
	assert.Equal(t, fsm.StatusPending, req.Status)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, []int{providerUser.ID}, f.notifier.events[0].users)
	assert.Equal(t, models.EventRequestCreated, f.notifier.events[0].event.Type)

	_, err = f.requests.TransitionStatus(ctx, customer, req.ID, fsm.StatusAccepted)
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.requests.TransitionStatus(ctx, stranger, req.ID, fsm.StatusCancelled)
	require.ErrorIs(t, err, models.ErrForbidden)
	_, err = f.requests.TransitionStatus(ctx, providerUser, req.ID, "archived")
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = f.requests.TransitionStatus(ctx, providerUser, req.ID, fsm.StatusCompleted)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
	_, err = f.requests.TransitionStatus(ctx, providerUser, 999, fsm.StatusAccepted)
	require.ErrorIs(t, err, models.ErrNotFound)

	accepted, err := f.requests.TransitionStatus(ctx, providerUser, req.ID, fsm.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, fsm.StatusAccepted, accepted.Status)
	assert.Equal(t, req.Title, accepted.Title)

	completed, err := f.requests.TransitionStatus(ctx, providerUser, req.ID, fsm.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, fsm.StatusCompleted, completed.Status)

	for _, target := range []string{fsm.StatusPending, fsm.StatusAccepted, fsm.StatusCancelled} {
		_, err = f.requests.TransitionStatus(ctx, providerUser, req.ID, target)
		require.ErrorIs(t, err, models.ErrInvalidTransition, target)
	}

	assert.Equal(t, 1, f.metrics.created)
	assert.Equal(t, []string{"pending->accepted", "accepted->completed"}, f.metrics.transitions)
	last := f.notifier.events[len(f.notifier.events)-1]
	assert.ElementsMatch(t, []int{customer.ID, providerUser.ID}, last.users)
	assert.Equal(t, models.EventRequestStatusChanged, last.event.Type)

	mine, err := f.requests.GetRequestsByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	incoming, err := f.requests.GetRequestsForProviderUser(ctx, providerUser)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	_, err = f.requests.GetRequestsForProviderUser(ctx, customer)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestCustomerCancelsPendingRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	_, profile := f.provider(t, "gourmet")

	req, err := f.requests.CreateEventRequest(ctx, customer, models.CreateEventRequest{
		ProviderID: profile.ID, CategoryID: f.category.ID, Title: "Birthday",
		Description: "A small birthday dinner for ten.", EventDate: f.now.Add(time.Hour),
	})
	require.NoError(t, err)

	cancelled, err := f.requests.TransitionStatus(ctx, customer, req.ID, fsm.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, fsm.StatusCancelled, cancelled.Status)

	_, err = f.requests.TransitionStatus(ctx, customer, req.ID, fsm.StatusCancelled)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestCreateEventRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	_, profile := f.provider(t, "gourmet")

	_, err := f.requests.CreateEventRequest(ctx, customer, models.CreateEventRequest{
		ProviderID: profile.ID, CategoryID: f.category.ID, Title: "Gala",
		Description: "too short", EventDate: f.now.Add(-time.Hour),
	})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "eventDate")

	_, err = f.requests.CreateEventRequest(ctx, customer, models.CreateEventRequest{
		ProviderID: profile.ID, CategoryID: f.category.ID, Title: strings.Repeat("x", 101),
		Description: strings.Repeat("y", 20), EventDate: f.now.Add(time.Hour),
	})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.requests.CreateEventRequest(ctx, customer, models.CreateEventRequest{
		ProviderID: 404, CategoryID: f.category.ID, Title: "Company party",
		Description: "Annual party for the whole office.", EventDate: f.now.Add(time.Hour),
	})
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateProviderImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "alice")
	providerUser, profile := f.provider(t, "gourmet")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	_, err := f.catalog.UpdateImage(ctx, customer, png)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.catalog.UpdateImage(ctx, providerUser, []byte("plain text, not an image"))
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.catalog.UpdateImage(ctx, providerUser, make([]byte, MaxImageSize+1))
	require.ErrorIs(t, err, models.ErrInvalidInput)

	updated, err := f.catalog.UpdateImage(ctx, providerUser, png)
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.Equal(t, profile.ID, updated.ID)
	require.Len(t, f.images.keys, 1)
	assert.True(t, strings.HasSuffix(f.images.keys[0], ".png"))
	assert.Equal(t, "https://cdn.example.com/"+f.images.keys[0], *updated.ImageURL)
}
