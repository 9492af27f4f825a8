package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventmarket/internal/models"
)

func seedProvider(t *testing.T, s *Store) (models.User, models.ServiceProvider) {
	t.Helper()
	ctx := context.Background()
	cat, err := s.CreateCategory(ctx, models.Category{Name: "Catering"})
	require.NoError(t, err)

	profile := &models.ServiceProvider{CompanyName: "Gourmet Delights", CategoryID: cat.ID, Tags: []string{"food"}}
	user, err := s.CreateUser(ctx, models.User{Username: "chef", Email: "chef@example.com", Role: models.RoleProvider}, profile)
	require.NoError(t, err)
	return user, *profile
}

func TestCreateUserDuplicateIdentity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.CreateUser(ctx, models.User{Username: "alice", Email: "alice@example.com"}, nil)
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, models.User{Username: "alice", Email: "other@example.com"}, nil)
	require.ErrorIs(t, err, models.ErrDuplicateIdentity)
	_, err = s.CreateUser(ctx, models.User{Username: "bob", Email: "alice@example.com"}, nil)
	require.ErrorIs(t, err, models.ErrDuplicateIdentity)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateUserUnknownCategory(t *testing.T) {
	s := NewStore()
	_, err := s.CreateUser(context.Background(), models.User{Username: "p", Email: "p@example.com"},
		&models.ServiceProvider{CompanyName: "Nowhere", CategoryID: 9})
	require.ErrorIs(t, err, models.ErrCategoryNotFound)

	n, _ := s.CountUsers(context.Background())
	assert.Zero(t, n)
}

func TestConcurrentReviewsKeepAggregate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, provider := seedProvider(t, s)
	customer, err := s.CreateUser(ctx, models.User{Username: "cust", Email: "cust@example.com", Role: models.RoleCustomer}, nil)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.CreateReview(ctx, models.Review{
				CustomerID: customer.ID,
				ProviderID: provider.ID,
				Rating:     i%5 + 1,
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetProviderByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.ReviewCount)
	assert.InDelta(t, 3.0, got.Rating, 1e-9)

	reviews, err := s.GetReviewsByProvider(ctx, provider.ID)
	require.NoError(t, err)
	assert.Len(t, reviews, n)
}

func TestReviewsNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, provider := seedProvider(t, s)
	customer, err := s.CreateUser(ctx, models.User{Username: "cust", Email: "cust@example.com"}, nil)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, rating := range []int{5, 3, 4} {
		_, _, err := s.CreateReview(ctx, models.Review{
			CustomerID: customer.ID, ProviderID: provider.ID, Rating: rating, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	reviews, err := s.GetReviewsByProvider(ctx, provider.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, []int{4, 3, 5}, []int{reviews[0].Rating, reviews[1].Rating, reviews[2].Rating})
}

func TestTopRatedTieBreak(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	cat, _ := s.CreateCategory(ctx, models.Category{Name: "Photography"})
	for _, name := range []string{"a", "b", "c"} {
		_, err := s.CreateUser(ctx, models.User{Username: name, Email: name + "@example.com"},
			&models.ServiceProvider{CompanyName: name, CategoryID: cat.ID})
		require.NoError(t, err)
	}
	customer, _ := s.CreateUser(ctx, models.User{Username: "cust", Email: "cust@example.com"}, nil)
	for _, id := range []int{1, 2, 3} {
		_, _, err := s.CreateReview(ctx, models.Review{CustomerID: customer.ID, ProviderID: id, Rating: 4})
		require.NoError(t, err)
	}

	top, err := s.GetTopRated(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 1, top[0].ID)
	assert.Equal(t, 2, top[1].ID)
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, provider := seedProvider(t, s)

	req, err := s.CreateEventRequest(ctx, models.EventRequest{
		CustomerID: 10, ProviderID: provider.ID, CategoryID: provider.CategoryID, Title: "Gala", Status: "pending",
	})
	require.NoError(t, err)

	updated, err := s.UpdateStatus(ctx, req.ID, "pending", "accepted")
	require.NoError(t, err)
	assert.Equal(t, "accepted", updated.Status)

	_, err = s.UpdateStatus(ctx, req.ID, "pending", "cancelled")
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = s.UpdateStatus(ctx, 404, "pending", "accepted")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateEventRequestUnknownReferences(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, provider := seedProvider(t, s)

	_, err := s.CreateEventRequest(ctx, models.EventRequest{ProviderID: 99, CategoryID: provider.CategoryID})
	require.ErrorIs(t, err, models.ErrProviderNotFound)
	_, err = s.CreateEventRequest(ctx, models.EventRequest{ProviderID: provider.ID, CategoryID: 99})
	require.ErrorIs(t, err, models.ErrCategoryNotFound)
}

func TestSessionsExpire(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, models.Session{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.CreateSession(ctx, models.Session{Token: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)}))

	n, err := s.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetSession(ctx, "old")
	require.ErrorIs(t, err, models.ErrSessionNotFound)

	later := now.Add(2 * time.Hour)
	require.NoError(t, s.TouchSession(ctx, "new", later))
	got, err := s.GetSession(ctx, "new")
	require.NoError(t, err)
	assert.True(t, got.ExpiresAt.Equal(later))

	require.NoError(t, s.DeleteSession(ctx, "new"))
	require.NoError(t, s.DeleteSession(ctx, "new"))
}

func TestProviderCopiesAreIsolated(t *testing.T) {
	s := NewStore()
	_, provider := seedProvider(t, s)

	got, err := s.GetProviderByID(context.Background(), provider.ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, _ := s.GetProviderByID(context.Background(), provider.ID)
	assert.Equal(t, []string{"food"}, again.Tags)
}
