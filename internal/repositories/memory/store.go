// Package memory provides an in-memory implementation of every repository
// used by the services. It backs the "memory" database driver and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventmarket/internal/models"
)

// Store keeps all marketplace state behind a single lock. Ids are assigned
// sequentially per table, starting at 1.
type Store struct {
	mu sync.RWMutex

	users      map[int]models.User
	categories map[int]models.Category
	providers  map[int]models.ServiceProvider
	reviews    map[int]models.Review
	requests   map[int]models.EventRequest
	sessions   map[string]models.Session

	nextUser     int
	nextCategory int
	nextProvider int
	nextReview   int
	nextRequest  int
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int]models.User),
		categories: make(map[int]models.Category),
		providers:  make(map[int]models.ServiceProvider),
		reviews:    make(map[int]models.Review),
		requests:   make(map[int]models.EventRequest),
		sessions:   make(map[string]models.Session),
	}
}

// Ping reports the store as healthy.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Users

func (s *Store) CreateUser(ctx context.Context, user models.User, profile *models.ServiceProvider) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, models.ErrDuplicateIdentity
		}
	}
	if profile != nil {
		if _, ok := s.categories[profile.CategoryID]; !ok {
			return models.User{}, models.ErrCategoryNotFound
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.nextUser++
	user.ID = s.nextUser
	s.users[user.ID] = user

	if profile != nil {
		s.nextProvider++
		profile.ID = s.nextProvider
		profile.UserID = user.ID
		profile.Rating = 0
		profile.ReviewCount = 0
		profile.Tags = cloneTags(profile.Tags)
		s.providers[profile.ID] = copyProvider(*profile)
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, models.ErrUserNotFound
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, category models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == category.Name {
			return models.Category{}, fmt.Errorf("category %q: %w", category.Name, models.ErrDuplicateIdentity)
		}
	}
	s.nextCategory++
	category.ID = s.nextCategory
	s.categories[category.ID] = category
	return category, nil
}

func (s *Store) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (s *Store) GetCategoryByID(ctx context.Context, id int) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, models.ErrCategoryNotFound
	}
	return c, nil
}

// Providers

func (s *Store) GetProviders(ctx context.Context, filter models.ProviderFilter) ([]models.ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	providers := make([]models.ServiceProvider, 0, len(s.providers))
	for _, p := range s.providers {
		if filter.CategoryID > 0 && p.CategoryID != filter.CategoryID {
			continue
		}
		providers = append(providers, copyProvider(p))
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].ID < providers[j].ID })
	return providers, nil
}

func (s *Store) GetTopRated(ctx context.Context, limit int) ([]models.ServiceProvider, error) {
	all, err := s.GetProviders(ctx, models.ProviderFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Rating > all[j].Rating })
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *Store) GetProviderByID(ctx context.Context, id int) (models.ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return models.ServiceProvider{}, models.ErrProviderNotFound
	}
	return copyProvider(p), nil
}

func (s *Store) GetProviderByUserID(ctx context.Context, userID int) (models.ServiceProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.UserID == userID {
			return copyProvider(p), nil
		}
	}
	return models.ServiceProvider{}, models.ErrProviderNotFound
}

func (s *Store) UpdateImage(ctx context.Context, id int, imageURL string) (models.ServiceProvider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return models.ServiceProvider{}, models.ErrProviderNotFound
	}
	p.ImageURL = &imageURL
	s.providers[id] = p
	return copyProvider(p), nil
}

// Reviews

// CreateReview stores the review and recomputes the provider aggregate while
// holding the write lock, so concurrent submissions never lose updates.
func (s *Store) CreateReview(ctx context.Context, rev models.Review) (models.Review, models.RatingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[rev.ProviderID]; !ok {
		return models.Review{}, models.RatingAggregate{}, models.ErrProviderNotFound
	}
	if _, ok := s.users[rev.CustomerID]; !ok {
		return models.Review{}, models.RatingAggregate{}, models.ErrUserNotFound
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	s.nextReview++
	rev.ID = s.nextReview
	s.reviews[rev.ID] = rev
	return rev, s.refreshRating(rev.ProviderID), nil
}

func (s *Store) RecomputeRating(ctx context.Context, providerID int) (models.RatingAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[providerID]; !ok {
		return models.RatingAggregate{}, models.ErrProviderNotFound
	}
	return s.refreshRating(providerID), nil
}

// refreshRating must be called with the write lock held.
func (s *Store) refreshRating(providerID int) models.RatingAggregate {
	var (
		agg models.RatingAggregate
		sum int
	)
	for _, rev := range s.reviews {
		if rev.ProviderID == providerID {
			agg.Count++
			sum += rev.Rating
		}
	}
	if agg.Count > 0 {
		agg.Average = float64(sum) / float64(agg.Count)
	}
	p := s.providers[providerID]
	p.Rating = agg.Average
	p.ReviewCount = agg.Count
	s.providers[providerID] = p
	return agg
}

func (s *Store) GetReviewsByProvider(ctx context.Context, providerID int) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reviews := []models.Review{}
	for _, rev := range s.reviews {
		if rev.ProviderID == providerID {
			reviews = append(reviews, rev)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
	return reviews, nil
}

// Event requests

func (s *Store) CreateEventRequest(ctx context.Context, req models.EventRequest) (models.EventRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[req.ProviderID]; !ok {
		return models.EventRequest{}, models.ErrProviderNotFound
	}
	if _, ok := s.categories[req.CategoryID]; !ok {
		return models.EventRequest{}, models.ErrCategoryNotFound
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	s.nextRequest++
	req.ID = s.nextRequest
	s.requests[req.ID] = req
	return req, nil
}

func (s *Store) GetEventRequestByID(ctx context.Context, id int) (models.EventRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return models.EventRequest{}, models.ErrRequestNotFound
	}
	return req, nil
}

func (s *Store) GetEventRequestsByCustomer(ctx context.Context, customerID int) ([]models.EventRequest, error) {
	return s.listRequests(func(r models.EventRequest) bool { return r.CustomerID == customerID }), nil
}

func (s *Store) GetEventRequestsByProvider(ctx context.Context, providerID int) ([]models.EventRequest, error) {
	return s.listRequests(func(r models.EventRequest) bool { return r.ProviderID == providerID }), nil
}

// UpdateStatus is a compare-and-set on the request status.
func (s *Store) UpdateStatus(ctx context.Context, id int, from, to string) (models.EventRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return models.EventRequest{}, models.ErrRequestNotFound
	}
	if req.Status != from {
		return models.EventRequest{}, fmt.Errorf("%w: request %d is %s", models.ErrInvalidTransition, id, req.Status)
	}
	req.Status = to
	s.requests[id] = req
	return req, nil
}

func (s *Store) listRequests(match func(models.EventRequest) bool) []models.EventRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	requests := []models.EventRequest{}
	for _, r := range s.requests {
		if match(r) {
			requests = append(requests, r)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })
	return requests
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	s.sessions[session.Token] = session
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return session, nil
}

func (s *Store) TouchSession(ctx context.Context, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[token]; ok {
		session.ExpiresAt = expiresAt
		s.sessions[token] = session
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

func copyProvider(p models.ServiceProvider) models.ServiceProvider {
	p.Tags = cloneTags(p.Tags)
	if p.ImageURL != nil {
		url := *p.ImageURL
		p.ImageURL = &url
	}
	return p
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
