package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eventmarket/internal/models"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher hashes with bcrypt. A zero Cost means bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.NewValidationError("password", "must be at most 72 bytes")
		}
		return "", err
	}
	return string(hash), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type UserService struct {
	UserRepo     UserStore
	SessionRepo  SessionStore
	CategoryRepo CategoryStore
	Hasher       PasswordHasher
	SessionTTL   time.Duration
	Now          func() time.Time
}

func (s *UserService) ttl() time.Duration {
	if s.SessionTTL <= 0 {
		return DefaultSessionTTL
	}
	return s.SessionTTL
}

func (s *UserService) hasher() PasswordHasher {
	if s.Hasher == nil {
		return BcryptHasher{}
	}
	return s.Hasher
}

func (s *UserService) Register(ctx context.Context, req models.SignUpRequest) (models.SignUpResponse, error) {
	err := validateStruct(req)
	if err != nil && !errors.Is(err, models.ErrInvalidInput) {
		return models.SignUpResponse{}, err
	}
	if req.Role == models.RoleProvider {
		if len([]rune(req.CompanyName)) < 2 {
			err = mergeFields(err, "companyName", "must be at least 2 characters")
		}
		if req.CategoryID <= 0 {
			err = mergeFields(err, "categoryId", "is required")
		}
	}
	if err != nil {
		return models.SignUpResponse{}, err
	}

	if req.Role == models.RoleProvider {
		if _, err := s.CategoryRepo.GetCategoryByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.SignUpResponse{}, models.NewValidationError("categoryId", "unknown category")
			}
			return models.SignUpResponse{}, err
		}
	}

	if err := s.ensureUnique(ctx, req.Username, req.Email); err != nil {
		return models.SignUpResponse{}, err
	}

	hash, err := s.hasher().Hash(req.Password)
	if err != nil {
		return models.SignUpResponse{}, err
	}

	user := models.User{
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		Role:      req.Role,
		Password:  hash,
		Phone:     req.Phone,
		Bio:       req.Bio,
		CreatedAt: nowUTC(s.Now),
	}

	var profile *models.ServiceProvider
	if req.Role == models.RoleProvider {
		profile = &models.ServiceProvider{
			CompanyName: req.CompanyName,
			Description: req.Description,
			Location:    req.Location,
			Experience:  req.Experience,
			ContactInfo: req.ContactInfo,
			CategoryID:  req.CategoryID,
			Tags:        nonNilTags(req.Tags),
		}
	}

	created, err := s.UserRepo.CreateUser(ctx, user, profile)
	if err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			return models.SignUpResponse{}, models.NewValidationError("categoryId", "unknown category")
		}
		return models.SignUpResponse{}, err
	}
	return models.SignUpResponse{User: created, Provider: profile}, nil
}

// ensureUnique is a fast path; the unique indexes still decide under races.
func (s *UserService) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.UserRepo.GetUserByUsername(ctx, username); err == nil {
		return fmt.Errorf("username %q: %w", username, models.ErrDuplicateIdentity)
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	if _, err := s.UserRepo.GetUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("email %q: %w", email, models.ErrDuplicateIdentity)
	} else if !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

// Login verifies the credentials and opens a new session.
func (s *UserService) Login(ctx context.Context, req models.SignInRequest) (models.Session, models.User, error) {
	if req.Username == "" || req.Password == "" {
		return models.Session{}, models.User{}, models.ErrInvalidCredentials
	}
	user, err := s.UserRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.Session{}, models.User{}, models.ErrInvalidCredentials
		}
		return models.Session{}, models.User{}, err
	}
	if err := s.hasher().Compare(user.Password, req.Password); err != nil {
		return models.Session{}, models.User{}, models.ErrInvalidCredentials
	}

	now := nowUTC(s.Now)
	sess := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl()),
		CreatedAt: now,
	}
	if err := s.SessionRepo.CreateSession(ctx, sess); err != nil {
		return models.Session{}, models.User{}, fmt.Errorf("create session: %w", err)
	}
	return sess, user, nil
}

// CurrentUser resolves a session token without modifying the session.
func (s *UserService) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, models.ErrUnauthenticated
	}
	sess, err := s.SessionRepo.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, models.ErrUnauthenticated
		}
		return models.User{}, err
	}
	if sess.Expired(nowUTC(s.Now)) {
		return models.User{}, models.ErrUnauthenticated
	}
	user, err := s.UserRepo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.User{}, models.ErrUnauthenticated
		}
		return models.User{}, err
	}
	return user, nil
}

// Touch slides the session expiry forward and returns the new expiry.
func (s *UserService) Touch(ctx context.Context, token string) (time.Time, error) {
	expiresAt := nowUTC(s.Now).Add(s.ttl())
	if err := s.SessionRepo.TouchSession(ctx, token, expiresAt); err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.SessionRepo.DeleteSession(ctx, token); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}
	return nil
}

func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.SessionRepo.PurgeExpired(ctx, nowUTC(s.Now))
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
