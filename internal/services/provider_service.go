package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"eventmarket/internal/models"
)

const (
	DefaultTopRatedLimit = 3
	MaxImageSize         = 5 << 20
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var ErrImageStoreDisabled = fmt.Errorf("%w: image uploads are not configured", models.ErrNotFound)

type ProviderService struct {
	ProviderRepo ProviderStore
	Images       ImageStore
}

func (s *ProviderService) GetProviders(ctx context.Context, filter models.ProviderFilter) ([]models.ServiceProvider, error) {
	if filter.CategoryID < 0 {
		return nil, models.NewValidationError("categoryId", "must be a positive integer")
	}
	return s.ProviderRepo.GetProviders(ctx, filter)
}

func (s *ProviderService) GetProviderByID(ctx context.Context, id int) (models.ServiceProvider, error) {
	return s.ProviderRepo.GetProviderByID(ctx, id)
}

func (s *ProviderService) GetProviderByUserID(ctx context.Context, userID int) (models.ServiceProvider, error) {
	return s.ProviderRepo.GetProviderByUserID(ctx, userID)
}

// GetTopRated returns the best rated providers. Ties keep insertion order.
func (s *ProviderService) GetTopRated(ctx context.Context, limit int) ([]models.ServiceProvider, error) {
	if limit < 1 {
		return nil, models.NewValidationError("limit", "must be at least 1")
	}
	return s.ProviderRepo.GetTopRated(ctx, limit)
}

// UpdateImage stores a new profile image for the actor's provider profile.
func (s *ProviderService) UpdateImage(ctx context.Context, actor models.User, data []byte) (models.ServiceProvider, error) {
	if actor.Role != models.RoleProvider {
		return models.ServiceProvider{}, fmt.Errorf("%w: only providers have a profile image", models.ErrForbidden)
	}
	if s.Images == nil {
		return models.ServiceProvider{}, ErrImageStoreDisabled
	}
	if len(data) == 0 {
		return models.ServiceProvider{}, models.NewValidationError("image", "is required")
	}
	if len(data) > MaxImageSize {
		return models.ServiceProvider{}, models.NewValidationError("image", "must be at most 5 MiB")
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return models.ServiceProvider{}, models.NewValidationError("image", "must be a JPEG, PNG, GIF or WebP image")
	}

	profile, err := s.ProviderRepo.GetProviderByUserID(ctx, actor.ID)
	if err != nil {
		return models.ServiceProvider{}, err
	}
	key := fmt.Sprintf("providers/%d/%s%s", profile.ID, uuid.NewString(), ext)
	url, err := s.Images.Save(ctx, key, contentType, data)
	if err != nil {
		return models.ServiceProvider{}, fmt.Errorf("store image: %w", err)
	}
	return s.ProviderRepo.UpdateImage(ctx, profile.ID, url)
}
