package services

import (
	"context"
	"fmt"
	"time"

	"eventmarket/internal/models"
)

type ReviewService struct {
	ReviewsRepo ReviewStore
	Metrics     Recorder
	Now         func() time.Time
}

// SubmitReview records a customer's review and returns it together with the
// provider's recomputed aggregate.
func (s *ReviewService) SubmitReview(ctx context.Context, actor models.User, req models.CreateReviewRequest) (models.Review, models.RatingAggregate, error) {
	if actor.Role != models.RoleCustomer {
		return models.Review{}, models.RatingAggregate{}, fmt.Errorf("%w: only customers can leave reviews", models.ErrForbidden)
	}
	if err := validateStruct(req); err != nil {
		return models.Review{}, models.RatingAggregate{}, err
	}

	rev, agg, err := s.ReviewsRepo.CreateReview(ctx, models.Review{
		CustomerID: actor.ID,
		ProviderID: req.ProviderID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		CreatedAt:  nowUTC(s.Now),
	})
	if err != nil {
		return models.Review{}, models.RatingAggregate{}, err
	}
	s.metrics().ReviewSubmitted(rev.Rating)
	return rev, agg, nil
}

func (s *ReviewService) GetReviewsByProvider(ctx context.Context, providerID int) ([]models.Review, error) {
	return s.ReviewsRepo.GetReviewsByProvider(ctx, providerID)
}

// RecomputeRating rebuilds a provider's rating and review count from its
// stored reviews.
func (s *ReviewService) RecomputeRating(ctx context.Context, providerID int) (models.RatingAggregate, error) {
	return s.ReviewsRepo.RecomputeRating(ctx, providerID)
}

func (s *ReviewService) metrics() Recorder {
	if s.Metrics == nil {
		return nopRecorder{}
	}
	return s.Metrics
}
