package repositories

import (
	"context"
	"database/sql"
	"time"

	"eventmarket/internal/models"
)

type ReviewRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

// CreateReview inserts the review and recomputes the provider aggregate in
// the same transaction, holding the provider row lock throughout.
func (r *ReviewRepository) CreateReview(ctx context.Context, rev models.Review) (models.Review, models.RatingAggregate, error) {
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	var agg models.RatingAggregate
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := lockProvider(ctx, r.Dialect, tx, rev.ProviderID); err != nil {
			return err
		}
		id, err := r.Dialect.insert(ctx, tx, `
INSERT INTO reviews (customer_id, provider_id, rating, comment, created_at)
VALUES (?, ?, ?, ?, ?)`,
			rev.CustomerID, rev.ProviderID, rev.Rating, rev.Comment, rev.CreatedAt,
		)
		if err != nil {
			return err
		}
		rev.ID = id
		agg, err = refreshRating(ctx, r.Dialect, tx, rev.ProviderID)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Review{}, models.RatingAggregate{}, models.ErrUserNotFound
		}
		return models.Review{}, models.RatingAggregate{}, err
	}
	return rev, agg, nil
}

// RecomputeRating rebuilds a provider aggregate from its reviews.
func (r *ReviewRepository) RecomputeRating(ctx context.Context, providerID int) (models.RatingAggregate, error) {
	var agg models.RatingAggregate
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		if err := lockProvider(ctx, r.Dialect, tx, providerID); err != nil {
			return err
		}
		var err error
		agg, err = refreshRating(ctx, r.Dialect, tx, providerID)
		return err
	})
	return agg, err
}

func (r *ReviewRepository) GetReviewsByProvider(ctx context.Context, providerID int) ([]models.Review, error) {
	rows, err := r.Dialect.query(ctx, r.DB, `
SELECT id, customer_id, provider_id, rating, comment, created_at
FROM reviews
WHERE provider_id = ?
ORDER BY created_at DESC, id DESC`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rev models.Review
		var comment sql.NullString
		if err := rows.Scan(&rev.ID, &rev.CustomerID, &rev.ProviderID, &rev.Rating, &comment, &rev.CreatedAt); err != nil {
			return nil, err
		}
		rev.Comment = comment.String
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}
