package repositories

import (
	"context"
	"database/sql"
	"errors"

	"eventmarket/internal/models"
)

// lockProvider takes a row lock on the provider so that concurrent review
// inserts for it serialize on the aggregate read-modify-write.
func lockProvider(ctx context.Context, d Dialect, q querier, providerID int) error {
	var id int
	err := d.queryRow(ctx, q, `SELECT id FROM service_providers WHERE id = ? FOR UPDATE`, providerID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrProviderNotFound
	}
	return err
}

// refreshRating recomputes count and mean over all reviews of the provider
// and stores them on the provider row. The mean is computed from the integer
// sum so both drivers agree on the result.
func refreshRating(ctx context.Context, d Dialect, q querier, providerID int) (models.RatingAggregate, error) {
	var (
		agg models.RatingAggregate
		sum int64
	)
	err := d.queryRow(ctx, q,
		`SELECT COUNT(*), COALESCE(SUM(rating), 0) FROM reviews WHERE provider_id = ?`, providerID,
	).Scan(&agg.Count, &sum)
	if err != nil {
		return models.RatingAggregate{}, err
	}
	if agg.Count > 0 {
		agg.Average = float64(sum) / float64(agg.Count)
	}
	if _, err := d.exec(ctx, q,
		`UPDATE service_providers SET rating = ?, review_count = ? WHERE id = ?`,
		agg.Average, agg.Count, providerID,
	); err != nil {
		return models.RatingAggregate{}, err
	}
	return agg, nil
}
