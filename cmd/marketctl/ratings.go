package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"eventmarket/internal/models"
	"eventmarket/internal/repositories"
	"eventmarket/internal/services"
)

func newRatingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Maintain provider rating aggregates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every provider's rating and review count from its reviews",
		Long: `Recompute each provider's rating and review count from the reviews
table. Use it after seeding or after editing reviews by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			return rebuildRatings(cmd.Context(), cmd.OutOrStdout(),
				&services.ProviderService{ProviderRepo: &repositories.ProviderRepository{DB: db, Dialect: dialect}},
				&services.ReviewService{ReviewsRepo: &repositories.ReviewRepository{DB: db, Dialect: dialect}},
			)
		},
	})
	return cmd
}

func rebuildRatings(ctx context.Context, out io.Writer, providers *services.ProviderService, reviews *services.ReviewService) error {
	list, err := providers.GetProviders(ctx, models.ProviderFilter{})
	if err != nil {
		return err
	}
	for _, p := range list {
		agg, err := reviews.RecomputeRating(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("provider %d: %w", p.ID, err)
		}
		fmt.Fprintf(out, "%d\t%s\t%.2f\t%d\n", p.ID, p.CompanyName, agg.Average, agg.Count)
	}
	fmt.Fprintf(out, "rebuilt %d providers\n", len(list))
	return nil
}
