package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventmarket/internal/repositories"
	"eventmarket/internal/seed"
	"eventmarket/internal/services"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var applySchema bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo categories, providers, reviews and requests",
		Long: `Load the demo marketplace into an empty database. Nothing is written
when the users table already has rows.

Demo accounts "customer" and "provider" use the password "password".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if applySchema {
				if err := repositories.ApplySchema(cmd.Context(), db, dialect); err != nil {
					return err
				}
			}

			loaded, err := seed.Load(cmd.Context(), seed.Stores{
				Users:      &repositories.UserRepository{DB: db, Dialect: dialect},
				Categories: &repositories.CategoryRepository{DB: db, Dialect: dialect},
				Reviews:    &repositories.ReviewRepository{DB: db, Dialect: dialect},
				Requests:   &repositories.EventRequestRepository{DB: db, Dialect: dialect},
			}, services.BcryptHasher{})
			if err != nil {
				return err
			}
			if !loaded {
				fmt.Fprintln(cmd.OutOrStdout(), "database already has users, skipping seed")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "demo data loaded")
			return nil
		},
	}
	cmd.Flags().BoolVar(&applySchema, "apply-schema", false, "apply the schema before seeding")
	return cmd
}
