package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventmarket/internal/repositories"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect or apply the database schema",
	}

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, dialect, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repositories.ApplySchema(cmd.Context(), db, dialect); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the schema for a driver without connecting",
		Long: `Print the DDL statements for the selected driver.

Examples:
  marketctl schema print --driver pgx
  marketctl schema print --driver mysql > schema.sql`,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver := opts.driver
			if driver == "" {
				driver = "mysql"
			}
			stmts, err := repositories.SchemaStatements(repositories.NewDialect(driver))
			if err != nil {
				return err
			}
			for _, stmt := range stmts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}

	cmd.AddCommand(apply, printCmd)
	return cmd
}
