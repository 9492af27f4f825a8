package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"eventmarket/internal/config"
	"eventmarket/internal/repositories"
)

type rootOptions struct {
	configPath string
	driver     string
	dsn        string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "marketctl",
		Short: "Administer the eventmarket database",
		Long: `marketctl manages the eventmarket database outside the server.

Connection settings come from the server's YAML config and environment
(DATABASE_DRIVER, DATABASE_URL) unless --driver and --db are given.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "database driver: mysql or pgx")
	cmd.PersistentFlags().StringVar(&opts.dsn, "db", "", "database connection URL")

	cmd.AddCommand(newSchemaCmd(opts), newSeedCmd(opts), newRatingsCmd(opts), newHashPasswordCmd())
	return cmd
}

// database resolves the driver and DSN from flags over config.
func (o *rootOptions) database() (string, string, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return "", "", err
	}
	driver, dsn := cfg.Database.Driver, cfg.Database.URL
	if o.driver != "" {
		driver = o.driver
	}
	if o.dsn != "" {
		dsn = o.dsn
	}
	switch driver {
	case "mysql", "pgx":
	default:
		return "", "", fmt.Errorf("driver %q is not a SQL database; use --driver mysql or --driver pgx", driver)
	}
	if dsn == "" {
		return "", "", fmt.Errorf("no database URL; set --db or DATABASE_URL")
	}
	return driver, dsn, nil
}

func (o *rootOptions) open(ctx context.Context) (*sql.DB, repositories.Dialect, error) {
	driver, dsn, err := o.database()
	if err != nil {
		return nil, repositories.Dialect{}, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, repositories.Dialect{}, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, repositories.Dialect{}, fmt.Errorf("connect %s: %w", driver, err)
	}
	return db, repositories.NewDialect(driver), nil
}
