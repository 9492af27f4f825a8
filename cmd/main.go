package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"eventmarket/internal/config"
	"eventmarket/internal/media"
	"eventmarket/internal/observability"
	"eventmarket/internal/repositories"
	"eventmarket/internal/repositories/memory"
	"eventmarket/internal/seed"
	"eventmarket/internal/services"
	"eventmarket/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: loading .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	addr := flag.String("addr", "", "HTTP network address, overrides the config")
	migrate := flag.Bool("migrate", false, "apply the database schema before serving")
	demo := flag.Bool("seed", false, "load demo data into an empty store")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := observability.NewLogger("eventmarket", cfg.Server.Env)
	if err := run(cfg, logger, *migrate, *demo); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, logger zerolog.Logger, migrate, demo bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStores, err := openStores(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer closeStores()

	images, err := openImageStore(cfg)
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}

	app, err := initializeApp(cfg, logger, st, images)
	if err != nil {
		return err
	}

	if demo {
		loaded, err := seed.Load(ctx, seed.Stores{
			Users:      st.users,
			Categories: st.categories,
			Reviews:    st.reviews,
			Requests:   st.requests,
		}, services.BcryptHasher{})
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info().Bool("loaded", loaded).Msg("demo data")
	}

	go app.hub.Run(ctx)
	startSessionCleaner(ctx, app.userService, cfg.Session.PurgeEvery, logger)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		ErrorLog:     log.New(observability.StdLogWriter{Logger: logger}, "", 0),
		Handler:      c.Handler(app.routes()),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Address).
			Str("database", cfg.Database.Driver).
			Str("sessions", cfg.Session.Store).
			Str("media", cfg.Media.Driver).
			Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores picks the persistence backends named by the config. The
// returned func releases whatever was opened.
func openStores(ctx context.Context, cfg config.Config, logger zerolog.Logger, migrate bool) (stores, func(), error) {
	var (
		st      stores
		closers []func()
		db      *sql.DB
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch cfg.Database.Driver {
	case "memory":
		st = memoryStores(memory.NewStore())
	default:
		var err error
		db, err = openDB(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return stores{}, nil, fmt.Errorf("open database: %w", err)
		}
		closers = append(closers, func() { db.Close() })

		dialect := repositories.NewDialect(cfg.Database.Driver)
		if migrate {
			if err := repositories.ApplySchema(ctx, db, dialect); err != nil {
				closeAll()
				return stores{}, nil, fmt.Errorf("apply schema: %w", err)
			}
			logger.Info().Msg("schema applied")
		}
		st = sqlStores(db, dialect)
	}

	switch cfg.Session.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { rdb.Close() })
		redisStore := session.NewRedisStore(rdb)
		if err := redisStore.Ping(ctx); err != nil {
			closeAll()
			return stores{}, nil, fmt.Errorf("connect redis: %w", err)
		}
		st.sessions = redisStore
		st.checks["redis"] = redisStore
	case "sql":
		// sqlStores already keeps sessions in the database.
	case "memory":
		if _, ok := st.sessions.(*memory.Store); !ok {
			st.sessions = memory.NewStore()
		}
	}

	return st, closeAll, nil
}

// openImageStore returns nil when uploads are disabled.
func openImageStore(cfg config.Config) (services.ImageStore, error) {
	switch cfg.Media.Driver {
	case "local":
		return media.NewLocalStore(cfg.Media.Dir, cfg.Media.BaseURL)
	case "s3":
		return media.NewS3Store(media.S3Config{
			Bucket:    cfg.Media.Bucket,
			Region:    cfg.Media.Region,
			Endpoint:  cfg.Media.Endpoint,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			PublicURL: cfg.Media.PublicURL,
		})
	}
	return nil, nil
}
