package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"eventmarket/internal/config"
	"eventmarket/internal/handlers"
	"eventmarket/internal/metrics"
	"eventmarket/internal/realtime"
	"eventmarket/internal/repositories"
	"eventmarket/internal/repositories/memory"
	"eventmarket/internal/services"
	"eventmarket/utils"
)

type application struct {
	logger  zerolog.Logger
	config  config.Config
	cookies *handlers.CookieHelper
	metrics *metrics.Metrics
	hub     *realtime.Hub

	userService *services.UserService

	userHandler         *handlers.UserHandler
	categoryHandler     *handlers.CategoryHandler
	providerHandler     *handlers.ProviderHandler
	reviewHandler       *handlers.ReviewHandler
	eventRequestHandler *handlers.EventRequestHandler
	healthHandler       *handlers.HealthHandler
}

// stores groups the persistence backends the services run on.
type stores struct {
	users      services.UserStore
	sessions   services.SessionStore
	categories services.CategoryStore
	providers  services.ProviderStore
	reviews    services.ReviewStore
	requests   services.EventRequestStore
	checks     map[string]handlers.Pinger
}

func sqlStores(db *sql.DB, dialect repositories.Dialect) stores {
	return stores{
		users:      &repositories.UserRepository{DB: db, Dialect: dialect},
		sessions:   &repositories.SessionRepository{DB: db, Dialect: dialect},
		categories: &repositories.CategoryRepository{DB: db, Dialect: dialect},
		providers:  &repositories.ProviderRepository{DB: db, Dialect: dialect},
		reviews:    &repositories.ReviewRepository{DB: db, Dialect: dialect},
		requests:   &repositories.EventRequestRepository{DB: db, Dialect: dialect},
		checks:     map[string]handlers.Pinger{"database": dbPinger{db}},
	}
}

func memoryStores(store *memory.Store) stores {
	return stores{
		users:      store,
		sessions:   store,
		categories: store,
		providers:  store,
		reviews:    store,
		requests:   store,
		checks:     map[string]handlers.Pinger{"database": store},
	}
}

type dbPinger struct {
	db *sql.DB
}

func (p dbPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// initializeApp wires services and handlers over st. images may be nil when
// uploads are disabled.
func initializeApp(cfg config.Config, logger zerolog.Logger, st stores, images services.ImageStore) (*application, error) {
	tokens, err := utils.NewManager(cfg.Session.Secret)
	if err != nil {
		return nil, err
	}

	app := &application{
		logger:  logger,
		config:  cfg,
		metrics: metrics.New(),
	}
	app.hub = realtime.NewHub(logger, app.checkOrigin)
	app.cookies = &handlers.CookieHelper{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		Domain: cfg.Session.CookieDomain,
		Tokens: tokens,
	}

	now := func() time.Time { return time.Now().UTC() }

	app.userService = &services.UserService{
		UserRepo:     st.users,
		SessionRepo:  st.sessions,
		CategoryRepo: st.categories,
		SessionTTL:   cfg.Session.TTL,
		Now:          now,
	}
	categoryService := &services.CategoryService{CategoryRepo: st.categories}
	providerService := &services.ProviderService{ProviderRepo: st.providers, Images: images}
	reviewService := &services.ReviewService{ReviewsRepo: st.reviews, Metrics: app.metrics, Now: now}
	eventRequestService := &services.EventRequestService{
		RequestRepo:  st.requests,
		ProviderRepo: st.providers,
		CategoryRepo: st.categories,
		Notifier:     app.hub,
		Metrics:      app.metrics,
		Now:          now,
	}

	app.userHandler = &handlers.UserHandler{Service: app.userService, Cookies: app.cookies}
	app.categoryHandler = &handlers.CategoryHandler{Service: categoryService}
	app.providerHandler = &handlers.ProviderHandler{Service: providerService}
	app.reviewHandler = &handlers.ReviewHandler{Service: reviewService}
	app.eventRequestHandler = &handlers.EventRequestHandler{Service: eventRequestService}
	app.healthHandler = &handlers.HealthHandler{Checks: st.checks}

	return app, nil
}

// openDB opens and pings a database for one of the supported drivers.
func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxIdleConns(35)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
