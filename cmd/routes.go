package main

import (
	"fmt"
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"eventmarket/internal/handlers"
	"eventmarket/internal/models"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.metrics.InstrumentHandler, app.logRequest, secureHeaders)
	apiMiddleware := standardMiddleware.Append(app.csrf, makeResponseJSON)
	authMiddleware := apiMiddleware.Append(app.requireSession)
	customerMiddleware := authMiddleware.Append(app.requireRole(models.RoleCustomer))
	providerMiddleware := authMiddleware.Append(app.requireRole(models.RoleProvider))

	mux := pat.New()
	mux.NotFound = apiMiddleware.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, r, fmt.Errorf("%w: no route for %s %s", models.ErrNotFound, r.Method, r.URL.Path))
	})

	// Auth
	mux.Post("/api/auth/register", apiMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/api/auth/login", apiMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Post("/api/auth/logout", apiMiddleware.Append(app.optionalSession).ThenFunc(app.userHandler.Logout))
	mux.Get("/api/auth/me", authMiddleware.ThenFunc(app.userHandler.Me))

	// Categories
	mux.Get("/api/categories", apiMiddleware.ThenFunc(app.categoryHandler.GetAllCategories))
	mux.Get("/api/categories/:id", apiMiddleware.ThenFunc(app.categoryHandler.GetCategoryByID))

	// Providers. Fixed segments must be registered before /:id.
	mux.Get("/api/providers", apiMiddleware.ThenFunc(app.providerHandler.GetProviders))
	mux.Get("/api/providers/top", apiMiddleware.ThenFunc(app.providerHandler.GetTopRated))
	mux.Get("/api/providers/category/:categoryId", apiMiddleware.ThenFunc(app.providerHandler.GetProvidersByCategory))
	mux.Get("/api/providers/user/:userId", apiMiddleware.ThenFunc(app.providerHandler.GetProviderByUserID))
	mux.Post("/api/providers/me/image", providerMiddleware.ThenFunc(app.providerHandler.UploadImage))
	mux.Get("/api/providers/:id", apiMiddleware.ThenFunc(app.providerHandler.GetProviderByID))

	// Reviews
	mux.Post("/api/reviews", customerMiddleware.ThenFunc(app.reviewHandler.CreateReview))
	mux.Get("/api/reviews/provider/:id", apiMiddleware.ThenFunc(app.reviewHandler.GetReviewsByProvider))

	// Event requests
	mux.Post("/api/requests", customerMiddleware.ThenFunc(app.eventRequestHandler.CreateEventRequest))
	mux.Get("/api/requests/customer", authMiddleware.ThenFunc(app.eventRequestHandler.GetCustomerRequests))
	mux.Get("/api/requests/provider", providerMiddleware.ThenFunc(app.eventRequestHandler.GetProviderRequests))
	mux.Add("PATCH", "/api/requests/:id/status", authMiddleware.ThenFunc(app.eventRequestHandler.UpdateStatus))

	// Realtime
	mux.Get("/ws", standardMiddleware.Append(app.requireSession).ThenFunc(app.serveWS))

	// Operations
	mux.Get("/healthz", apiMiddleware.ThenFunc(app.healthHandler.Check))
	mux.Get("/metrics", app.metrics.Handler())

	if app.config.Media.Driver == "local" {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(app.config.Media.Dir)))
		mux.Get("/uploads/", standardMiddleware.Then(files))
	}

	return mux
}
