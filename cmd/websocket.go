package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"eventmarket/internal/handlers"
	"eventmarket/internal/models"
)

// serveWS attaches the caller to the hub. Events for requests the user takes
// part in are pushed as JSON text frames; nothing is read from the client
// except control frames.
func (app *application) serveWS(w http.ResponseWriter, r *http.Request) {
	user, ok := handlers.UserFromContext(r.Context())
	if !ok {
		handlers.WriteError(w, r, models.ErrUnauthenticated)
		return
	}
	// Upgrade has already answered the client when it fails.
	if err := app.hub.Serve(w, r, user.ID); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Int("user_id", user.ID).Msg("websocket upgrade failed")
	}
}
