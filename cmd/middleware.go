package main

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eventmarket/internal/handlers"
	"eventmarket/internal/models"
)

func secureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

func makeResponseJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type loggedResponse struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *loggedResponse) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggedResponse) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *loggedResponse) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// logRequest puts a request-scoped logger in the context and logs one line
// per request once the handler returns.
func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := app.logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		// Upgraded connections outlive the handler and need the raw writer.
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			logger.Info().Str("remote", r.RemoteAddr).Msg("websocket upgrade")
			next.ServeHTTP(w, r)
			return
		}

		lw := &loggedResponse{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)

		evt := logger.Info()
		if lw.status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Int("status", lw.status).
			Int("bytes", lw.bytes).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.logger.Error().
					Interface("panic", err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("recovered from panic")
				handlers.WriteError(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// csrf rejects state-changing requests that carry the session cookie but
// come from an origin outside the allow list. Requests without Origin and
// Referer are not from a browser and pass through.
func (app *application) csrf(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(app.config.Server.AllowedOrigins))
	for _, origin := range app.config.Server.AllowedOrigins {
		allowed[normalizeOrigin(origin)] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if !app.cookies.HasCookie(r) {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			if ref := r.Header.Get("Referer"); ref != "" {
				origin = refererOrigin(ref)
			}
		}
		if origin != "" && !allowed[normalizeOrigin(origin)] && !sameHost(origin, r.Host) {
			zerolog.Ctx(r.Context()).Warn().Str("origin", origin).Msg("csrf check failed")
			handlers.WriteError(w, r, fmt.Errorf("%w: request origin %s is not allowed", models.ErrForbidden, origin))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin is the WebSocket upgrader's origin policy.
func (app *application) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || sameHost(origin, r.Host) {
		return true
	}
	for _, o := range app.config.Server.AllowedOrigins {
		if normalizeOrigin(o) == normalizeOrigin(origin) {
			return true
		}
	}
	return false
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

func refererOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, host) {
		return true
	}
	h, _, err := net.SplitHostPort(host)
	return err == nil && strings.EqualFold(u.Host, h)
}

// requireSession resolves the session cookie, slides its expiry and stores
// the user in the request context.
func (app *application) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := app.cookies.SessionToken(r)
		user, err := app.userService.CurrentUser(r.Context(), token)
		if err != nil {
			if app.cookies.HasCookie(r) {
				app.cookies.ClearSession(w)
			}
			handlers.WriteError(w, r, err)
			return
		}

		expiresAt, err := app.userService.Touch(r.Context(), token)
		if err != nil {
			handlers.WriteError(w, r, err)
			return
		}
		if err := app.cookies.SetSession(w, token, expiresAt); err != nil {
			handlers.WriteError(w, r, err)
			return
		}

		ctx := handlers.ContextWithUser(r.Context(), user, token)
		zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Int("user_id", user.ID)
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// optionalSession behaves like requireSession but lets anonymous requests
// through.
func (app *application) optionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := app.cookies.SessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := app.userService.CurrentUser(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), user, token)))
	})
}

// requireRole must run after requireSession.
func (app *application) requireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := handlers.UserFromContext(r.Context())
			if !ok {
				handlers.WriteError(w, r, models.ErrUnauthenticated)
				return
			}
			if user.Role != role {
				handlers.WriteError(w, r, fmt.Errorf("%w: only %ss may do this", models.ErrForbidden, role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
