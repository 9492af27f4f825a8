package handlers

import (
	"net/http"
	"time"

	"eventmarket/utils"
)

// CookieHelper manages the session cookie. The cookie carries a signed JWT
// whose subject is the opaque session token.
type CookieHelper struct {
	Name   string
	Secure bool
	Domain string
	Tokens *utils.Manager
	Now    func() time.Time
}

func (h *CookieHelper) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// SetSession writes the cookie for token, valid until expiresAt.
func (h *CookieHelper) SetSession(w http.ResponseWriter, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(h.now())
	signed, err := h.Tokens.NewJWT(token, ttl)
	if err != nil {
		return err
	}
	h.setCookie(w, signed, int(ttl.Seconds()), expiresAt)
	return nil
}

func (h *CookieHelper) ClearSession(w http.ResponseWriter) {
	h.setCookie(w, "", -1, time.Unix(0, 0))
}

// SessionToken returns the session token from the request cookie, or "" if
// the cookie is missing or its signature does not verify.
func (h *CookieHelper) SessionToken(r *http.Request) string {
	c, err := r.Cookie(h.Name)
	if err != nil || c.Value == "" {
		return ""
	}
	token, err := h.Tokens.Parse(c.Value)
	if err != nil {
		return ""
	}
	return token
}

// HasCookie reports whether the request carries the session cookie at all.
func (h *CookieHelper) HasCookie(r *http.Request) bool {
	c, err := r.Cookie(h.Name)
	return err == nil && c.Value != ""
}

func (h *CookieHelper) setCookie(w http.ResponseWriter, value string, maxAge int, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.Name,
		Value:    value,
		Path:     "/",
		Domain:   h.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   h.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
