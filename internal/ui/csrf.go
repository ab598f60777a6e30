package ui

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Double-submit CSRF protection for the console form. The token lives in a
// cookie scoped to /ui and is echoed back as a form field or header.
const (
	csrfCookieName = "ui_csrf"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfTokenBytes = 32
)

type csrfContextKey struct{}

// EnsureCSRFToken issues the token cookie when the browser has none and
// makes the token available to the page renderers.
func (h *Handler) EnsureCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := cookieToken(r)
		if token == "" {
			token = newCSRFToken()
			http.SetCookie(w, &http.Cookie{
				Name:     csrfCookieName,
				Value:    token,
				Path:     "/ui",
				HttpOnly: true,
				Secure:   h.Production,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
	})
}

// RequireCSRF rejects state-changing requests whose submitted token does not
// match the cookie.
func (h *Handler) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		want := cookieToken(r)
		if want == "" {
			renderHTML(w, http.StatusForbidden, errorPage("CSRF Validation Failed", "Missing CSRF token cookie."))
			return
		}
		got := strings.TrimSpace(r.Header.Get(csrfHeader))
		if got == "" {
			got = strings.TrimSpace(r.PostFormValue(csrfFormField))
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			renderHTML(w, http.StatusForbidden, errorPage("CSRF Validation Failed", "Invalid or missing CSRF token."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// csrfField is the hidden input carrying the request's token.
func csrfField(r *http.Request) Node {
	token, ok := r.Context().Value(csrfContextKey{}).(string)
	if !ok || token == "" {
		token = cookieToken(r)
	}
	return Input(Type("hidden"), Name(csrfFormField), Value(token))
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func newCSRFToken() string {
	b := make([]byte, csrfTokenBytes)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
