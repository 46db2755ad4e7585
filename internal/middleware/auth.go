package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"medaware/internal/config"
)

// AuthCookie carries the operator session token.
const AuthCookie = "authenticated"

// SessionToken derives the cookie value from the operator password, so
// changing the password invalidates every issued cookie.
func SessionToken(password string) string {
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte(AuthCookie))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthMiddleware checks the operator cookie. The streaming endpoint and the
// login routes are public; streaming clients are gated by user id instead.
func AuthMiddleware(config *config.Config) func(http.Handler) http.Handler {
	token := SessionToken(config.Password)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/ws" ||
				r.URL.Path == "/login" ||
				r.URL.Path == "/healthz" ||
				strings.HasPrefix(r.URL.Path, "/auth/") {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(AuthCookie)
			if err != nil || !hmac.Equal([]byte(cookie.Value), []byte(token)) {
				// API callers get 401
				if strings.HasPrefix(r.URL.Path, "/api/") ||
					r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
					r.Header.Get("Content-Type") == "application/json" {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				// everything else is redirected to the login page
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
