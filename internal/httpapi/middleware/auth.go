package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Keys are the accepted API keys. Admin keys also pass RequireAny.
type Keys struct {
	Public []string
	Admin  []string
}

// Enabled reports whether any key is configured.
func (k Keys) Enabled() bool { return len(k.Public) > 0 || len(k.Admin) > 0 }

func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func hasKey(given string, set []string) bool {
	if given == "" {
		return false
	}
	for _, k := range set {
		if subtle.ConstantTimeCompare([]byte(k), []byte(given)) == 1 {
			return true
		}
	}
	return false
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// RequireAny allows requests that present either a public or admin key.
// With no keys configured every request passes (local dev).
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !keys.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys.Public) || hasKey(key, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			deny(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// RequireAdmin only permits admin keys: 401 without a key, 403 with a
// non-admin one. With no admin keys configured every request passes.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys.Admin) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			switch {
			case hasKey(key, keys.Admin):
				next.ServeHTTP(w, r)
			case key == "":
				deny(w, http.StatusUnauthorized, "unauthorized")
			default:
				deny(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}
