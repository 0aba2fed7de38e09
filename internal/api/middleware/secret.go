package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/solvex-io/captcha-api/internal/api/shared"
)

// SecretHeader carries the shared secret gating all API requests.
const SecretHeader = "X-API-Secret"

// SecretAuth provides shared-secret authentication for routes.
type SecretAuth struct {
	secret string
}

// NewSecretAuth creates a SecretAuth checking against the given secret.
func NewSecretAuth(secret string) *SecretAuth {
	return &SecretAuth{secret: secret}
}

// Require rejects requests whose X-API-Secret header does not match the
// configured secret. The comparison is constant-time.
func (m *SecretAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(SecretHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(m.secret)) != 1 {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
