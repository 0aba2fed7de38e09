package middleware

import (
	"net/http"

	"github.com/solvex-io/captcha-api/internal/api/shared"
)

// CredentialHeader carries the caller's own Gemini API key, used instead of
// the server-side key when present.
const CredentialHeader = "X-Gemini-Key"

// Credential extracts the caller's backend credential from the request and
// stores it in the context for the handlers and the task coordinator.
type Credential struct {
	// serverKeyConfigured indicates a server-side fallback key exists, so
	// requests without their own credential are still serviceable.
	serverKeyConfigured bool
}

// NewCredential creates a Credential middleware.
func NewCredential(serverKeyConfigured bool) *Credential {
	return &Credential{serverKeyConfigured: serverKeyConfigured}
}

// Extract puts the X-Gemini-Key header value into the request context. When
// the header is absent and no server-side key is configured, the request is
// rejected: there is nothing to call the backend with.
func (m *Credential) Extract(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := r.Header.Get(CredentialHeader)
		if credential == "" && !m.serverKeyConfigured {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "missing Gemini API key")
			return
		}

		ctx := shared.SetCredential(r.Context(), credential)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
