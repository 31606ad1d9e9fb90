package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/credoauth/credo/internal/application/ports"
)

// AuthValidator is the upstream authentication gate: it validates the bearer
// session credential and sets the account id in the context. Expired, badly
// signed, and malformed tokens are logged distinctly but answered with one
// and the same 401; the reason never reaches the client.
type AuthValidator struct {
	issuer ports.TokenIssuer
	log    zerolog.Logger
}

func NewAuthValidator(issuer ports.TokenIssuer, log zerolog.Logger) *AuthValidator {
	return &AuthValidator{issuer: issuer, log: log}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			unauthenticated(w)
			return
		}
		tokenString := strings.TrimPrefix(auth, "Bearer ")
		accountID, err := m.issuer.Verify(tokenString)
		if err != nil {
			m.log.Debug().Err(err).Msg("session verification failed")
			unauthenticated(w)
			return
		}
		ctx := WithAccountID(r.Context(), accountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthenticated",
		"code":  "unauthorized",
	})
}
