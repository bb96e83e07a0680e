package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
)

type contextKey string

// AccountIDKey holds the account id of the signed-in caller
const AccountIDKey contextKey = "account_id"

// NewAuth creates an HS256 verifier for session tokens whose subject is the
// caller's account id.
func NewAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// RequireAccount rejects requests without a verified session token and puts
// the token subject in the request context under AccountIDKey.
func RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			writeStatus(w, r, http.StatusUnauthorized, "a valid session token is required")
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			writeStatus(w, r, http.StatusUnauthorized, "session token has no subject")
			return
		}

		ctx := context.WithValue(r.Context(), AccountIDKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccountID returns the account id RequireAccount stored in ctx
func AccountID(ctx context.Context) string {
	id, _ := ctx.Value(AccountIDKey).(string)
	return id
}
