package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyClaims ctxKey = iota

// Verifier turns a bearer token into claims.
type Verifier func(token string) (*Claims, error)

// NewVerifier prefers RS256 via JWKS when jwksURL is set, HS256 otherwise.
// It returns nil when neither is configured.
func NewVerifier(secret string, jwks *JWKSClient) Verifier {
	switch {
	case jwks != nil:
		return func(token string) (*Claims, error) { return VerifyRS256(token, jwks.Get) }
	case secret != "":
		return func(token string) (*Claims, error) { return ParseAndVerifyHS256(token, secret) }
	default:
		return nil
	}
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKeyClaims).(*Claims)
	return c, ok
}

// RequireRole rejects requests without a valid bearer token carrying one of
// roles. A nil verifier disables the check.
func RequireRole(verify Verifier, next http.Handler, roles ...string) http.Handler {
	if verify == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := verify(strings.TrimSpace(token))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if !claims.HasRole(roles...) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyClaims, claims)))
	})
}
