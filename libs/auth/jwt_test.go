package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testClaims(role string) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestHS256RoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := SignHS256(testClaims(RoleStaff), secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Subject != "user-1" || parsed.Role != RoleStaff {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestHS256RejectsExpired(t *testing.T) {
	claims := testClaims(RoleAdmin)
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRS256Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, testClaims(RoleDoctor))
	tok.Header["kid"] = "kid-1"
	signed, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("rs256 sign failed: %v", err)
	}

	keys := func(kid string) (*rsa.PublicKey, error) {
		if kid != "kid-1" {
			return nil, ErrKeyNotFound
		}
		return &key.PublicKey, nil
	}
	parsed, err := VerifyRS256(signed, keys)
	if err != nil {
		t.Fatalf("VerifyRS256 failed: %v", err)
	}
	if parsed.Role != RoleDoctor {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
}

func TestRequireRole(t *testing.T) {
	secret := "test-secret"
	h := RequireRole(NewVerifier(secret, nil), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), RoleAdmin)

	staffToken, _ := SignHS256(testClaims(RoleStaff), secret)
	adminToken, _ := SignHS256(testClaims(RoleAdmin), secret)

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
		{"Bearer " + staffToken, http.StatusForbidden},
		{"Bearer " + adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != tc.want {
			t.Fatalf("header %q: expected %d, got %d", tc.header, tc.want, rw.Code)
		}
	}
}

func TestRequireRoleDisabled(t *testing.T) {
	h := RequireRole(nil, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RoleAdmin)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected passthrough, got %d", rw.Code)
	}
}
