package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Roles carried in the role claim.
const (
	RoleAdmin  = "admin"
	RoleDoctor = "doctor"
	RoleStaff  = "staff"
)

type Claims struct {
	Role     string `json:"role"`
	DoctorID string `json:"doctor_id,omitempty"`
	jwt.RegisteredClaims
}

// SignHS256 signs claims with a shared secret. Zero IssuedAt is filled in.
func SignHS256(claims Claims, secret string) (string, error) {
	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	return parse(token, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.SigningMethodHS256.Alg())
}

// VerifyRS256 verifies token with a key resolved by its kid header.
func VerifyRS256(token string, keys func(kid string) (*rsa.PublicKey, error)) (*Claims, error) {
	return parse(token, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return keys(kid)
	}, jwt.SigningMethodRS256.Alg())
}

func parse(token string, keyFunc jwt.Keyfunc, alg string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, keyFunc,
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// HasRole reports whether the claims carry one of roles.
func (c *Claims) HasRole(roles ...string) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
