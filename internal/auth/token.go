package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sweet_shop/internal/apperr"
)

const invalidTokenMessage = "Invalid or expired token"

// Identity is the verified content of an access token.
type Identity struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// Claims is the JWT payload.
type Claims struct {
	UserID  uint   `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HMAC-signed access tokens. There is no
// revocation: a token stays valid until it expires, even if the account is
// deactivated in the meantime.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
	now        func() time.Time
}

// NewTokenService builds a token service for one of HS256, HS384, HS512.
func NewTokenService(secret, algorithm string, defaultTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	if defaultTTL <= 0 {
		return nil, fmt.Errorf("token ttl must be > 0")
	}
	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue signs a token for the given identity. A zero ttl uses the
// configured default.
func (s *TokenService) Issue(userID uint, email string, isAdmin bool, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	claims := Claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
// Every failure, whatever its cause, is the same authentication error.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, apperr.Authentication(invalidTokenMessage)
	}
	if claims.UserID == 0 || claims.Email == "" {
		return Identity{}, apperr.Authentication(invalidTokenMessage)
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}
