// Package auth protects the gateway's admin HTTP surface: bearer JWTs for
// general admin access, plus a second TOTP factor specifically for the
// kill switch, since accidentally or maliciously toggling it halts all
// trading.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidTOTP  = errors.New("invalid or missing TOTP code")
)

// Claims identifies the admin operator a token was issued to.
type Claims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates admin bearer tokens.
type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTManager builds a manager signing with secret. expiry defaults to
// one hour when zero.
func NewJWTManager(secret []byte, expiry time.Duration) (*JWTManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if expiry == 0 {
		expiry = time.Hour
	}
	return &JWTManager{secret: secret, expiry: expiry, issuer: "tradecore-gateway"}, nil
}

// GenerateToken issues a bearer token for subject with the given role.
func (m *JWTManager) GenerateToken(subject, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Subject: subject,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   subject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates tokenString, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractBearerToken pulls the bearer token out of an Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingToken
	}
	return parts[1], nil
}

// VerifyTOTP checks code against the operator's shared TOTP secret, used as
// the second factor guarding kill switch activation/deactivation.
func VerifyTOTP(secret, code string) error {
	if code == "" {
		return ErrInvalidTOTP
	}
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTP
	}
	return nil
}
