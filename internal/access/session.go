package access

import (
	"fmt"
	"net/http"
	"time"

	apperrors "hardhat-gateway/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the HTTP-only access cookie set after code validation.
	CookieName = "hh_access"

	msgUnexpectedSigningMethod = "unexpected signing method: %v"
	msgTokenParseFailed        = "failed to parse token: %w"
	msgInvalidTokenClaims      = "invalid token claims"
)

type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionService signs and verifies the access cookie. The secret may be empty
// at construction; operations fail with NotConfigured in that case so the rest
// of the gateway keeps working.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

func (s *SessionService) Generate(email string) (string, error) {
	if len(s.secret) == 0 {
		return "", apperrors.NotConfigured("session signing secret")
	}

	now := time.Now()
	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	if len(s.secret) == 0 {
		return nil, apperrors.NotConfigured("session signing secret")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf(msgUnexpectedSigningMethod, token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, fmt.Errorf(msgTokenParseFailed, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf(msgInvalidTokenClaims)
	}

	return claims, nil
}

// Cookie wraps a signed token into the HTTP-only access cookie.
func (s *SessionService) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
