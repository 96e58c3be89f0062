package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSecret = errors.New("auth: JWT secret key not set")

// Claims are the HS256 token claims used when Auth0 is not configured.
type Claims struct {
	Nickname string `json:"nickname,omitempty"`
	jwt.RegisteredClaims
}

// CreateToken signs an HS256 token for subject that expires after ttl. The
// server hands these out only from the development token route; tests use
// it directly.
func CreateToken(secret, subject, nickname string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken parses tokenString and checks its signature and expiry.
func VerifyToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	return claims, nil
}
