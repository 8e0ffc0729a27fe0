// Package auth issues and verifies the session tokens used by the HTTP API.
// A token only proves identity; it carries no key material, so possession of
// a token alone never decrypts anything.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minkvault/mink/internal/common"
)

// Claims is the JWT payload: registered claims plus the account ID and role.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

// GenerateToken returns a signed HS256 token for the account.
func GenerateToken(secretKey []byte, userID, role string, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   role,
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry and returns the claims.
// Every failure maps to common.ErrUnauthorized; callers do not need to
// distinguish a forged token from an expired one.
func ParseToken(secretKey []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return secretKey, nil
		})
	if err != nil || !token.Valid {
		return nil, errors.Join(common.ErrUnauthorized, err)
	}
	return claims, nil
}
