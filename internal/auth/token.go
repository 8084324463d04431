// Package auth issues and parses the bearer tokens that identify callers.
// A token asserts an account id and the name of the account's tier.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued bearer token stays valid.
const DefaultTokenTTL = 30 * 24 * time.Hour

// ErrInvalidToken is returned for bearer tokens that fail to parse or verify.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims carried by a bearer token.
type Claims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// Identity is what a verified bearer token asserts about its caller.
type Identity struct {
	AccountID string
	Tier      string
}

// IssueToken creates a signed JWT for the given account.
func IssueToken(secret []byte, accountID, tierName string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Tier: tierName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a bearer token and returns the identity it asserts.
func ParseToken(secret []byte, tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{AccountID: claims.Subject, Tier: claims.Tier}, nil
}
