// Package signedlink issues and verifies expiring capability tokens.
//
// A token is a compact HS256 JWS whose payload carries the target URL, the
// absolute expiry instant (RFC 3339, UTC) and the minting account:
//
//	base64url(header) "." base64url({"url":…,"expires_at":…,"sub":…}) "." base64url(HMAC-SHA256)
//
// Tokens are stateless: nothing is stored server-side, so a token cannot be
// revoked before it expires. Changing the signing secret invalidates every
// outstanding token.
package signedlink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default TTL bounds in seconds, both inclusive.
const (
	DefaultMinTTL = 300
	DefaultMaxTTL = 30000
)

var (
	// ErrInvalidTTL is returned by Issue when the TTL is outside the configured bounds.
	ErrInvalidTTL = errors.New("invalid ttl")
	// ErrInvalidSignature is returned for any token that does not verify,
	// including tokens that are not structurally valid.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrExpired is returned for a correctly signed token past its expiry.
	ErrExpired = errors.New("link has expired")
	// ErrNoSecret is returned by New when the signing secret is empty.
	ErrNoSecret = errors.New("signing secret is required")
)

// Grant is the capability carried by a verified token.
type Grant struct {
	URL       string
	ExpiresAt time.Time
	Subject   string
}

type claims struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
	jwt.RegisteredClaims
}

// Signer issues and verifies tokens with a process-wide secret.
type Signer struct {
	secret []byte
	minTTL int
	maxTTL int
	now    func() time.Time
	parser *jwt.Parser
}

// Option customises a Signer.
type Option func(*Signer)

// WithTTLBounds overrides the accepted TTL range in seconds.
func WithTTLBounds(minTTL, maxTTL int) Option {
	return func(s *Signer) {
		s.minTTL = minTTL
		s.maxTTL = maxTTL
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// New returns a Signer using secret.
func New(secret []byte, opts ...Option) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	s := &Signer{
		secret: append([]byte(nil), secret...),
		minTTL: DefaultMinTTL,
		maxTTL: DefaultMaxTTL,
		now:    time.Now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// TTLBounds returns the accepted TTL range in seconds.
func (s *Signer) TTLBounds() (int, int) { return s.minTTL, s.maxTTL }

// Issue signs a grant for url on behalf of subject, valid for ttl seconds.
func (s *Signer) Issue(url, subject string, ttl int) (string, time.Time, error) {
	if ttl < s.minTTL || ttl > s.maxTTL {
		return "", time.Time{}, fmt.Errorf("%w: expiration time must be an integer between %d and %d", ErrInvalidTTL, s.minTTL, s.maxTTL)
	}
	expiresAt := s.now().UTC().Add(time.Duration(ttl) * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		URL:       url,
		ExpiresAt: expiresAt.Format(time.RFC3339Nano),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign link: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token's signature and expiry and returns its grant.
func (s *Signer) Verify(token string) (Grant, error) {
	var c claims
	_, err := s.parser.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return Grant{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, c.ExpiresAt)
	if err != nil || c.URL == "" {
		return Grant{}, fmt.Errorf("%w: malformed payload", ErrInvalidSignature)
	}
	if expiresAt.Before(s.now()) {
		return Grant{}, ErrExpired
	}
	return Grant{URL: c.URL, ExpiresAt: expiresAt, Subject: c.Subject}, nil
}
