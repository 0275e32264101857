// Package token issues and verifies the two token kinds the platform relies
// on. Session tokens are stateless signed JWTs embedding only the user id
// and an expiry; there is no server-side session table, so revocation is by
// expiry alone. Invite and reset tokens are high-entropy random strings
// stored on the user row and matched by equality, which makes them
// unguessable and single-use by construction.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/clock"
	"github.com/evacdesk/evacdesk/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

const (
	issuer            = "evacdesk"
	oneTimeTokenBytes = 32
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("session secret is not configured")
)

// Module provides the token service.
var Module = fx.Module("token",
	fx.Provide(New),
)

type Service struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func New(cfg config.Config, clk clock.Clock) (*Service, error) {
	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Service{
		secret: []byte(secret),
		ttl:    cfg.SessionTTL,
		clock:  clk,
	}, nil
}

// SessionTTL is the lifetime of issued session tokens.
func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// IssueSession signs an HS256 JWT whose subject is the user id.
func (s *Service) IssueSession(userID snowflake.ID) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifySession validates signature and expiry and returns the embedded
// user id.
func (s *Service) VerifySession(raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithIssuer(issuer))
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// NewOneTimeToken returns a cryptographically random, base64url-encoded
// secret for invite and password-reset links.
func NewOneTimeToken() (string, error) {
	buf := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
