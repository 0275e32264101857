// Package domain defines the auth service contract: credential
// verification, session issuance, and one-time token redemption.
package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
)

var (
	// ErrInvalidCredentials deliberately covers unknown email, pending
	// invite, and wrong password alike so responses cannot be used to
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenInvalid covers unknown, expired, and already-consumed one-time
	// tokens alike.
	ErrTokenInvalid   = errors.New("invalid or expired token")
	ErrInvalidSession = errors.New("invalid session")
	ErrWeakPassword   = errors.New("password must be at least 6 characters")
)

// ForgotPasswordMessage is returned for every forgot-password request,
// whether or not the email exists.
const ForgotPasswordMessage = "If an account exists for that email, a reset link has been sent."

type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ValidateResetToken(ctx context.Context, rawToken string) (*ResetTokenStatus, error)
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	AcceptInvite(ctx context.Context, rawToken, password string) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*identitydomain.User, error)
}

type LoginResult struct {
	User      *identitydomain.User
	RawToken  string
	ExpiresAt time.Time
}

// ResetTokenStatus reports token validity as a normal outcome, never an
// error.
type ResetTokenStatus struct {
	Valid bool
	Email string
}
