package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	// ErrTokenConsumed is returned when a guarded redemption matches no row:
	// the token was cleared by a concurrent redeemer or never existed.
	ErrTokenConsumed = errors.New("token already consumed")
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByInviteToken(ctx context.Context, token string) (*User, error)
	FindByResetToken(ctx context.Context, token string) (*User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error

	// SetResetToken overwrites any prior reset token, implicitly invalidating it.
	SetResetToken(ctx context.Context, id snowflake.ID, token string, expires time.Time) error

	// RedeemResetToken sets the new password hash and clears the reset token
	// in one guarded update. Exactly one concurrent redeemer succeeds; the
	// rest get ErrTokenConsumed.
	RedeemResetToken(ctx context.Context, id snowflake.ID, token string, newHash string) error

	// RedeemInviteToken behaves like RedeemResetToken but also flips the
	// invite status to ACCEPTED.
	RedeemInviteToken(ctx context.Context, id snowflake.ID, token string, newHash string) error
}
