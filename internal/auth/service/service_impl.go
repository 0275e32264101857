package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/evacdesk/evacdesk/internal/auth/domain"
	"github.com/evacdesk/evacdesk/internal/clock"
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	"github.com/evacdesk/evacdesk/internal/identity/password"
	emailprovider "github.com/evacdesk/evacdesk/internal/providers/email"
	"github.com/evacdesk/evacdesk/internal/token"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
)

type Service struct {
	log    *zap.Logger
	users  identitydomain.Repository
	tokens *token.Service
	mailer emailprovider.Provider
	clock  clock.Clock
	cfg    config.Config
}

func New(log *zap.Logger, users identitydomain.Repository, tokens *token.Service, mailer emailprovider.Provider, clk clock.Clock, cfg config.Config) domain.Service {
	return &Service{
		log:    log.Named("auth.service"),
		users:  users,
		tokens: tokens,
		mailer: mailer,
		clock:  clk,
		cfg:    cfg,
	}
}

func (s *Service) Login(ctx context.Context, email, pass string) (*domain.LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(pass) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// A pending invite has no usable password yet; it must fail exactly
	// like a wrong password.
	if user.PasswordHash == nil || !password.Verify(pass, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueSession(user)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		// Same response shape as the found case; nothing to do.
		return domain.ForgotPasswordMessage, nil
	}

	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return domain.ForgotPasswordMessage, nil
		}
		return "", err
	}

	rawToken, err := token.NewOneTimeToken()
	if err != nil {
		return "", err
	}

	expires := s.clock.Now().Add(resetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, rawToken, expires); err != nil {
		return "", err
	}

	subject, html, err := emailprovider.RenderPasswordReset(user.Name, s.cfg.BaseURL, rawToken)
	if err == nil {
		err = s.mailer.Send(ctx, []string{user.Email}, subject, html)
	}
	if err != nil {
		// Best-effort delivery: the response stays generic either way.
		s.log.Warn("failed to send password reset email", zap.Error(err))
	}

	return domain.ForgotPasswordMessage, nil
}

func (s *Service) ValidateResetToken(ctx context.Context, rawToken string) (*domain.ResetTokenStatus, error) {
	user, err := s.users.FindByResetToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return &domain.ResetTokenStatus{Valid: false}, nil
		}
		return nil, err
	}

	if user.PasswordResetExpires == nil || s.clock.Now().After(*user.PasswordResetExpires) {
		return &domain.ResetTokenStatus{Valid: false}, nil
	}

	return &domain.ResetTokenStatus{Valid: true, Email: user.Email}, nil
}

func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrWeakPassword
	}

	user, err := s.users.FindByResetToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return domain.ErrTokenInvalid
		}
		return err
	}

	// Expired tokens fail without being cleared; they stay until redeemed
	// or superseded.
	if user.PasswordResetExpires == nil || s.clock.Now().After(*user.PasswordResetExpires) {
		return domain.ErrTokenInvalid
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.RedeemResetToken(ctx, user.ID, rawToken, hashed); err != nil {
		if errors.Is(err, identitydomain.ErrTokenConsumed) {
			return domain.ErrTokenInvalid
		}
		return err
	}

	return nil
}

func (s *Service) AcceptInvite(ctx context.Context, rawToken, pass string) (*domain.LoginResult, error) {
	if len(strings.TrimSpace(pass)) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	user, err := s.users.FindByInviteToken(ctx, rawToken)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	if user.InviteTokenExpires == nil || s.clock.Now().After(*user.InviteTokenExpires) {
		return nil, domain.ErrTokenInvalid
	}

	hashed, err := password.Hash(pass)
	if err != nil {
		return nil, err
	}

	if err := s.users.RedeemInviteToken(ctx, user.ID, rawToken, hashed); err != nil {
		if errors.Is(err, identitydomain.ErrTokenConsumed) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	activated, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("invite accepted",
		zap.String("user_id", activated.ID.String()),
	)

	return s.issueSession(activated)
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*identitydomain.User, error) {
	userID, err := s.tokens.VerifySession(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, identitydomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issueSession(user *identitydomain.User) (*domain.LoginResult, error) {
	rawToken, expiresAt, err := s.tokens.IssueSession(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: expiresAt,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}
