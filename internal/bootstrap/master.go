// Package bootstrap seeds the platform-level master operator on startup.
package bootstrap

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/config"
	identitydomain "github.com/evacdesk/evacdesk/internal/identity/domain"
	"github.com/evacdesk/evacdesk/internal/identity/password"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("bootstrap",
	fx.Invoke(registerMasterSeed),
)

func registerMasterSeed(lc fx.Lifecycle, log *zap.Logger, node *snowflake.Node, users identitydomain.Repository, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return EnsureMaster(ctx, log, node, users, cfg.Bootstrap)
		},
	})
}

// EnsureMaster creates the MASTER operator if one is configured and does not
// already exist. The master belongs to no organization and never goes through
// onboarding. Seeding is idempotent across restarts.
func EnsureMaster(ctx context.Context, log *zap.Logger, node *snowflake.Node, users identitydomain.Repository, cfg config.BootstrapConfig) error {
	log = log.Named("bootstrap")

	if cfg.MasterEmail == "" || cfg.MasterPassword == "" {
		log.Info("master bootstrap not configured, skipping")
		return nil
	}

	existing, err := users.FindByEmail(ctx, cfg.MasterEmail)
	if err != nil && !errors.Is(err, identitydomain.ErrUserNotFound) {
		return err
	}
	if existing != nil {
		log.Info("master account already present", zap.String("email", existing.Email))
		return nil
	}

	hashed, err := password.Hash(cfg.MasterPassword)
	if err != nil {
		return err
	}

	name := cfg.MasterName
	if name == "" {
		name = "Master"
	}
	master := &identitydomain.User{
		ID:           node.Generate(),
		Email:        cfg.MasterEmail,
		Name:         name,
		PasswordHash: &hashed,
		Role:         identitydomain.RoleMaster,
		InviteStatus: identitydomain.InviteAccepted,
	}
	if err := users.Create(ctx, master); err != nil {
		// A concurrent replica won the race; that is fine.
		if errors.Is(err, identitydomain.ErrEmailTaken) {
			log.Info("master account created by another instance")
			return nil
		}
		return err
	}

	log.Info("master account seeded", zap.String("email", master.Email))
	return nil
}
