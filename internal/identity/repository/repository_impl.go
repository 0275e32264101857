package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/identity/domain"
	"github.com/evacdesk/evacdesk/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(database *gorm.DB) domain.Repository {
	return &repo{db: database}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := r.db.WithContext(ctx).Create(user).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByInviteToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findByToken(ctx, "invite_token", token)
}

func (r *repo) FindByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.findByToken(ctx, "password_reset_token", token)
}

func (r *repo) findByToken(ctx context.Context, column, token string) (*domain.User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrUserNotFound
	}
	var user domain.User
	err := r.db.WithContext(ctx).Where(column+" = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *repo) SetResetToken(ctx context.Context, id snowflake.ID, token string, expires time.Time) error {
	return r.UpdateFields(ctx, id, map[string]any{
		"password_reset_token":   token,
		"password_reset_expires": expires,
		"updated_at":             time.Now().UTC(),
	})
}

// RedeemResetToken is a compare-and-clear: the WHERE clause re-checks the
// token so two concurrent redeemers cannot both succeed.
func (r *repo) RedeemResetToken(ctx context.Context, id snowflake.ID, token string, newHash string) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND password_reset_token = ?", id, token).
		Updates(map[string]any{
			"password_hash":          newHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTokenConsumed
	}
	return nil
}

func (r *repo) RedeemInviteToken(ctx context.Context, id snowflake.ID, token string, newHash string) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND invite_token = ?", id, token).
		Updates(map[string]any{
			"password_hash":        newHash,
			"invite_token":         nil,
			"invite_token_expires": nil,
			"invite_status":        domain.InviteAccepted,
			"updated_at":           time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTokenConsumed
	}
	return nil
}
