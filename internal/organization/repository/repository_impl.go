package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/organization/domain"
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

func (r *repo) Create(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repo) SetAdmin(ctx context.Context, orgID snowflake.ID, adminID snowflake.ID) error {
	tx := r.db.WithContext(ctx).Model(&domain.Organization{}).
		Where("id = ?", orgID).
		Updates(map[string]any{
			"admin_id":   adminID,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
