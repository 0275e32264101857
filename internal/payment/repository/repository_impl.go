package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/evacdesk/evacdesk/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(database *gorm.DB) domain.Repository {
	return &repo{db: database}
}

func (r *repo) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.ErrPaymentNotFound
	}
	var payment domain.Payment
	err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) UpdateStatusBySessionID(ctx context.Context, sessionID string, status string, amount int64) error {
	fields := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if amount > 0 {
		fields["amount"] = amount
	}

	tx := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("stripe_session_id = ?", sessionID).
		Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
