package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, org *Organization) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	// SetAdmin writes the deferred back-reference to the owning admin.
	SetAdmin(ctx context.Context, orgID snowflake.ID, adminID snowflake.ID) error
}
