// Package domain contains persistence models for organizations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/evacdesk/evacdesk/internal/plan"
	"gorm.io/datatypes"
)

// Organization represents a tenant. MaxFacilities and TotalSeats are frozen
// from the plan catalogue at creation time; plan catalogue changes never
// resize a provisioned tenant. AdminID is written in a second step after the
// owning admin exists, because the two records reference each other.
type Organization struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name             string            `gorm:"type:text;not null" json:"name"`
	Address          string            `gorm:"type:text;not null" json:"address"`
	PhoneNumber      string            `gorm:"type:text;not null" json:"phone_number"`
	Industry         string            `gorm:"type:text;not null" json:"industry"`
	OrganizationSize string            `gorm:"type:text;not null" json:"organization_size"`
	NatureOfWork     string            `gorm:"type:text" json:"nature_of_work,omitempty"`
	ABN              string            `gorm:"column:abn;type:text" json:"abn,omitempty"`
	SelectedPlan     plan.Plan         `gorm:"type:text;not null" json:"selected_plan"`
	MaxFacilities    int               `gorm:"not null" json:"max_facilities"`
	TotalSeats       int               `gorm:"not null" json:"total_seats"`
	AdminID          *snowflake.ID     `gorm:"index" json:"admin_id,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"-"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
