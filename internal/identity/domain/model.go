// Package domain contains core types for the identity service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleMaster   = "MASTER"
	RoleAdmin    = "ADMIN"
	RoleOccupant = "OCCUPANT"
)

const (
	InvitePending  = "PENDING"
	InviteAccepted = "ACCEPTED"
)

// User represents an account. Emails are stored lowercase; comparison is
// case-insensitive by normalizing at every boundary. PasswordHash is nil
// only while an invited admin has not redeemed their invite.
type User struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email            string            `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Name             string            `gorm:"type:text;not null" json:"name"`
	Phone            string            `gorm:"type:text" json:"phone,omitempty"`
	PictureURL       string            `gorm:"type:text" json:"picture_url,omitempty"`
	PasswordHash     *string           `gorm:"type:text" json:"-"`
	OrganizationID   *snowflake.ID     `gorm:"index" json:"organization_id,omitempty"`
	Role             string            `gorm:"type:text;not null" json:"role"`
	IsPointOfContact bool              `gorm:"column:is_point_of_contact" json:"is_point_of_contact"`
	InviteStatus     string            `gorm:"type:text;not null;default:ACCEPTED" json:"invite_status"`

	InviteToken        *string    `gorm:"type:text;uniqueIndex" json:"-"`
	InviteTokenExpires *time.Time `json:"-"`

	PasswordResetToken   *string    `gorm:"type:text;uniqueIndex" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"-"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Pending reports whether the user still has an unredeemed invite.
func (u *User) Pending() bool { return u.InviteStatus == InvitePending }
