// Package domain contains persistence models for the member service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Member is a gym member record owned by a tenant. HomeBranchID is optional;
// a member without one trains at any branch.
type Member struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	HomeBranchID *snowflake.ID     `gorm:"column:home_branch_id;index" json:"home_branch_id,omitempty"`
	FullName     string            `gorm:"type:text;not null;column:full_name" json:"full_name"`
	Email        string            `gorm:"type:text" json:"email"`
	Phone        string            `gorm:"type:text" json:"phone"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	JoinedAt     time.Time         `gorm:"not null" json:"joined_at"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }
