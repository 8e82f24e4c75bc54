// Package domain contains persistence models for the branch service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Branch is a physical gym location belonging to a tenant. Branch-scoped
// membership plans and member home assignments hang off it.
type Branch struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Address      string       `gorm:"type:text" json:"address"`
	Phone        string       `gorm:"type:text" json:"phone"`
	TimezoneName string       `gorm:"column:timezone_name" json:"timezone_name"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Branch) TableName() string { return "branches" }
