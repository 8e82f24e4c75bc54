// Package domain contains persistence models for member plan assignments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "ACTIVE"
	MembershipCancelled MembershipStatus = "CANCELLED"
	MembershipExpired   MembershipStatus = "EXPIRED"
)

// Membership binds a member to a plan for a period. Rows are never deleted;
// cancellation and expiry flip the status so billing history stays intact.
type Membership struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID     `gorm:"not null;index" json:"tenant_id"`
	MemberID  snowflake.ID     `gorm:"not null;index;column:member_id" json:"member_id"`
	PlanID    snowflake.ID     `gorm:"not null;index;column:plan_id" json:"plan_id"`
	Status    MembershipStatus `gorm:"type:text;not null" json:"status"`
	StartsAt  time.Time        `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time        `gorm:"not null" json:"ends_at"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Membership) TableName() string { return "memberships" }
