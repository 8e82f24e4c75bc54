// Package domain contains the membership plan model and its scope rules.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Scope says where a plan's name must be unique.
type Scope string

const (
	ScopeTenant Scope = "TENANT"
	ScopeBranch Scope = "BRANCH"
)

func (s Scope) Valid() bool {
	return s == ScopeTenant || s == ScopeBranch
}

// TenantScopeKey is the sentinel scope key for tenant-wide plans. Branch
// plans use the branch id instead, which keeps the two namespaces from
// colliding inside one unique index.
const TenantScopeKey = "TENANT"

// MembershipPlan is a priced gym offering. Names are unique per tenant within
// a scope key, counting active plans only; archived plans release their name.
type MembershipPlan struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID       snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	BranchID       *snowflake.ID `gorm:"column:branch_id" json:"branch_id,omitempty"`
	Scope          Scope         `gorm:"type:text;not null" json:"scope"`
	ScopeKey       string        `gorm:"column:scope_key;type:text;not null" json:"-"`
	Name           string        `gorm:"type:text;not null" json:"name"`
	NormalizedName string        `gorm:"column:normalized_name;type:text;not null" json:"-"`
	Description    string        `gorm:"type:text" json:"description"`
	PriceCents     int64         `gorm:"column:price_cents;not null" json:"price_cents"`
	Currency       string        `gorm:"type:text;not null" json:"currency"`
	DurationDays   int           `gorm:"column:duration_days;not null" json:"duration_days"`
	ArchivedAt     *time.Time    `gorm:"column:archived_at" json:"archived_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MembershipPlan) TableName() string { return "membership_plans" }

// Archived reports whether the plan currently holds no claim on its name.
func (p *MembershipPlan) Archived() bool { return p.ArchivedAt != nil }

// DeriveScopeKey maps a scope and optional branch to the key the uniqueness
// index is built on.
func DeriveScopeKey(scope Scope, branchID *snowflake.ID) string {
	if scope == ScopeBranch && branchID != nil {
		return branchID.String()
	}
	return TenantScopeKey
}

// NormalizeName folds a plan name for case-insensitive comparison.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
