// Package domain contains the accounting period lock model.
package domain

import (
	"regexp"
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantBranchKey is the sentinel branch key for tenant-wide locks. A real
// column value instead of NULL keeps the unique index enforcing one
// tenant-wide lock per month, since NULLs never collide in a unique index.
const TenantBranchKey = "TENANT"

// PeriodLock freezes one accounting month for a tenant or for a single
// branch. While a month is locked, payments dated inside it cannot be
// created, changed or removed. A tenant-wide lock covers every branch.
type PeriodLock struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID  `gorm:"not null;uniqueIndex:ux_period_lock_month,priority:1" json:"tenant_id"`
	BranchID  *snowflake.ID `gorm:"column:branch_id" json:"branch_id,omitempty"`
	BranchKey string        `gorm:"column:branch_key;type:text;not null;uniqueIndex:ux_period_lock_month,priority:2" json:"-"`
	Month     string        `gorm:"type:text;not null;uniqueIndex:ux_period_lock_month,priority:3" json:"month"`
	LockedBy  snowflake.ID  `gorm:"column:locked_by" json:"locked_by"`
	LockedAt  time.Time     `gorm:"not null" json:"locked_at"`
}

// TableName sets the database table name.
func (PeriodLock) TableName() string { return "period_locks" }

// DeriveBranchKey maps an optional branch to the key the uniqueness index
// and lock lookups run on.
func DeriveBranchKey(branchID *snowflake.ID) string {
	if branchID != nil {
		return branchID.String()
	}
	return TenantBranchKey
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidMonth reports whether s is a calendar month in YYYY-MM form.
func ValidMonth(s string) bool {
	return monthPattern.MatchString(s)
}

// MonthOf formats a timestamp as the accounting month it falls in.
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
