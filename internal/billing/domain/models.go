package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantBillingRecord is the persisted billing state of a tenant. It is
// created with the tenant and only ever mutated by the billing process;
// the general tenant-update surface can never touch it.
type TenantBillingRecord struct {
	ID                     snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID               snowflake.ID `gorm:"not null;uniqueIndex:ux_billing_tenant" json:"tenant_id"`
	BillingStatus          Status       `gorm:"type:text;not null" json:"billing_status"`
	TrialStartedAt         time.Time    `gorm:"not null" json:"trial_started_at"`
	TrialEndsAt            time.Time    `gorm:"not null" json:"trial_ends_at"`
	BillingStatusUpdatedAt time.Time    `gorm:"not null" json:"billing_status_updated_at"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TenantBillingRecord) TableName() string { return "tenant_billing_records" }
