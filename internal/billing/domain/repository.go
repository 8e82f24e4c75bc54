package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists tenant billing records. Every read goes to the store;
// the gate never caches a status across requests.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *TenantBillingRecord) error
	FindByTenantID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*TenantBillingRecord, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, status Status) error
}
