package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type TenantMembership struct {
	ID        snowflake.ID
	Name      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTenant(ctx context.Context, tenant Tenant) error
	AddMember(ctx context.Context, member TenantMember) error
	FindByID(ctx context.Context, tenantID snowflake.ID) (*Tenant, error)
	UpdateFields(ctx context.Context, tenantID snowflake.ID, fields map[string]any) error
	ListTenantsByUser(ctx context.Context, userID snowflake.ID) ([]TenantMembership, error)
	RoleOf(ctx context.Context, tenantID, userID snowflake.ID) (string, error)
}
