package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, branch *Branch) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Branch, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]Branch, error)
	UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error)

	// OwnerTenant resolves which tenant a branch belongs to, regardless of the
	// caller's tenant. Callers use it to tell a foreign branch apart from a
	// missing one without exposing either to the client.
	OwnerTenant(ctx context.Context, db *gorm.DB, id snowflake.ID) (snowflake.ID, error)
}
