package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListPlanFilter struct {
	Scope           Scope
	BranchID        *snowflake.ID
	IncludeArchived bool
}

type Repository interface {
	// Insert persists a plan. A unique-constraint violation from a concurrent
	// create of the same name comes back as ErrNameTaken.
	Insert(ctx context.Context, db *gorm.DB, plan *MembershipPlan) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*MembershipPlan, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListPlanFilter) ([]MembershipPlan, error)

	// ActiveNameExists reports whether an active plan other than excludeID
	// already claims normalizedName under scopeKey.
	ActiveNameExists(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, scopeKey, normalizedName string, excludeID snowflake.ID) (bool, error)

	// UpdateFields applies fields to an active plan row, translating a
	// unique-constraint violation to ErrNameTaken.
	UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error)

	// Archive stamps archived_at on an active plan, releasing its name.
	Archive(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, archivedAt time.Time) (int64, error)

	// Restore clears archived_at and rewrites scope_key. Clearing the marker
	// puts the name back under the unique index, so a restore race also
	// surfaces as ErrNameTaken.
	Restore(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, scopeKey string, restoredAt time.Time) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error)
	CountMembershipRefs(ctx context.Context, db *gorm.DB, tenantID, planID snowflake.ID) (int64, error)
}
