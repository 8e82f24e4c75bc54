package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreatePlanRequest struct {
	Name         string
	Description  string
	Scope        Scope
	BranchID     string
	PriceCents   int64
	Currency     string
	DurationDays int
}

// UpdatePlanRequest covers rename and cosmetic edits. Scope and branch are
// intentionally not here; a plan's namespace is fixed at creation.
type UpdatePlanRequest struct {
	Name         *string
	Description  *string
	PriceCents   *int64
	Currency     *string
	DurationDays *int
}

type ListPlanRequest struct {
	Scope           string
	BranchID        string
	IncludeArchived bool
}

type Service interface {
	Create(ctx context.Context, tenantID snowflake.ID, req CreatePlanRequest) (*MembershipPlan, error)
	GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*MembershipPlan, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListPlanRequest) ([]MembershipPlan, error)
	Update(ctx context.Context, tenantID snowflake.ID, id string, req UpdatePlanRequest) (*MembershipPlan, error)
	Archive(ctx context.Context, tenantID snowflake.ID, id string) (*MembershipPlan, error)
	Restore(ctx context.Context, tenantID snowflake.ID, id string) (*MembershipPlan, error)
	Delete(ctx context.Context, tenantID snowflake.ID, id string) error
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidScope    = errors.New("invalid_scope")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrInvalidBranch   = errors.New("invalid_branch_reference")
	ErrForeignBranch   = errors.New("foreign_branch_reference")
	ErrScopeImmutable  = errors.New("plan_scope_immutable")
	ErrNameTaken       = errors.New("plan_name_taken")
	ErrNotArchived     = errors.New("plan_not_archived")
	ErrPlanArchived    = errors.New("plan_archived")
	// ErrPlanInUse names the dependency type blocking the delete.
	ErrPlanInUse = errors.New("plan_in_use_by_memberships")
	ErrNotFound  = errors.New("not_found")
)
