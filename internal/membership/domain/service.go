package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateMembershipRequest struct {
	MemberID string
	PlanID   string
	StartsAt *time.Time
}

type ListMembershipRequest struct {
	MemberID string
	Status   string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, membership *Membership) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Membership, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, memberID *snowflake.ID, status MembershipStatus) ([]Membership, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, from, to MembershipStatus, at time.Time) (int64, error)
}

type Service interface {
	Create(ctx context.Context, tenantID snowflake.ID, req CreateMembershipRequest) (*Membership, error)
	GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*Membership, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListMembershipRequest) ([]Membership, error)
	Cancel(ctx context.Context, tenantID snowflake.ID, id string) (*Membership, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidMember = errors.New("invalid_member")
	ErrInvalidPlan   = errors.New("invalid_plan")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrPlanArchived  = errors.New("plan_archived")
	ErrNotFound      = errors.New("not_found")
	ErrNotActive     = errors.New("membership_not_active")
)
