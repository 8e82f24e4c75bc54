package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateBranchRequest struct {
	Name         string
	Address      string
	Phone        string
	TimezoneName string
}

type UpdateBranchRequest struct {
	Name         *string
	Address      *string
	Phone        *string
	TimezoneName *string
}

type BranchResponse struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	TimezoneName string    `json:"timezone_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, tenantID snowflake.ID, req CreateBranchRequest) (*BranchResponse, error)
	GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*BranchResponse, error)
	List(ctx context.Context, tenantID snowflake.ID) ([]BranchResponse, error)
	Update(ctx context.Context, tenantID snowflake.ID, id string, req UpdateBranchRequest) (*BranchResponse, error)
	Delete(ctx context.Context, tenantID snowflake.ID, id string) error
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidTimezone = errors.New("invalid_timezone")
	ErrNotFound        = errors.New("not_found")
	ErrBranchInUse     = errors.New("branch_in_use")
)
