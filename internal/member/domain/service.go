package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/pkg/db/pagination"
)

type CreateMemberRequest struct {
	FullName     string
	Email        string
	Phone        string
	HomeBranchID string
	Metadata     map[string]any
	JoinedAt     *time.Time
}

type UpdateMemberRequest struct {
	FullName     *string
	Email        *string
	Phone        *string
	HomeBranchID *string
	Metadata     map[string]any
}

type ListMemberRequest struct {
	PageToken string
	PageSize  int32
	Search    string
	BranchID  string
}

type ListMemberFilter struct {
	Search   string
	BranchID *snowflake.ID
}

type ListMemberResponse struct {
	pagination.PageInfo
	Members []Member `json:"members"`
}

type Service interface {
	Create(ctx context.Context, tenantID snowflake.ID, req CreateMemberRequest) (*Member, error)
	GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*Member, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListMemberRequest) (ListMemberResponse, error)
	Update(ctx context.Context, tenantID snowflake.ID, id string, req UpdateMemberRequest) (*Member, error)
	Delete(ctx context.Context, tenantID snowflake.ID, id string) error
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidBranch = errors.New("invalid_branch")
	ErrNotFound      = errors.New("not_found")
	ErrMemberInUse   = errors.New("member_in_use")
)
