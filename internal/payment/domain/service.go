package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreatePaymentRequest struct {
	MemberID     string
	MembershipID string
	BranchID     string
	AmountCents  int64
	Currency     string
	Method       string
	Reference    string
	Note         string
	PaidAt       *time.Time
}

type UpdatePaymentRequest struct {
	AmountCents *int64
	Method      *string
	Reference   *string
	Note        *string
	PaidAt      *time.Time
}

type ListPaymentRequest struct {
	PageToken string
	PageSize  int32
	MemberID  string
	Month     string
}

type ListPaymentFilter struct {
	MemberID *snowflake.ID
	Month    string
}

type ListPaymentResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListPaymentFilter, page pagination.Pagination) ([]*Payment, error)
	UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error)
}

type Service interface {
	Create(ctx context.Context, tenantID snowflake.ID, req CreatePaymentRequest) (*Payment, error)
	GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*Payment, error)
	List(ctx context.Context, tenantID snowflake.ID, req ListPaymentRequest) (ListPaymentResponse, error)
	Update(ctx context.Context, tenantID snowflake.ID, id string, req UpdatePaymentRequest) (*Payment, error)
	Delete(ctx context.Context, tenantID snowflake.ID, id string) error
	Receipt(ctx context.Context, tenantID snowflake.ID, id string) ([]byte, error)
}

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidMember   = errors.New("invalid_member")
	ErrInvalidBranch   = errors.New("invalid_branch")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidMethod   = errors.New("invalid_method")
	ErrInvalidMonth    = errors.New("invalid_month")
	ErrPeriodLocked    = errors.New("period_locked")
	ErrNotFound        = errors.New("not_found")
)
