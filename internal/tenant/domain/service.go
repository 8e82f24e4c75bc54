package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
)

type CreateTenantRequest struct {
	Name         string
	ContactEmail string
	TimezoneName string
	OwnerUserID  snowflake.ID
}

// UpdateTenantRequest carries the cosmetic fields a tenant may change about
// itself. Billing state is deliberately absent; the handler additionally
// rejects any payload that tries to smuggle it in.
type UpdateTenantRequest struct {
	Name         *string
	ContactEmail *string
	TimezoneName *string
}

type TenantResponse struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	ContactEmail string                 `json:"contact_email"`
	TimezoneName string                 `json:"timezone_name"`
	CreatedAt    time.Time              `json:"created_at"`
	Billing      *BillingStatusResponse `json:"billing,omitempty"`
}

type BillingStatusResponse struct {
	BillingStatus  billingdomain.Status `json:"billing_status"`
	TrialStartedAt time.Time            `json:"trial_started_at"`
	TrialEndsAt    time.Time            `json:"trial_ends_at"`
}

type TenantListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (*TenantResponse, error)
	GetByID(ctx context.Context, tenantID snowflake.ID) (*TenantResponse, error)
	Update(ctx context.Context, tenantID snowflake.ID, req UpdateTenantRequest) (*TenantResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]TenantListItem, error)
	RoleOf(ctx context.Context, tenantID, userID snowflake.ID) (string, error)
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_contact_email")
	ErrInvalidTimezone = errors.New("invalid_timezone")
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrNotFound        = errors.New("not_found")
	ErrNotMember       = errors.New("not_a_member")
)
