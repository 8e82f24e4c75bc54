package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error
}

type CreateUserRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email     string
	Password  string
	TenantID  string
	UserAgent string
	IPAddress string
}

// LoginResult carries everything the login handler renders. BillingStatus is
// present when the resolved tenant is in a state worth surfacing, which for
// the gate means PAST_DUE; a suspended tenant never reaches this struct.
type LoginResult struct {
	UserID        snowflake.ID
	DisplayName   string
	Email         string
	Tenants       []tenantdomain.TenantListItem
	TenantID      *snowflake.ID
	BillingStatus *billingdomain.Status
	RawToken      string
	ExpiresAt     time.Time
	SessionID     snowflake.ID
}
