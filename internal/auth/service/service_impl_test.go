package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clubcore/clubcore/internal/auth/domain"
	"github.com/clubcore/clubcore/internal/auth/repository"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	billingrepo "github.com/clubcore/clubcore/internal/billing/repository"
	billingservice "github.com/clubcore/clubcore/internal/billing/service"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
	tenantrepo "github.com/clubcore/clubcore/internal/tenant/repository"
	tenantservice "github.com/clubcore/clubcore/internal/tenant/service"
)

type authFixture struct {
	svc     domain.Service
	tenants tenantdomain.Service
	billing billingdomain.Service
	node    *snowflake.Node
	clock   *clock.FakeClock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&tenantdomain.Tenant{},
		&tenantdomain.TenantMember{},
		&billingdomain.TenantBillingRecord{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	billing := billingservice.New(billingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  billingrepo.Provide(),
	})

	tenants := tenantservice.New(tenantservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       tenantrepo.NewRepository(db),
		Billing:    billing,
		Governance: config.StaticGovernance(config.DefaultGovernanceConfig()),
	})

	userRepo, sessionRepo := repository.New(db)

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fake,
		Cfg:     config.Config{SessionTTLHours: 24},
		Repo:    userRepo,
		Session: sessionRepo,
		Tenants: tenants,
		Billing: billing,
	})

	return &authFixture{svc: svc, tenants: tenants, billing: billing, node: node, clock: fake}
}

func (f *authFixture) signup(t *testing.T, email string) (*domain.User, snowflake.ID) {
	t.Helper()
	ctx := context.Background()

	user, err := f.svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:       email,
		Password:    "correct horse",
		DisplayName: "Jamie",
	})
	assert.NoError(t, err)

	resp, err := f.tenants.Create(ctx, tenantdomain.CreateTenantRequest{
		Name:        "Iron Temple",
		OwnerUserID: user.ID,
	})
	assert.NoError(t, err)

	tenantID, err := snowflake.ParseString(resp.ID)
	assert.NoError(t, err)
	return user, tenantID
}

func TestLoginHappyPath(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, tenantID := f.signup(t, "jamie@example.com")

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "Jamie@Example.com",
		Password: "correct horse",
	})
	assert.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), result.ExpiresAt)

	// A single-tenant user gets the tenant resolved implicitly.
	assert.NotNil(t, result.TenantID)
	assert.Equal(t, tenantID, *result.TenantID)
	// A healthy tenant surfaces no billing status.
	assert.Nil(t, result.BillingStatus)

	session, err := f.svc.Authenticate(ctx, result.RawToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
}

func TestLoginBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "casey@example.com")

	_, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "casey@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// An unknown account reads the same as a wrong password.
	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginPastDueIncludesBillingStatus(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, tenantID := f.signup(t, "pastdue@example.com")

	_, err := f.billing.SetStatus(ctx, tenantID, billingdomain.StatusPastDue)
	assert.NoError(t, err)

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "pastdue@example.com",
		Password: "correct horse",
	})
	assert.NoError(t, err)
	assert.NotNil(t, result.BillingStatus)
	assert.Equal(t, billingdomain.StatusPastDue, *result.BillingStatus)
}

func TestLoginSuspendedTenantIsLocked(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, tenantID := f.signup(t, "suspended@example.com")

	_, err := f.billing.SetStatus(ctx, tenantID, billingdomain.StatusSuspended)
	assert.NoError(t, err)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "suspended@example.com",
		Password: "correct horse",
	})
	var locked *billingdomain.LockedError
	assert.True(t, errors.As(err, &locked))
	assert.Equal(t, billingdomain.StatusSuspended, locked.Status)
	assert.Equal(t, billingdomain.ClassLogin, locked.Class)
	// The lock is not a credentials failure.
	assert.False(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestLoginForeignTenantRejected(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "onlooker@example.com")
	_, otherTenant := f.signup(t, "owner@example.com")

	_, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "onlooker@example.com",
		Password: "correct horse",
		TenantID: otherTenant.String(),
	})
	assert.ErrorIs(t, err, ErrTenantNotAllowed)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "logout@example.com")

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "logout@example.com",
		Password: "correct horse",
	})
	assert.NoError(t, err)

	assert.NoError(t, f.svc.Logout(ctx, result.RawToken))

	_, err = f.svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestSessionExpiry(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "expiry@example.com")

	result, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "expiry@example.com",
		Password: "correct horse",
	})
	assert.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	_, err = f.svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestChangePasswordInvalidatesOldOne(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, _ := f.signup(t, "rotate@example.com")

	assert.NoError(t, f.svc.ChangePassword(ctx, user.ID, "fresh passphrase"))

	_, err := f.svc.Login(ctx, domain.LoginRequest{
		Email:    "rotate@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, domain.LoginRequest{
		Email:    "rotate@example.com",
		Password: "fresh passphrase",
	})
	assert.NoError(t, err)
}
