package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	billingrepo "github.com/clubcore/clubcore/internal/billing/repository"
	billingservice "github.com/clubcore/clubcore/internal/billing/service"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	"github.com/clubcore/clubcore/internal/tenant/domain"
	"github.com/clubcore/clubcore/internal/tenant/repository"
)

type tenantFixture struct {
	svc     domain.Service
	billing billingdomain.Service
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
}

func newTenantFixture(t *testing.T) *tenantFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&domain.Tenant{},
		&domain.TenantMember{},
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

	governance := config.StaticGovernance(config.GovernanceConfig{
		TrialDays:       14,
		LoginRatePerMin: 10,
		LoginBurst:      5,
	})

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       repository.NewRepository(db),
		Billing:    billing,
		Governance: governance,
	})

	return &tenantFixture{svc: svc, billing: billing, db: db, node: node, clock: fake}
}

func TestCreateTenantStartsTrial(t *testing.T) {
	f := newTenantFixture(t)
	ctx := context.Background()
	owner := f.node.Generate()

	resp, err := f.svc.Create(ctx, domain.CreateTenantRequest{
		Name:        "Iron Temple",
		OwnerUserID: owner,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Iron Temple", resp.Name)
	assert.Equal(t, "UTC", resp.TimezoneName)
	assert.NotNil(t, resp.Billing)
	assert.Equal(t, billingdomain.StatusTrial, resp.Billing.BillingStatus)
	assert.Equal(t, f.clock.Now(), resp.Billing.TrialStartedAt)
	assert.Equal(t, f.clock.Now().AddDate(0, 0, 14), resp.Billing.TrialEndsAt)

	tenantID, err := snowflake.ParseString(resp.ID)
	assert.NoError(t, err)

	// The owner membership and billing record land in the same transaction.
	role, err := f.svc.RoleOf(ctx, tenantID, owner)
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, role)

	status, err := f.billing.CurrentStatus(ctx, tenantID)
	assert.NoError(t, err)
	assert.Equal(t, billingdomain.StatusTrial, status)
}

func TestCreateTenantValidation(t *testing.T) {
	f := newTenantFixture(t)
	ctx := context.Background()
	owner := f.node.Generate()

	_, err := f.svc.Create(ctx, domain.CreateTenantRequest{Name: "Gym"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = f.svc.Create(ctx, domain.CreateTenantRequest{Name: "  ", OwnerUserID: owner})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(ctx, domain.CreateTenantRequest{
		Name:         "Gym",
		OwnerUserID:  owner,
		ContactEmail: "not-an-email",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.svc.Create(ctx, domain.CreateTenantRequest{
		Name:         "Gym",
		OwnerUserID:  owner,
		TimezoneName: "Mars/Olympus",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
}

func TestRoleOfNonMember(t *testing.T) {
	f := newTenantFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, domain.CreateTenantRequest{
		Name:        "Iron Temple",
		OwnerUserID: f.node.Generate(),
	})
	assert.NoError(t, err)

	tenantID, err := snowflake.ParseString(resp.ID)
	assert.NoError(t, err)

	_, err = f.svc.RoleOf(ctx, tenantID, f.node.Generate())
	assert.ErrorIs(t, err, domain.ErrNotMember)
}

func TestUpdateTenantCosmeticFields(t *testing.T) {
	f := newTenantFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, domain.CreateTenantRequest{
		Name:        "Iron Temple",
		OwnerUserID: f.node.Generate(),
	})
	assert.NoError(t, err)

	tenantID, err := snowflake.ParseString(resp.ID)
	assert.NoError(t, err)

	name := "Iron Temple II"
	tz := "Europe/Berlin"
	updated, err := f.svc.Update(ctx, tenantID, domain.UpdateTenantRequest{
		Name:         &name,
		TimezoneName: &tz,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Iron Temple II", updated.Name)
	assert.Equal(t, "Europe/Berlin", updated.TimezoneName)

	bad := "Nowhere/Null"
	_, err = f.svc.Update(ctx, tenantID, domain.UpdateTenantRequest{TimezoneName: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
}

func TestListByUser(t *testing.T) {
	f := newTenantFixture(t)
	ctx := context.Background()
	owner := f.node.Generate()

	_, err := f.svc.Create(ctx, domain.CreateTenantRequest{Name: "Gym A", OwnerUserID: owner})
	assert.NoError(t, err)
	_, err = f.svc.Create(ctx, domain.CreateTenantRequest{Name: "Gym B", OwnerUserID: owner})
	assert.NoError(t, err)

	items, err := f.svc.ListByUser(ctx, owner)
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, domain.RoleOwner, item.Role)
	}
}
