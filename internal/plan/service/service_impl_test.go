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

	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	branchrepo "github.com/clubcore/clubcore/internal/branch/repository"
	"github.com/clubcore/clubcore/internal/clock"
	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
	"github.com/clubcore/clubcore/internal/plan/domain"
	"github.com/clubcore/clubcore/internal/plan/repository"
)

type planFixture struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	tenant snowflake.ID
}

func newPlanFixture(t *testing.T) *planFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&domain.MembershipPlan{},
		&branchdomain.Branch{},
		&membershipdomain.Membership{},
	))
	// The partial index carries the uniqueness rule: active rows only.
	assert.NoError(t, db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_plan_active_name
		 ON membership_plans (tenant_id, scope_key, normalized_name)
		 WHERE archived_at IS NULL`,
	).Error)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Branches: branchrepo.Provide(),
	})

	return &planFixture{
		svc:    svc,
		db:     db,
		node:   node,
		clock:  fake,
		tenant: node.Generate(),
	}
}

func (f *planFixture) createBranch(t *testing.T, tenantID snowflake.ID, name string) *branchdomain.Branch {
	t.Helper()
	branch := &branchdomain.Branch{
		ID:        f.node.Generate(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	assert.NoError(t, f.db.Create(branch).Error)
	return branch
}

func (f *planFixture) createTenantPlan(t *testing.T, name string) *domain.MembershipPlan {
	t.Helper()
	plan, err := f.svc.Create(context.Background(), f.tenant, domain.CreatePlanRequest{
		Name:         name,
		Scope:        domain.ScopeTenant,
		PriceCents:   4900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.NoError(t, err)
	return plan
}

func TestCreatePlanValidation(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	base := domain.CreatePlanRequest{
		Name:         "Gold",
		Scope:        domain.ScopeTenant,
		PriceCents:   4900,
		Currency:     "EUR",
		DurationDays: 30,
	}

	req := base
	req.Name = "   "
	_, err := f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	req = base
	req.Scope = domain.Scope("GLOBAL")
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidScope)

	req = base
	req.PriceCents = -1
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	req = base
	req.Currency = "EURO"
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	req = base
	req.DurationDays = 0
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	req = base
	req.BranchID = f.node.Generate().String()
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidScope)

	_, err = f.svc.Create(ctx, 0, base)
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestCreatePlanDuplicateNameCaseInsensitive(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	f.createTenantPlan(t, "Gold")

	_, err := f.svc.Create(ctx, f.tenant, domain.CreatePlanRequest{
		Name:         "  GOLD ",
		Scope:        domain.ScopeTenant,
		PriceCents:   5900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestCreatePlanScopesAreSeparateNamespaces(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	branchA := f.createBranch(t, f.tenant, "Downtown")
	branchB := f.createBranch(t, f.tenant, "Harbor")

	f.createTenantPlan(t, "Gold")

	// Same name under a branch scope does not collide with the tenant scope.
	planA, err := f.svc.Create(ctx, f.tenant, domain.CreatePlanRequest{
		Name:         "Gold",
		Scope:        domain.ScopeBranch,
		BranchID:     branchA.ID.String(),
		PriceCents:   3900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.NoError(t, err)
	assert.Equal(t, branchA.ID.String(), planA.ScopeKey)

	// Nor with a sibling branch.
	_, err = f.svc.Create(ctx, f.tenant, domain.CreatePlanRequest{
		Name:         "Gold",
		Scope:        domain.ScopeBranch,
		BranchID:     branchB.ID.String(),
		PriceCents:   3900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.NoError(t, err)

	// But it does collide inside the same branch.
	_, err = f.svc.Create(ctx, f.tenant, domain.CreatePlanRequest{
		Name:         "gold",
		Scope:        domain.ScopeBranch,
		BranchID:     branchA.ID.String(),
		PriceCents:   3900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestCreatePlanForeignBranchRejected(t *testing.T) {
	f := newPlanFixture(t)
	otherTenant := f.node.Generate()
	foreign := f.createBranch(t, otherTenant, "Elsewhere")

	_, err := f.svc.Create(context.Background(), f.tenant, domain.CreatePlanRequest{
		Name:         "Gold",
		Scope:        domain.ScopeBranch,
		BranchID:     foreign.ID.String(),
		PriceCents:   3900,
		Currency:     "EUR",
		DurationDays: 30,
	})
	assert.ErrorIs(t, err, domain.ErrForeignBranch)
	// The error carries no identifiers a caller could use to probe.
	assert.Equal(t, "foreign_branch_reference", err.Error())
}

func TestInsertRaceCaughtByUniqueIndex(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()
	repo := repository.Provide()

	first := f.createTenantPlan(t, "Gold")

	// A concurrent create passes the pre-check before the first commit lands;
	// the partial unique index is what actually ends the race.
	racing := &domain.MembershipPlan{
		ID:             f.node.Generate(),
		TenantID:       f.tenant,
		Scope:          domain.ScopeTenant,
		ScopeKey:       first.ScopeKey,
		Name:           "GOLD",
		NormalizedName: "gold",
		Currency:       "EUR",
		DurationDays:   30,
		CreatedAt:      f.clock.Now(),
		UpdatedAt:      f.clock.Now(),
	}
	err := repo.Insert(ctx, f.db, racing)
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	// Over HTTP the winning create responds 200 with a data envelope, like
	// every other write surface here, and the loser maps to 409.
}

func TestUpdatePlanRename(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")
	f.createTenantPlan(t, "Silver")

	taken := "SILVER"
	_, err := f.svc.Update(ctx, f.tenant, gold.ID.String(), domain.UpdatePlanRequest{Name: &taken})
	assert.ErrorIs(t, err, domain.ErrNameTaken)

	// Re-casing its own name is not a conflict with itself.
	recased := "GOLD"
	updated, err := f.svc.Update(ctx, f.tenant, gold.ID.String(), domain.UpdatePlanRequest{Name: &recased})
	assert.NoError(t, err)
	assert.Equal(t, "GOLD", updated.Name)
	assert.Equal(t, "gold", updated.NormalizedName)
}

func TestUpdateArchivedPlanRejected(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")
	_, err := f.svc.Archive(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)

	price := int64(9900)
	_, err = f.svc.Update(ctx, f.tenant, gold.ID.String(), domain.UpdatePlanRequest{PriceCents: &price})
	assert.ErrorIs(t, err, domain.ErrPlanArchived)
}

func TestArchiveReleasesNameAndIsIdempotent(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")

	archived, err := f.svc.Archive(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)
	assert.True(t, archived.Archived())

	// Second archive is a no-op success.
	again, err := f.svc.Archive(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)
	assert.True(t, again.Archived())

	// The name is free again for a new active plan.
	f.createTenantPlan(t, "gold")
}

func TestRestoreConflictsWithRetakenName(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")
	_, err := f.svc.Archive(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)

	f.createTenantPlan(t, "gold")

	_, err = f.svc.Restore(ctx, f.tenant, gold.ID.String())
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestRestoreRequiresArchived(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")
	_, err := f.svc.Restore(ctx, f.tenant, gold.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotArchived)

	_, err = f.svc.Archive(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)

	restored, err := f.svc.Restore(ctx, f.tenant, gold.ID.String())
	assert.NoError(t, err)
	assert.False(t, restored.Archived())
}

func TestDeletePlanBlockedByMembershipRefs(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	gold := f.createTenantPlan(t, "Gold")
	membership := &membershipdomain.Membership{
		ID:        f.node.Generate(),
		TenantID:  f.tenant,
		MemberID:  f.node.Generate(),
		PlanID:    gold.ID,
		Status:    membershipdomain.MembershipActive,
		StartsAt:  f.clock.Now(),
		EndsAt:    f.clock.Now().AddDate(0, 1, 0),
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	assert.NoError(t, f.db.Create(membership).Error)

	err := f.svc.Delete(ctx, f.tenant, gold.ID.String())
	assert.ErrorIs(t, err, domain.ErrPlanInUse)

	assert.NoError(t, f.db.Delete(membership).Error)
	assert.NoError(t, f.svc.Delete(ctx, f.tenant, gold.ID.String()))

	_, err = f.svc.GetByID(ctx, f.tenant, gold.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPlansFilters(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	branch := f.createBranch(t, f.tenant, "Downtown")
	f.createTenantPlan(t, "Gold")
	silver := f.createTenantPlan(t, "Silver")
	_, err := f.svc.Create(ctx, f.tenant, domain.CreatePlanRequest{
		Name:         "Day Pass",
		Scope:        domain.ScopeBranch,
		BranchID:     branch.ID.String(),
		PriceCents:   900,
		Currency:     "EUR",
		DurationDays: 1,
	})
	assert.NoError(t, err)
	_, err = f.svc.Archive(ctx, f.tenant, silver.ID.String())
	assert.NoError(t, err)

	active, err := f.svc.List(ctx, f.tenant, domain.ListPlanRequest{})
	assert.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := f.svc.List(ctx, f.tenant, domain.ListPlanRequest{IncludeArchived: true})
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	branchOnly, err := f.svc.List(ctx, f.tenant, domain.ListPlanRequest{
		Scope:    "branch",
		BranchID: branch.ID.String(),
	})
	assert.NoError(t, err)
	assert.Len(t, branchOnly, 1)
	assert.Equal(t, "Day Pass", branchOnly[0].Name)
}
