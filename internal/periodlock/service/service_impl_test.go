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
	"github.com/clubcore/clubcore/internal/periodlock/domain"
	"github.com/clubcore/clubcore/internal/periodlock/repository"
)

type lockFixture struct {
	svc    domain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	tenant snowflake.ID
}

func newLockFixture(t *testing.T) *lockFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.PeriodLock{}, &branchdomain.Branch{}))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     repository.Provide(),
		Branches: branchrepo.Provide(),
	})
	return &lockFixture{
		svc:    svc,
		db:     db,
		node:   node,
		clock:  fake,
		tenant: node.Generate(),
	}
}

func (f *lockFixture) createBranch(t *testing.T, tenantID snowflake.ID, name string) *snowflake.ID {
	t.Helper()
	branch := &branchdomain.Branch{
		ID:        f.node.Generate(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	assert.NoError(t, f.db.Create(branch).Error)
	return &branch.ID
}

func TestLockIsIdempotent(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	alice := f.node.Generate()
	bob := f.node.Generate()

	first, err := f.svc.Lock(ctx, f.tenant, alice, nil, "2026-02")
	assert.NoError(t, err)
	assert.Equal(t, "2026-02", first.Month)
	assert.Equal(t, alice, first.LockedBy)
	assert.Equal(t, domain.TenantBranchKey, first.BranchKey)

	// A second lock keeps the original holder and timestamp.
	second, err := f.svc.Lock(ctx, f.tenant, bob, nil, "2026-02")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, alice, second.LockedBy)
}

func TestUnlockMissingMonth(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()

	err := f.svc.Unlock(ctx, f.tenant, nil, "2026-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, "2026-02")
	assert.NoError(t, err)
	assert.NoError(t, f.svc.Unlock(ctx, f.tenant, nil, "2026-02"))

	// Unlock is not idempotent; the second call reports the missing lock.
	err = f.svc.Unlock(ctx, f.tenant, nil, "2026-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckMonth(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()

	locked, err := f.svc.CheckMonth(ctx, f.tenant, nil, "2026-02")
	assert.NoError(t, err)
	assert.False(t, locked)

	_, err = f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, "2026-02")
	assert.NoError(t, err)

	locked, err = f.svc.CheckMonth(ctx, f.tenant, nil, "2026-02")
	assert.NoError(t, err)
	assert.True(t, locked)
}

func TestBranchLocksAreIndependent(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()
	east := f.createBranch(t, f.tenant, "East")
	west := f.createBranch(t, f.tenant, "West")

	lock, err := f.svc.Lock(ctx, f.tenant, userID, east, "2026-02")
	assert.NoError(t, err)
	assert.Equal(t, east.String(), lock.BranchKey)

	// Only the locked branch's month is closed.
	locked, err := f.svc.CheckMonth(ctx, f.tenant, east, "2026-02")
	assert.NoError(t, err)
	assert.True(t, locked)

	locked, err = f.svc.CheckMonth(ctx, f.tenant, west, "2026-02")
	assert.NoError(t, err)
	assert.False(t, locked)

	locked, err = f.svc.CheckMonth(ctx, f.tenant, nil, "2026-02")
	assert.NoError(t, err)
	assert.False(t, locked)
}

func TestTenantWideLockCoversEveryBranch(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	east := f.createBranch(t, f.tenant, "East")

	_, err := f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, "2026-02")
	assert.NoError(t, err)

	locked, err := f.svc.CheckMonth(ctx, f.tenant, east, "2026-02")
	assert.NoError(t, err)
	assert.True(t, locked)

	// Unlocking the branch does not touch the tenant-wide lock.
	err = f.svc.Unlock(ctx, f.tenant, east, "2026-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLockForeignBranchRejected(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	otherTenant := f.node.Generate()
	foreign := f.createBranch(t, otherTenant, "Elsewhere")

	_, err := f.svc.Lock(ctx, f.tenant, f.node.Generate(), foreign, "2026-02")
	assert.ErrorIs(t, err, domain.ErrForeignBranch)
	assert.Equal(t, "foreign_branch_reference", err.Error())
}

func TestLocksAreTenantScoped(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	tenantB := f.node.Generate()

	_, err := f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, "2026-02")
	assert.NoError(t, err)

	locked, err := f.svc.CheckMonth(ctx, tenantB, nil, "2026-02")
	assert.NoError(t, err)
	assert.False(t, locked)

	err = f.svc.Unlock(ctx, tenantB, nil, "2026-02")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrdersNewestMonthFirst(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()

	for _, month := range []string{"2026-01", "2025-12", "2026-02"} {
		_, err := f.svc.Lock(ctx, f.tenant, userID, nil, month)
		assert.NoError(t, err)
	}

	locks, err := f.svc.List(ctx, f.tenant, nil)
	assert.NoError(t, err)
	assert.Len(t, locks, 3)
	assert.Equal(t, "2026-02", locks[0].Month)
	assert.Equal(t, "2026-01", locks[1].Month)
	assert.Equal(t, "2025-12", locks[2].Month)
}

func TestListFiltersByBranch(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()
	userID := f.node.Generate()
	east := f.createBranch(t, f.tenant, "East")

	_, err := f.svc.Lock(ctx, f.tenant, userID, nil, "2026-01")
	assert.NoError(t, err)
	_, err = f.svc.Lock(ctx, f.tenant, userID, east, "2026-02")
	assert.NoError(t, err)

	all, err := f.svc.List(ctx, f.tenant, nil)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	branchOnly, err := f.svc.List(ctx, f.tenant, east)
	assert.NoError(t, err)
	assert.Len(t, branchOnly, 1)
	assert.Equal(t, "2026-02", branchOnly[0].Month)
}

// vanishingLockRepo drops the row once between the first upsert and the
// first re-read, the way a concurrent unlock would.
type vanishingLockRepo struct {
	upserts int
	finds   int
	stored  *domain.PeriodLock
}

func (r *vanishingLockRepo) Upsert(_ context.Context, _ *gorm.DB, lock *domain.PeriodLock) error {
	r.upserts++
	row := *lock
	r.stored = &row
	return nil
}

func (r *vanishingLockRepo) Find(_ context.Context, _ *gorm.DB, _ snowflake.ID, _, _ string) (*domain.PeriodLock, error) {
	r.finds++
	if r.finds == 1 {
		r.stored = nil
		return nil, nil
	}
	return r.stored, nil
}

func (r *vanishingLockRepo) Exists(_ context.Context, _ *gorm.DB, _ snowflake.ID, _ string, _ []string) (bool, error) {
	return r.stored != nil, nil
}

func (r *vanishingLockRepo) Delete(_ context.Context, _ *gorm.DB, _ snowflake.ID, _, _ string) (int64, error) {
	return 0, nil
}

func (r *vanishingLockRepo) List(_ context.Context, _ *gorm.DB, _ snowflake.ID, _ string) ([]domain.PeriodLock, error) {
	return nil, nil
}

func TestLockRetriesAfterConcurrentUnlock(t *testing.T) {
	repo := &vanishingLockRepo{}
	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	svc := New(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)),
		Repo:     repo,
		Branches: branchrepo.Provide(),
	})

	lock, err := svc.Lock(context.Background(), node.Generate(), node.Generate(), nil, "2026-02")
	assert.NoError(t, err)
	assert.Equal(t, "2026-02", lock.Month)

	// The first insert vanished under the unlock; Lock must not report the
	// never-persisted struct as success but insert again and return the row
	// that actually exists.
	assert.Equal(t, 2, repo.upserts)
	assert.NotNil(t, repo.stored)
	assert.Equal(t, repo.stored.ID, lock.ID)
}

func TestMonthValidation(t *testing.T) {
	f := newLockFixture(t)
	ctx := context.Background()

	for _, month := range []string{"2025-13", "2025-00", "202502", "2025-2", "next month", ""} {
		_, err := f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, month)
		assert.ErrorIs(t, err, domain.ErrInvalidMonth, month)
	}

	// Leading and trailing spaces are tolerated.
	lock, err := f.svc.Lock(ctx, f.tenant, f.node.Generate(), nil, " 2026-02 ")
	assert.NoError(t, err)
	assert.Equal(t, "2026-02", lock.Month)

	_, err = f.svc.Lock(ctx, 0, f.node.Generate(), nil, "2026-02")
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}
