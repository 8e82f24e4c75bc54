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

	"github.com/clubcore/clubcore/internal/billing/domain"
	"github.com/clubcore/clubcore/internal/billing/repository"
	"github.com/clubcore/clubcore/internal/clock"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&domain.TenantBillingRecord{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM tenant_billing_records")
	})

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, db, fake, node
}

func TestStartTrialCreatesRecord(t *testing.T) {
	svc, db, fake, node := newTestService(t)
	ctx := context.Background()
	tenantID := node.Generate()

	record, err := svc.StartTrial(ctx, db, tenantID, 14)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusTrial, record.BillingStatus)
	assert.Equal(t, fake.Now(), record.TrialStartedAt)
	assert.Equal(t, fake.Now().AddDate(0, 0, 14), record.TrialEndsAt)

	status, err := svc.CurrentStatus(ctx, tenantID)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusTrial, status)
}

func TestAuthorizeReadsStatusFreshEachCall(t *testing.T) {
	svc, db, _, node := newTestService(t)
	ctx := context.Background()
	tenantID := node.Generate()

	_, err := svc.StartTrial(ctx, db, tenantID, 7)
	assert.NoError(t, err)

	decision, err := svc.Authorize(ctx, tenantID, domain.ClassMutate)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)

	// No re-login happens between these two calls; the flip must still bite.
	_, err = svc.SetStatus(ctx, tenantID, domain.StatusSuspended)
	assert.NoError(t, err)

	_, err = svc.Authorize(ctx, tenantID, domain.ClassRead)
	var locked *domain.LockedError
	assert.True(t, errors.As(err, &locked))
	assert.Equal(t, domain.StatusSuspended, locked.Status)
	assert.Equal(t, domain.ClassRead, locked.Class)
}

func TestAuthorizePastDue(t *testing.T) {
	svc, db, _, node := newTestService(t)
	ctx := context.Background()
	tenantID := node.Generate()

	_, err := svc.StartTrial(ctx, db, tenantID, 7)
	assert.NoError(t, err)
	_, err = svc.SetStatus(ctx, tenantID, domain.StatusPastDue)
	assert.NoError(t, err)

	decision, err := svc.Authorize(ctx, tenantID, domain.ClassRead)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = svc.Authorize(ctx, tenantID, domain.ClassLogin)
	assert.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.IncludeStatus)

	_, err = svc.Authorize(ctx, tenantID, domain.ClassMutate)
	var locked *domain.LockedError
	assert.True(t, errors.As(err, &locked))
	assert.Equal(t, domain.StatusPastDue, locked.Status)
}

func TestSetStatusValidation(t *testing.T) {
	svc, db, _, node := newTestService(t)
	ctx := context.Background()
	tenantID := node.Generate()

	_, err := svc.SetStatus(ctx, tenantID, domain.Status("CANCELLED"))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.SetStatus(ctx, tenantID, domain.StatusActive)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = svc.StartTrial(ctx, db, tenantID, 7)
	assert.NoError(t, err)

	record, err := svc.SetStatus(ctx, tenantID, domain.StatusActive)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusActive, record.BillingStatus)
}

func TestCurrentStatusUnknownTenant(t *testing.T) {
	svc, _, _, node := newTestService(t)

	_, err := svc.CurrentStatus(context.Background(), node.Generate())
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = svc.CurrentStatus(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTenant)
}
