package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	branchrepo "github.com/clubcore/clubcore/internal/branch/repository"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	memberrepo "github.com/clubcore/clubcore/internal/member/repository"
	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
	membershiprepo "github.com/clubcore/clubcore/internal/membership/repository"
	"github.com/clubcore/clubcore/internal/payment/domain"
	"github.com/clubcore/clubcore/internal/payment/repository"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	periodlockrepo "github.com/clubcore/clubcore/internal/periodlock/repository"
	periodlockservice "github.com/clubcore/clubcore/internal/periodlock/service"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	planrepo "github.com/clubcore/clubcore/internal/plan/repository"
	"github.com/clubcore/clubcore/internal/providers/pdf"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
	tenantrepo "github.com/clubcore/clubcore/internal/tenant/repository"
)

type paymentFixture struct {
	svc    domain.Service
	locks  periodlockdomain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	tenant snowflake.ID
	member *memberdomain.Member
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&domain.Payment{},
		&memberdomain.Member{},
		&branchdomain.Branch{},
		&plandomain.MembershipPlan{},
		&membershipdomain.Membership{},
		&periodlockdomain.PeriodLock{},
		&tenantdomain.Tenant{},
	))

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	locks := periodlockservice.New(periodlockservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     periodlockrepo.Provide(),
		Branches: branchrepo.Provide(),
	})

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        repository.Provide(),
		Members:     memberrepo.Provide(),
		Branches:    branchrepo.Provide(),
		Plans:       planrepo.Provide(),
		Memberships: membershiprepo.Provide(),
		Locks:       locks,
		Tenants:     tenantrepo.NewRepository(db),
		PDF:         &pdf.NoOpProvider{},
		Governance:  config.StaticGovernance(config.DefaultGovernanceConfig()),
	})

	tenantID := node.Generate()
	tenant := &tenantdomain.Tenant{
		ID:        tenantID,
		Name:      "Iron Temple",
		Slug:      "iron-temple-" + tenantID.String(),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: fake.Now(),
		UpdatedAt: fake.Now(),
	}
	assert.NoError(t, db.Create(tenant).Error)

	member := &memberdomain.Member{
		ID:        node.Generate(),
		TenantID:  tenantID,
		FullName:  "Jamie Doe",
		Metadata:  datatypes.JSONMap{},
		JoinedAt:  fake.Now(),
		CreatedAt: fake.Now(),
		UpdatedAt: fake.Now(),
	}
	assert.NoError(t, db.Create(member).Error)

	return &paymentFixture{
		svc:    svc,
		locks:  locks,
		db:     db,
		node:   node,
		clock:  fake,
		tenant: tenantID,
		member: member,
	}
}

func (f *paymentFixture) lockMonth(t *testing.T, month string) {
	t.Helper()
	_, err := f.locks.Lock(context.Background(), f.tenant, f.node.Generate(), nil, month)
	assert.NoError(t, err)
}

func (f *paymentFixture) createPayment(t *testing.T, paidAt time.Time) *domain.Payment {
	t.Helper()
	payment, err := f.svc.Create(context.Background(), f.tenant, domain.CreatePaymentRequest{
		MemberID:    f.member.ID.String(),
		AmountCents: 4900,
		Currency:    "eur",
		Method:      "cash",
		PaidAt:      &paidAt,
	})
	assert.NoError(t, err)
	return payment
}

func TestCreatePaymentDerivesMonth(t *testing.T) {
	f := newPaymentFixture(t)

	paidAt := time.Date(2026, 2, 28, 23, 30, 0, 0, time.UTC)
	payment := f.createPayment(t, paidAt)
	assert.Equal(t, "2026-02", payment.Month)
	assert.Equal(t, "EUR", payment.Currency)
	assert.Equal(t, domain.MethodCash, payment.Method)

	// No PaidAt means the clock decides.
	now, err := f.svc.Create(context.Background(), f.tenant, domain.CreatePaymentRequest{
		MemberID:    f.member.ID.String(),
		AmountCents: 900,
		Currency:    "EUR",
		Method:      "CARD",
	})
	assert.NoError(t, err)
	assert.Equal(t, "2026-03", now.Month)
	assert.Equal(t, f.clock.Now(), now.PaidAt)
}

func TestCreatePaymentValidation(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	base := domain.CreatePaymentRequest{
		MemberID:    f.member.ID.String(),
		AmountCents: 4900,
		Currency:    "EUR",
		Method:      "CASH",
	}

	req := base
	req.MemberID = f.node.Generate().String()
	_, err := f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidMember)

	req = base
	req.AmountCents = 0
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	req = base
	req.Currency = "EURO"
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	req = base
	req.Method = "BARTER"
	_, err = f.svc.Create(ctx, f.tenant, req)
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)
}

func TestCreatePaymentIntoLockedMonthRejected(t *testing.T) {
	f := newPaymentFixture(t)
	f.lockMonth(t, "2026-02")

	paidFeb := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	_, err := f.svc.Create(context.Background(), f.tenant, domain.CreatePaymentRequest{
		MemberID:    f.member.ID.String(),
		AmountCents: 4900,
		Currency:    "EUR",
		Method:      "CASH",
		PaidAt:      &paidFeb,
	})
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)

	// An open month still accepts payments.
	f.createPayment(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
}

func TestUpdatePaymentChecksBothMonths(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment := f.createPayment(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))

	// Moving the payment into a locked month is rejected.
	f.lockMonth(t, "2026-02")
	paidFeb := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	_, err := f.svc.Update(ctx, f.tenant, payment.ID.String(), domain.UpdatePaymentRequest{PaidAt: &paidFeb})
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)

	// Once its own month is locked even a cosmetic edit is rejected.
	f.lockMonth(t, "2026-03")
	note := "late fee waived"
	_, err = f.svc.Update(ctx, f.tenant, payment.ID.String(), domain.UpdatePaymentRequest{Note: &note})
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)

	// Unlocking reopens the row.
	assert.NoError(t, f.locks.Unlock(ctx, f.tenant, nil, "2026-03"))
	updated, err := f.svc.Update(ctx, f.tenant, payment.ID.String(), domain.UpdatePaymentRequest{Note: &note})
	assert.NoError(t, err)
	assert.Equal(t, "late fee waived", updated.Note)
}

func TestDeletePaymentInLockedMonthRejected(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment := f.createPayment(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	f.lockMonth(t, "2026-03")

	err := f.svc.Delete(ctx, f.tenant, payment.ID.String())
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)

	assert.NoError(t, f.locks.Unlock(ctx, f.tenant, nil, "2026-03"))
	assert.NoError(t, f.svc.Delete(ctx, f.tenant, payment.ID.String()))
}

func TestReceiptIsAReadAndIgnoresLocks(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment := f.createPayment(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	f.lockMonth(t, "2026-03")

	_, err := f.svc.Receipt(ctx, f.tenant, payment.ID.String())
	assert.NoError(t, err)
}

func TestListPaymentsByMonth(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	f.createPayment(t, time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC))
	f.createPayment(t, time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC))
	f.createPayment(t, time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC))

	resp, err := f.svc.List(ctx, f.tenant, domain.ListPaymentRequest{Month: "2026-03"})
	assert.NoError(t, err)
	assert.Len(t, resp.Payments, 2)

	resp, err = f.svc.List(ctx, f.tenant, domain.ListPaymentRequest{Month: "2026-02"})
	assert.NoError(t, err)
	assert.Len(t, resp.Payments, 1)

	_, err = f.svc.List(ctx, f.tenant, domain.ListPaymentRequest{Month: "02-2026"})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}
