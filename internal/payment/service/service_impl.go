package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
	obsmetrics "github.com/clubcore/clubcore/internal/observability/metrics"
	"github.com/clubcore/clubcore/internal/payment/domain"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	"github.com/clubcore/clubcore/internal/providers/pdf"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	Members     memberdomain.Repository
	Branches    branchdomain.Repository
	Plans       plandomain.Repository
	Memberships membershipdomain.Repository
	Locks       periodlockdomain.Service
	Tenants     tenantdomain.Repository
	PDF         pdf.Provider
	Governance  *config.GovernanceHolder
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	members     memberdomain.Repository
	branches    branchdomain.Repository
	plans       plandomain.Repository
	memberships membershipdomain.Repository
	locks       periodlockdomain.Service
	tenants     tenantdomain.Repository
	pdf         pdf.Provider
	governance  *config.GovernanceHolder
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		members:     p.Members,
		branches:    p.Branches,
		plans:       p.Plans,
		memberships: p.Memberships,
		locks:       p.Locks,
		tenants:     p.Tenants,
		pdf:         p.PDF,
		governance:  p.Governance,
		metrics:     p.Metrics,
	}
}

// Create records a ledger entry. The payment's month comes from PaidAt, and a
// locked month rejects the write before anything touches the table.
func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreatePaymentRequest) (*domain.Payment, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	memberID, err := snowflake.ParseString(strings.TrimSpace(req.MemberID))
	if err != nil {
		return nil, domain.ErrInvalidMember
	}
	member, err := s.members.FindByID(ctx, s.db, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrInvalidMember
	}

	if req.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.Method)))
	if !method.Valid() {
		return nil, domain.ErrInvalidMethod
	}

	var membershipID *snowflake.ID
	if raw := strings.TrimSpace(req.MembershipID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		membership, err := s.memberships.FindByID(ctx, s.db, tenantID, id)
		if err != nil {
			return nil, err
		}
		if membership == nil || membership.MemberID != memberID {
			return nil, domain.ErrInvalidID
		}
		membershipID = &id
	}

	var branchID *snowflake.ID
	if raw := strings.TrimSpace(req.BranchID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidBranch
		}
		branch, err := s.branches.FindByID(ctx, s.db, tenantID, id)
		if err != nil {
			return nil, err
		}
		if branch == nil {
			return nil, domain.ErrInvalidBranch
		}
		branchID = &id
	}

	now := s.clock.Now()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	month := periodlockdomain.MonthOf(paidAt)

	if err := s.requireUnlocked(ctx, tenantID, branchID, month, "create"); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		MemberID:     memberID,
		MembershipID: membershipID,
		BranchID:     branchID,
		AmountCents:  req.AmountCents,
		Currency:     currency,
		Method:       method,
		Reference:    strings.TrimSpace(req.Reference),
		Note:         strings.TrimSpace(req.Note),
		PaidAt:       paidAt,
		Month:        month,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, payment); err != nil {
		return nil, err
	}

	s.metrics.RecordPaymentRecorded(ctx, string(method))
	return payment, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*domain.Payment, error) {
	paymentID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}
	return payment, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	if tenantID == 0 {
		return domain.ListPaymentResponse{}, domain.ErrInvalidTenant
	}

	filter := domain.ListPaymentFilter{}
	if raw := strings.TrimSpace(req.MemberID); raw != "" {
		memberID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListPaymentResponse{}, domain.ErrInvalidMember
		}
		filter.MemberID = &memberID
	}
	if raw := strings.TrimSpace(req.Month); raw != "" {
		if !periodlockdomain.ValidMonth(raw) {
			return domain.ListPaymentResponse{}, domain.ErrInvalidMonth
		}
		filter.Month = raw
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, tenantID, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(payment *domain.Payment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        payment.ID.String(),
			CreatedAt: payment.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	resp := domain.ListPaymentResponse{Payments: payments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

// Update checks both the month the payment currently sits in and the month a
// changed PaidAt would move it to; either being locked rejects the edit.
func (s *Service) Update(ctx context.Context, tenantID snowflake.ID, id string, req domain.UpdatePaymentRequest) (*domain.Payment, error) {
	paymentID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.requireUnlocked(ctx, tenantID, payment.BranchID, payment.Month, "update"); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.AmountCents != nil {
		if *req.AmountCents <= 0 {
			return nil, domain.ErrInvalidAmount
		}
		fields["amount_cents"] = *req.AmountCents
	}
	if req.Method != nil {
		method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(*req.Method)))
		if !method.Valid() {
			return nil, domain.ErrInvalidMethod
		}
		fields["method"] = method
	}
	if req.Reference != nil {
		fields["reference"] = strings.TrimSpace(*req.Reference)
	}
	if req.Note != nil {
		fields["note"] = strings.TrimSpace(*req.Note)
	}
	if req.PaidAt != nil {
		newMonth := periodlockdomain.MonthOf(*req.PaidAt)
		if newMonth != payment.Month {
			if err := s.requireUnlocked(ctx, tenantID, payment.BranchID, newMonth, "update"); err != nil {
				return nil, err
			}
		}
		fields["paid_at"] = *req.PaidAt
		fields["month"] = newMonth
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		affected, err := s.repo.UpdateFields(ctx, s.db, tenantID, paymentID, fields)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	return s.GetByID(ctx, tenantID, id)
}

func (s *Service) Delete(ctx context.Context, tenantID snowflake.ID, id string) error {
	paymentID, err := parseID(tenantID, id)
	if err != nil {
		return err
	}

	payment, err := s.repo.FindByID(ctx, s.db, tenantID, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return domain.ErrNotFound
	}

	if err := s.requireUnlocked(ctx, tenantID, payment.BranchID, payment.Month, "delete"); err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, s.db, tenantID, paymentID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("payment deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", paymentID.String()),
	)
	return nil
}

func (s *Service) Receipt(ctx context.Context, tenantID snowflake.ID, id string) ([]byte, error) {
	payment, err := s.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	member, err := s.members.FindByID(ctx, s.db, tenantID, payment.MemberID)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReceiptData{
		ReceiptNumber: "RCP-" + payment.ID.String(),
		GymName:       tenant.Name,
		Method:        string(payment.Method),
		Amount:        formatAmount(payment.AmountCents, payment.Currency),
		DatePaid:      payment.PaidAt.Format("2006-01-02"),
		Reference:     payment.Reference,
		FooterNote:    s.governance.Get().ReceiptFooterNote,
	}
	if member != nil {
		data.MemberName = member.FullName
	}
	if payment.BranchID != nil {
		branch, err := s.branches.FindByID(ctx, s.db, tenantID, *payment.BranchID)
		if err != nil {
			return nil, err
		}
		if branch != nil {
			data.BranchName = branch.Name
		}
	}
	if payment.MembershipID != nil {
		membership, err := s.memberships.FindByID(ctx, s.db, tenantID, *payment.MembershipID)
		if err != nil {
			return nil, err
		}
		if membership != nil {
			plan, err := s.plans.FindByID(ctx, s.db, tenantID, membership.PlanID)
			if err != nil {
				return nil, err
			}
			if plan != nil {
				data.PlanName = plan.Name
			}
		}
	}
	if data.PlanName == "" {
		data.PlanName = "Membership payment"
	}

	reader, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, nil
	}
	return io.ReadAll(reader)
}

func (s *Service) requireUnlocked(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID, month, operation string) error {
	locked, err := s.locks.CheckMonth(ctx, tenantID, branchID, month)
	if err != nil {
		return err
	}
	if locked {
		s.metrics.RecordPeriodLockDenied(ctx, operation)
		return domain.ErrPeriodLocked
	}
	return nil
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, cents/100, cents%100)
}

func parseID(tenantID snowflake.ID, id string) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidID
	}
	paymentID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return paymentID, nil
}
