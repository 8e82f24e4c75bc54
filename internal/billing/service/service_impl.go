package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/billing/domain"
	"github.com/clubcore/clubcore/internal/clock"
	obsmetrics "github.com/clubcore/clubcore/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Authorize performs a fresh read of the billing status for every call. A
// status flipped between two requests of the same session takes effect on
// the very next request; nothing here trusts a token-embedded value.
func (s *Service) Authorize(ctx context.Context, tenantID snowflake.ID, class domain.RequestClass) (domain.Decision, error) {
	status, err := s.CurrentStatus(ctx, tenantID)
	if err != nil {
		return domain.Decision{}, err
	}

	decision := domain.Evaluate(status, class)
	if !decision.Allowed {
		s.metrics.RecordBillingDenied(ctx, string(status), string(class))
		return decision, &domain.LockedError{Status: status, Class: class}
	}
	return decision, nil
}

func (s *Service) CurrentStatus(ctx context.Context, tenantID snowflake.ID) (domain.Status, error) {
	if tenantID == 0 {
		return "", domain.ErrInvalidTenant
	}

	record, err := s.repo.FindByTenantID(ctx, s.db, tenantID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", domain.ErrRecordNotFound
	}
	return record.BillingStatus, nil
}

func (s *Service) StartTrial(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, trialDays int) (*domain.TenantBillingRecord, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	now := s.clock.Now()
	record := &domain.TenantBillingRecord{
		ID:                     s.genID.Generate(),
		TenantID:               tenantID,
		BillingStatus:          domain.StatusTrial,
		TrialStartedAt:         now,
		TrialEndsAt:            domain.TrialEndsAt(now, trialDays),
		BillingStatusUpdatedAt: now,
		CreatedAt:              now,
	}

	if err := s.repo.Insert(ctx, tx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) SetStatus(ctx context.Context, tenantID snowflake.ID, status domain.Status) (*domain.TenantBillingRecord, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	record, err := s.repo.FindByTenantID(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}

	if err := s.repo.UpdateStatus(ctx, s.db, tenantID, status); err != nil {
		return nil, err
	}

	s.log.Info("billing status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("from", string(record.BillingStatus)),
		zap.String("to", string(status)),
	)

	return s.repo.FindByTenantID(ctx, s.db, tenantID)
}
