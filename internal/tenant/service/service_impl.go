package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	"github.com/clubcore/clubcore/internal/tenant/domain"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Billing    billingdomain.Service
	Governance *config.GovernanceHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	billing    billingdomain.Service
	governance *config.GovernanceHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("tenant.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		billing:    p.Billing,
		governance: p.Governance,
	}
}

// Create provisions a tenant, its owner membership and its trial billing
// record in a single transaction, so a tenant never exists without a billing
// status to gate it on.
func (s *Service) Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.TenantResponse, error) {
	if req.OwnerUserID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	contactEmail := strings.TrimSpace(req.ContactEmail)
	if contactEmail != "" {
		if _, err := mail.ParseAddress(contactEmail); err != nil {
			return nil, domain.ErrInvalidEmail
		}
	}

	timezoneName := strings.TrimSpace(req.TimezoneName)
	if timezoneName == "" {
		timezoneName = "UTC"
	}
	if _, err := time.LoadLocation(timezoneName); err != nil {
		return nil, domain.ErrInvalidTimezone
	}

	now := s.clock.Now()
	tenantID := s.genID.Generate()
	tenant := domain.Tenant{
		ID:           tenantID,
		Name:         name,
		Slug:         slug.Make(name) + "-" + tenantID.String(),
		ContactEmail: contactEmail,
		TimezoneName: timezoneName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	trialDays := s.governance.Get().TrialDays

	var billingRecord *billingdomain.TenantBillingRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return err
		}

		member := domain.TenantMember{
			ID:        s.genID.Generate(),
			TenantID:  tenantID,
			UserID:    req.OwnerUserID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}

		record, err := s.billing.StartTrial(ctx, tx, tenantID, trialDays)
		if err != nil {
			return err
		}
		billingRecord = record

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("owner_user_id", req.OwnerUserID.String()),
		zap.Int("trial_days", trialDays),
	)

	return toResponse(tenant, billingRecord), nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID) (*domain.TenantResponse, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return toResponse(*tenant, nil), nil
}

func (s *Service) Update(ctx context.Context, tenantID snowflake.ID, req domain.UpdateTenantRequest) (*domain.TenantResponse, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.ContactEmail != nil {
		contactEmail := strings.TrimSpace(*req.ContactEmail)
		if contactEmail != "" {
			if _, err := mail.ParseAddress(contactEmail); err != nil {
				return nil, domain.ErrInvalidEmail
			}
		}
		fields["contact_email"] = contactEmail
	}
	if req.TimezoneName != nil {
		timezoneName := strings.TrimSpace(*req.TimezoneName)
		if timezoneName == "" {
			return nil, domain.ErrInvalidTimezone
		}
		if _, err := time.LoadLocation(timezoneName); err != nil {
			return nil, domain.ErrInvalidTimezone
		}
		fields["timezone_name"] = timezoneName
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, tenantID, fields); err != nil {
			return nil, err
		}
	}

	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return toResponse(*tenant, nil), nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.TenantListItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListTenantsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.TenantListItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.TenantListItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *Service) RoleOf(ctx context.Context, tenantID, userID snowflake.ID) (string, error) {
	if tenantID == 0 {
		return "", domain.ErrInvalidTenant
	}
	if userID == 0 {
		return "", domain.ErrInvalidUser
	}

	return s.repo.RoleOf(ctx, tenantID, userID)
}

func toResponse(tenant domain.Tenant, record *billingdomain.TenantBillingRecord) *domain.TenantResponse {
	resp := &domain.TenantResponse{
		ID:           tenant.ID.String(),
		Name:         tenant.Name,
		Slug:         tenant.Slug,
		ContactEmail: tenant.ContactEmail,
		TimezoneName: tenant.TimezoneName,
		CreatedAt:    tenant.CreatedAt,
	}
	if record != nil {
		resp.Billing = &domain.BillingStatusResponse{
			BillingStatus:  record.BillingStatus,
			TrialStartedAt: record.TrialStartedAt,
			TrialEndsAt:    record.TrialEndsAt,
		}
	}
	return resp
}
