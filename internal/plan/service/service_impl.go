package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/clock"
	obsmetrics "github.com/clubcore/clubcore/internal/observability/metrics"
	"github.com/clubcore/clubcore/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Branches branchdomain.Repository
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	branches branchdomain.Repository
	metrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("plan.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		branches: p.Branches,
		metrics:  p.Metrics,
	}
}

// Create claims a plan name inside its scope. The pre-check keeps the common
// duplicate friendly; the unique index behind repo.Insert catches the race
// when two creates carry the same name concurrently.
func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreatePlanRequest) (*domain.MembershipPlan, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if !req.Scope.Valid() {
		return nil, domain.ErrInvalidScope
	}
	if req.PriceCents < 0 {
		return nil, domain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}
	if req.DurationDays < 1 {
		return nil, domain.ErrInvalidDuration
	}

	var branchID *snowflake.ID
	switch req.Scope {
	case domain.ScopeBranch:
		id, err := s.resolveBranch(ctx, tenantID, req.BranchID)
		if err != nil {
			return nil, err
		}
		branchID = id
	case domain.ScopeTenant:
		if strings.TrimSpace(req.BranchID) != "" {
			return nil, domain.ErrInvalidScope
		}
	}

	scopeKey := domain.DeriveScopeKey(req.Scope, branchID)
	normalized := domain.NormalizeName(name)

	taken, err := s.repo.ActiveNameExists(ctx, s.db, tenantID, scopeKey, normalized, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		s.recordConflict(ctx, req.Scope)
		return nil, domain.ErrNameTaken
	}

	now := s.clock.Now()
	plan := &domain.MembershipPlan{
		ID:             s.genID.Generate(),
		TenantID:       tenantID,
		BranchID:       branchID,
		Scope:          req.Scope,
		ScopeKey:       scopeKey,
		Name:           name,
		NormalizedName: normalized,
		Description:    strings.TrimSpace(req.Description),
		PriceCents:     req.PriceCents,
		Currency:       currency,
		DurationDays:   req.DurationDays,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, plan); err != nil {
		if err == domain.ErrNameTaken {
			s.recordConflict(ctx, req.Scope)
		}
		return nil, err
	}

	return plan, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*domain.MembershipPlan, error) {
	planID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListPlanRequest) ([]domain.MembershipPlan, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	filter := domain.ListPlanFilter{IncludeArchived: req.IncludeArchived}
	if raw := strings.TrimSpace(req.Scope); raw != "" {
		scope := domain.Scope(strings.ToUpper(raw))
		if !scope.Valid() {
			return nil, domain.ErrInvalidScope
		}
		filter.Scope = scope
	}
	if raw := strings.TrimSpace(req.BranchID); raw != "" {
		branchID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidBranch
		}
		filter.BranchID = &branchID
	}

	return s.repo.List(ctx, s.db, tenantID, filter)
}

func (s *Service) Update(ctx context.Context, tenantID snowflake.ID, id string, req domain.UpdatePlanRequest) (*domain.MembershipPlan, error) {
	planID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	if plan.Archived() {
		return nil, domain.ErrPlanArchived
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		normalized := domain.NormalizeName(name)
		if normalized != plan.NormalizedName {
			taken, err := s.repo.ActiveNameExists(ctx, s.db, tenantID, plan.ScopeKey, normalized, planID)
			if err != nil {
				return nil, err
			}
			if taken {
				s.recordConflict(ctx, plan.Scope)
				return nil, domain.ErrNameTaken
			}
		}
		fields["name"] = name
		fields["normalized_name"] = normalized
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.PriceCents != nil {
		if *req.PriceCents < 0 {
			return nil, domain.ErrInvalidPrice
		}
		fields["price_cents"] = *req.PriceCents
	}
	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(currency) != 3 {
			return nil, domain.ErrInvalidCurrency
		}
		fields["currency"] = currency
	}
	if req.DurationDays != nil {
		if *req.DurationDays < 1 {
			return nil, domain.ErrInvalidDuration
		}
		fields["duration_days"] = *req.DurationDays
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		affected, err := s.repo.UpdateFields(ctx, s.db, tenantID, planID, fields)
		if err != nil {
			if err == domain.ErrNameTaken {
				s.recordConflict(ctx, plan.Scope)
			}
			return nil, err
		}
		if affected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	return s.GetByID(ctx, tenantID, id)
}

// Archive releases the plan's name. Archiving an archived plan is a no-op
// success so retries stay safe.
func (s *Service) Archive(ctx context.Context, tenantID snowflake.ID, id string) (*domain.MembershipPlan, error) {
	planID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	if plan.Archived() {
		return plan, nil
	}

	if _, err := s.repo.Archive(ctx, s.db, tenantID, planID, s.clock.Now()); err != nil {
		return nil, err
	}

	s.log.Info("plan archived",
		zap.String("tenant_id", tenantID.String()),
		zap.String("plan_id", planID.String()),
	)
	return s.GetByID(ctx, tenantID, id)
}

func (s *Service) Restore(ctx context.Context, tenantID snowflake.ID, id string) (*domain.MembershipPlan, error) {
	planID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	if !plan.Archived() {
		return nil, domain.ErrNotArchived
	}

	scopeKey := domain.DeriveScopeKey(plan.Scope, plan.BranchID)
	taken, err := s.repo.ActiveNameExists(ctx, s.db, tenantID, scopeKey, plan.NormalizedName, planID)
	if err != nil {
		return nil, err
	}
	if taken {
		s.recordConflict(ctx, plan.Scope)
		return nil, domain.ErrNameTaken
	}

	affected, err := s.repo.Restore(ctx, s.db, tenantID, planID, scopeKey, s.clock.Now())
	if err != nil {
		if err == domain.ErrNameTaken {
			s.recordConflict(ctx, plan.Scope)
		}
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotArchived
	}

	s.log.Info("plan restored",
		zap.String("tenant_id", tenantID.String()),
		zap.String("plan_id", planID.String()),
	)
	return s.GetByID(ctx, tenantID, id)
}

// Delete removes a plan outright. Any membership reference, active or not,
// keeps the row for history.
func (s *Service) Delete(ctx context.Context, tenantID snowflake.ID, id string) error {
	planID, err := parseID(tenantID, id)
	if err != nil {
		return err
	}

	plan, err := s.repo.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return domain.ErrNotFound
	}

	refs, err := s.repo.CountMembershipRefs(ctx, s.db, tenantID, planID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrPlanInUse
	}

	affected, err := s.repo.Delete(ctx, s.db, tenantID, planID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("plan deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("plan_id", planID.String()),
	)
	return nil
}

// resolveBranch validates a branch reference for a branch-scoped plan. A
// malformed id and a branch belonging to another tenant both come back with
// generic errors carrying no identifiers, so a caller cannot probe whether a
// foreign branch exists.
func (s *Service) resolveBranch(ctx context.Context, tenantID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrInvalidBranch
	}

	branchID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidBranch
	}

	owner, err := s.branches.OwnerTenant(ctx, s.db, branchID)
	if err != nil {
		return nil, err
	}
	if owner != tenantID {
		return nil, domain.ErrForeignBranch
	}
	return &branchID, nil
}

func (s *Service) recordConflict(ctx context.Context, scope domain.Scope) {
	s.metrics.RecordPlanNameConflict(ctx, string(scope))
}

func parseID(tenantID snowflake.ID, id string) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidID
	}
	planID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return planID, nil
}
