package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/clock"
	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	"github.com/clubcore/clubcore/internal/membership/domain"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
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
	Members memberdomain.Repository
	Plans   plandomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	members memberdomain.Repository
	plans   plandomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("membership.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		members: p.Members,
		plans:   p.Plans,
	}
}

// Create assigns a plan to a member. Only active plans accept new
// assignments; an archived plan keeps serving the memberships it already has.
func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreateMembershipRequest) (*domain.Membership, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	memberID, err := snowflake.ParseString(strings.TrimSpace(req.MemberID))
	if err != nil {
		return nil, domain.ErrInvalidMember
	}
	planID, err := snowflake.ParseString(strings.TrimSpace(req.PlanID))
	if err != nil {
		return nil, domain.ErrInvalidPlan
	}

	member, err := s.members.FindByID(ctx, s.db, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrInvalidMember
	}

	plan, err := s.plans.FindByID(ctx, s.db, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrInvalidPlan
	}
	if plan.Archived() {
		return nil, domain.ErrPlanArchived
	}

	now := s.clock.Now()
	startsAt := now
	if req.StartsAt != nil {
		startsAt = *req.StartsAt
	}

	membership := &domain.Membership{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		MemberID:  memberID,
		PlanID:    planID,
		Status:    domain.MembershipActive,
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, membership); err != nil {
		return nil, err
	}

	return membership, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*domain.Membership, error) {
	membershipID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	membership, err := s.repo.FindByID(ctx, s.db, tenantID, membershipID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, domain.ErrNotFound
	}
	return membership, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListMembershipRequest) ([]domain.Membership, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	var memberID *snowflake.ID
	if raw := strings.TrimSpace(req.MemberID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidMember
		}
		memberID = &id
	}

	var status domain.MembershipStatus
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status = domain.MembershipStatus(strings.ToUpper(raw))
		switch status {
		case domain.MembershipActive, domain.MembershipCancelled, domain.MembershipExpired:
		default:
			return nil, domain.ErrInvalidStatus
		}
	}

	return s.repo.List(ctx, s.db, tenantID, memberID, status)
}

func (s *Service) Cancel(ctx context.Context, tenantID snowflake.ID, id string) (*domain.Membership, error) {
	membershipID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	membership, err := s.repo.FindByID(ctx, s.db, tenantID, membershipID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, domain.ErrNotFound
	}
	if membership.Status != domain.MembershipActive {
		return nil, domain.ErrNotActive
	}

	affected, err := s.repo.UpdateStatus(ctx, s.db, tenantID, membershipID,
		domain.MembershipActive, domain.MembershipCancelled, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotActive
	}

	s.log.Info("membership cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("membership_id", membershipID.String()),
	)
	return s.GetByID(ctx, tenantID, id)
}

func parseID(tenantID snowflake.ID, id string) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidID
	}
	membershipID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return membershipID, nil
}
