package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("branch.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreateBranchRequest) (*domain.BranchResponse, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	timezoneName := strings.TrimSpace(req.TimezoneName)
	if timezoneName != "" {
		if _, err := time.LoadLocation(timezoneName); err != nil {
			return nil, domain.ErrInvalidTimezone
		}
	}

	now := s.clock.Now()
	branch := &domain.Branch{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		Name:         name,
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		TimezoneName: timezoneName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, branch); err != nil {
		return nil, err
	}

	return toResponse(branch), nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*domain.BranchResponse, error) {
	branchID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	branch, err := s.repo.FindByID(ctx, s.db, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}

	return toResponse(branch), nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID) ([]domain.BranchResponse, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	branches, err := s.repo.List(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.BranchResponse, 0, len(branches))
	for i := range branches {
		resp = append(resp, *toResponse(&branches[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, tenantID snowflake.ID, id string, req domain.UpdateBranchRequest) (*domain.BranchResponse, error) {
	branchID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.TimezoneName != nil {
		timezoneName := strings.TrimSpace(*req.TimezoneName)
		if timezoneName != "" {
			if _, err := time.LoadLocation(timezoneName); err != nil {
				return nil, domain.ErrInvalidTimezone
			}
		}
		fields["timezone_name"] = timezoneName
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		affected, err := s.repo.UpdateFields(ctx, s.db, tenantID, branchID, fields)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	branch, err := s.repo.FindByID(ctx, s.db, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrNotFound
	}

	return toResponse(branch), nil
}

// Delete removes a branch only when nothing references it. Plans and member
// home assignments keep their branch rows alive.
func (s *Service) Delete(ctx context.Context, tenantID snowflake.ID, id string) error {
	branchID, err := parseID(tenantID, id)
	if err != nil {
		return err
	}

	var refs int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT (SELECT COUNT(1) FROM membership_plans WHERE tenant_id = ? AND branch_id = ?)
		      + (SELECT COUNT(1) FROM members WHERE tenant_id = ? AND home_branch_id = ?)`,
		tenantID, branchID,
		tenantID, branchID,
	).Scan(&refs).Error
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrBranchInUse
	}

	affected, err := s.repo.Delete(ctx, s.db, tenantID, branchID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("branch deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("branch_id", branchID.String()),
	)
	return nil
}

func parseID(tenantID snowflake.ID, id string) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidID
	}
	branchID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return branchID, nil
}

func toResponse(branch *domain.Branch) *domain.BranchResponse {
	return &domain.BranchResponse{
		ID:           branch.ID.String(),
		TenantID:     branch.TenantID.String(),
		Name:         branch.Name,
		Address:      branch.Address,
		Phone:        branch.Phone,
		TimezoneName: branch.TimezoneName,
		CreatedAt:    branch.CreatedAt,
		UpdatedAt:    branch.UpdatedAt,
	}
}
