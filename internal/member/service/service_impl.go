package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/member/domain"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	branches branchdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("member.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		branches: p.Branches,
	}
}

func (s *Service) Create(ctx context.Context, tenantID snowflake.ID, req domain.CreateMemberRequest) (*domain.Member, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, domain.ErrInvalidEmail
		}
	}

	homeBranchID, err := s.resolveBranch(ctx, tenantID, req.HomeBranchID)
	if err != nil {
		return nil, err
	}

	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	now := s.clock.Now()
	joinedAt := now
	if req.JoinedAt != nil {
		joinedAt = *req.JoinedAt
	}

	member := &domain.Member{
		ID:           s.genID.Generate(),
		TenantID:     tenantID,
		HomeBranchID: homeBranchID,
		FullName:     fullName,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Metadata:     metadata,
		JoinedAt:     joinedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, member); err != nil {
		return nil, err
	}

	return member, nil
}

func (s *Service) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*domain.Member, error) {
	memberID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.FindByID(ctx, s.db, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, req domain.ListMemberRequest) (domain.ListMemberResponse, error) {
	if tenantID == 0 {
		return domain.ListMemberResponse{}, domain.ErrInvalidTenant
	}

	filter := domain.ListMemberFilter{
		Search: strings.TrimSpace(req.Search),
	}
	if raw := strings.TrimSpace(req.BranchID); raw != "" {
		branchID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListMemberResponse{}, domain.ErrInvalidBranch
		}
		filter.BranchID = &branchID
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
		return domain.ListMemberResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(member *domain.Member) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        member.ID.String(),
			CreatedAt: member.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	members := make([]domain.Member, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		members = append(members, *item)
	}

	resp := domain.ListMemberResponse{Members: members}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) Update(ctx context.Context, tenantID snowflake.ID, id string, req domain.UpdateMemberRequest) (*domain.Member, error) {
	memberID, err := parseID(tenantID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.FullName != nil {
		fullName := strings.TrimSpace(*req.FullName)
		if fullName == "" {
			return nil, domain.ErrInvalidName
		}
		fields["full_name"] = fullName
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				return nil, domain.ErrInvalidEmail
			}
		}
		fields["email"] = email
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.HomeBranchID != nil {
		homeBranchID, err := s.resolveBranch(ctx, tenantID, *req.HomeBranchID)
		if err != nil {
			return nil, err
		}
		fields["home_branch_id"] = homeBranchID
	}
	if req.Metadata != nil {
		metadata := datatypes.JSONMap{}
		for k, v := range req.Metadata {
			metadata[k] = v
		}
		fields["metadata"] = metadata
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		affected, err := s.repo.UpdateFields(ctx, s.db, tenantID, memberID, fields)
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, domain.ErrNotFound
		}
	}

	member, err := s.repo.FindByID(ctx, s.db, tenantID, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (s *Service) Delete(ctx context.Context, tenantID snowflake.ID, id string) error {
	memberID, err := parseID(tenantID, id)
	if err != nil {
		return err
	}

	var refs int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT (SELECT COUNT(1) FROM memberships WHERE tenant_id = ? AND member_id = ?)
		      + (SELECT COUNT(1) FROM payments WHERE tenant_id = ? AND member_id = ?)`,
		tenantID, memberID,
		tenantID, memberID,
	).Scan(&refs).Error
	if err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrMemberInUse
	}

	affected, err := s.repo.Delete(ctx, s.db, tenantID, memberID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// resolveBranch validates an optional home-branch reference. Both a malformed
// id and a branch outside the caller's tenant come back as the same error so
// the response never confirms whether a foreign branch exists.
func (s *Service) resolveBranch(ctx context.Context, tenantID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	branchID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidBranch
	}

	branch, err := s.branches.FindByID(ctx, s.db, tenantID, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.ErrInvalidBranch
	}
	return &branch.ID, nil
}

func parseID(tenantID snowflake.ID, id string) (snowflake.ID, error) {
	if tenantID == 0 {
		return 0, domain.ErrInvalidTenant
	}
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidID
	}
	memberID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidID
	}
	return memberID, nil
}
