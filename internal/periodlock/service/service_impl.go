package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/periodlock/domain"
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
		log:      p.Log.Named("periodlock.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		branches: p.Branches,
	}
}

func (s *Service) Lock(ctx context.Context, tenantID, userID snowflake.ID, branchID *snowflake.ID, month string) (*domain.PeriodLock, error) {
	month, err := validate(tenantID, month)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwnBranch(ctx, tenantID, branchID); err != nil {
		return nil, err
	}

	branchKey := domain.DeriveBranchKey(branchID)
	lock := &domain.PeriodLock{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		BranchID:  branchID,
		BranchKey: branchKey,
		Month:     month,
		LockedBy:  userID,
		LockedAt:  s.clock.Now(),
	}

	for {
		if err := s.repo.Upsert(ctx, s.db, lock); err != nil {
			return nil, err
		}

		// The upsert may have been a no-op against an existing lock; return
		// whatever row actually holds the month.
		existing, err := s.repo.Find(ctx, s.db, tenantID, branchKey, month)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			// A concurrent unlock removed the row between the no-op upsert
			// and the re-read; insert again.
			continue
		}

		if existing.ID == lock.ID {
			s.log.Info("period locked",
				zap.String("tenant_id", tenantID.String()),
				zap.String("branch_key", branchKey),
				zap.String("month", month),
			)
		}
		return existing, nil
	}
}

func (s *Service) Unlock(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID, month string) error {
	month, err := validate(tenantID, month)
	if err != nil {
		return err
	}

	// No ownership check here: a foreign branch key never matches a row in
	// this tenant's partition, so it falls out as not found.
	branchKey := domain.DeriveBranchKey(branchID)
	affected, err := s.repo.Delete(ctx, s.db, tenantID, branchKey, month)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.log.Info("period unlocked",
		zap.String("tenant_id", tenantID.String()),
		zap.String("branch_key", branchKey),
		zap.String("month", month),
	)
	return nil
}

func (s *Service) CheckMonth(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID, month string) (bool, error) {
	month, err := validate(tenantID, month)
	if err != nil {
		return false, err
	}

	// A branch month is closed by its own lock or by a tenant-wide lock.
	keys := []string{domain.TenantBranchKey}
	if branchID != nil {
		keys = append(keys, branchID.String())
	}
	return s.repo.Exists(ctx, s.db, tenantID, month, keys)
}

func (s *Service) List(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID) ([]domain.PeriodLock, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}

	branchKey := ""
	if branchID != nil {
		branchKey = branchID.String()
	}
	return s.repo.List(ctx, s.db, tenantID, branchKey)
}

// requireOwnBranch validates a branch reference before a lock lands on it.
// A branch belonging to another tenant comes back with a generic error
// carrying no identifiers, so a caller cannot probe whether it exists.
func (s *Service) requireOwnBranch(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID) error {
	if branchID == nil {
		return nil
	}
	owner, err := s.branches.OwnerTenant(ctx, s.db, *branchID)
	if err != nil {
		return err
	}
	if owner != tenantID {
		return domain.ErrForeignBranch
	}
	return nil
}

func validate(tenantID snowflake.ID, month string) (string, error) {
	if tenantID == 0 {
		return "", domain.ErrInvalidTenant
	}
	month = strings.TrimSpace(month)
	if !domain.ValidMonth(month) {
		return "", domain.ErrInvalidMonth
	}
	return month, nil
}
