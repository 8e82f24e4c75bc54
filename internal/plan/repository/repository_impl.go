package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/plan/domain"
	"github.com/clubcore/clubcore/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, gdb *gorm.DB, plan *domain.MembershipPlan) error {
	err := gdb.WithContext(ctx).Create(plan).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrNameTaken
	}
	return err
}

func (r *repo) FindByID(ctx context.Context, gdb *gorm.DB, tenantID, id snowflake.ID) (*domain.MembershipPlan, error) {
	var plan domain.MembershipPlan
	err := gdb.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, gdb *gorm.DB, tenantID snowflake.ID, filter domain.ListPlanFilter) ([]domain.MembershipPlan, error) {
	var plans []domain.MembershipPlan
	stmt := gdb.WithContext(ctx).
		Model(&domain.MembershipPlan{}).
		Where("tenant_id = ?", tenantID)
	if filter.Scope != "" {
		stmt = stmt.Where("scope = ?", filter.Scope)
	}
	if filter.BranchID != nil {
		stmt = stmt.Where("branch_id = ?", *filter.BranchID)
	}
	if !filter.IncludeArchived {
		stmt = stmt.Where("archived_at IS NULL")
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ActiveNameExists(ctx context.Context, gdb *gorm.DB, tenantID snowflake.ID, scopeKey, normalizedName string, excludeID snowflake.ID) (bool, error) {
	var count int64
	err := gdb.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM membership_plans
		 WHERE tenant_id = ? AND scope_key = ? AND normalized_name = ?
		   AND archived_at IS NULL AND id <> ?`,
		tenantID,
		scopeKey,
		normalizedName,
		excludeID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) UpdateFields(ctx context.Context, gdb *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error) {
	stmt := gdb.WithContext(ctx).
		Model(&domain.MembershipPlan{}).
		Where("tenant_id = ? AND id = ? AND archived_at IS NULL", tenantID, id).
		Updates(fields)
	if db.IsDuplicateKeyErr(stmt.Error) {
		return 0, domain.ErrNameTaken
	}
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Archive(ctx context.Context, gdb *gorm.DB, tenantID, id snowflake.ID, archivedAt time.Time) (int64, error) {
	stmt := gdb.WithContext(ctx).Exec(
		`UPDATE membership_plans SET archived_at = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND archived_at IS NULL`,
		archivedAt,
		archivedAt,
		tenantID,
		id,
	)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Restore(ctx context.Context, gdb *gorm.DB, tenantID, id snowflake.ID, scopeKey string, restoredAt time.Time) (int64, error) {
	stmt := gdb.WithContext(ctx).Exec(
		`UPDATE membership_plans SET archived_at = NULL, scope_key = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND archived_at IS NOT NULL`,
		scopeKey,
		restoredAt,
		tenantID,
		id,
	)
	if db.IsDuplicateKeyErr(stmt.Error) {
		return 0, domain.ErrNameTaken
	}
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Delete(ctx context.Context, gdb *gorm.DB, tenantID, id snowflake.ID) (int64, error) {
	stmt := gdb.WithContext(ctx).Exec(
		`DELETE FROM membership_plans WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) CountMembershipRefs(ctx context.Context, gdb *gorm.DB, tenantID, planID snowflake.ID) (int64, error) {
	var count int64
	err := gdb.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM memberships WHERE tenant_id = ? AND plan_id = ?`,
		tenantID,
		planID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
