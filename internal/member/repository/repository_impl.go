package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/member/domain"
	"github.com/clubcore/clubcore/pkg/db/option"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *domain.Member) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter domain.ListMemberFilter, page pagination.Pagination) ([]*domain.Member, error) {
	var members []*domain.Member
	stmt := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		stmt = stmt.Where("(LOWER(full_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?))", pattern, pattern)
	}
	if filter.BranchID != nil {
		stmt = stmt.Where("home_branch_id = ?", *filter.BranchID)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(fields)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error) {
	stmt := db.WithContext(ctx).Exec(
		`DELETE FROM members WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	)
	return stmt.RowsAffected, stmt.Error
}
