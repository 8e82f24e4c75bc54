package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/membership/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, membership *domain.Membership) error {
	return db.WithContext(ctx).Create(membership).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Membership, error) {
	var membership domain.Membership
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&membership).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &membership, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, memberID *snowflake.ID, status domain.MembershipStatus) ([]domain.Membership, error) {
	var memberships []domain.Membership
	stmt := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("tenant_id = ?", tenantID)
	if memberID != nil {
		stmt = stmt.Where("member_id = ?", *memberID)
	}
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	err := stmt.
		Order("created_at desc, id desc").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, from, to domain.MembershipStatus, at time.Time) (int64, error) {
	stmt := db.WithContext(ctx).Exec(
		`UPDATE memberships SET status = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND status = ?`,
		to,
		at,
		tenantID,
		id,
		from,
	)
	return stmt.RowsAffected, stmt.Error
}
