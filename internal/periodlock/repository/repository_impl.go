package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/periodlock/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, lock *domain.PeriodLock) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "branch_key"}, {Name: "month"}},
			DoNothing: true,
		}).
		Create(lock).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey, month string) (*domain.PeriodLock, error) {
	var lock domain.PeriodLock
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND branch_key = ? AND month = ?", tenantID, branchKey, month).
		Take(&lock).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &lock, nil
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, month string, branchKeys []string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.PeriodLock{}).
		Where("tenant_id = ? AND month = ? AND branch_key IN ?", tenantID, month, branchKeys).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey, month string) (int64, error) {
	stmt := db.WithContext(ctx).Exec(
		`DELETE FROM period_locks WHERE tenant_id = ? AND branch_key = ? AND month = ?`,
		tenantID,
		branchKey,
		month,
	)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey string) ([]domain.PeriodLock, error) {
	query := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID)
	if branchKey != "" {
		query = query.Where("branch_key = ?", branchKey)
	}

	var locks []domain.PeriodLock
	err := query.Order("month DESC").Order("branch_key ASC").Find(&locks).Error
	if err != nil {
		return nil, err
	}
	return locks, nil
}
