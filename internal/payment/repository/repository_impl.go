package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/payment/domain"
	"github.com/clubcore/clubcore/pkg/db/option"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter domain.ListPaymentFilter, page pagination.Pagination) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("tenant_id = ?", tenantID)
	if filter.MemberID != nil {
		stmt = stmt.Where("member_id = ?", *filter.MemberID)
	}
	if filter.Month != "" {
		stmt = stmt.Where("month = ?", filter.Month)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(fields)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error) {
	stmt := db.WithContext(ctx).Exec(
		`DELETE FROM payments WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	)
	return stmt.RowsAffected, stmt.Error
}
