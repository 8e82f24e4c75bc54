package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.TenantBillingRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenant_billing_records (id, tenant_id, billing_status, trial_started_at, trial_ends_at, billing_status_updated_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.TenantID,
		record.BillingStatus,
		record.TrialStartedAt,
		record.TrialEndsAt,
		record.BillingStatusUpdatedAt,
		record.CreatedAt,
	).Error
}

func (r *repo) FindByTenantID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) (*domain.TenantBillingRecord, error) {
	var record domain.TenantBillingRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, billing_status, trial_started_at, trial_ends_at, billing_status_updated_at, created_at
		 FROM tenant_billing_records WHERE tenant_id = ?`,
		tenantID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, status domain.Status) error {
	return db.WithContext(ctx).Exec(
		`UPDATE tenant_billing_records
		 SET billing_status = ?, billing_status_updated_at = CURRENT_TIMESTAMP
		 WHERE tenant_id = ?`,
		status,
		tenantID,
	).Error
}
