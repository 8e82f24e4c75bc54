package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/branch/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, branch *domain.Branch) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO branches (id, tenant_id, name, address, phone, timezone_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		branch.ID,
		branch.TenantID,
		branch.Name,
		branch.Address,
		branch.Phone,
		branch.TimezoneName,
		branch.CreatedAt,
		branch.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Branch, error) {
	var branch domain.Branch
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, address, phone, timezone_name, created_at, updated_at
		 FROM branches WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&branch).Error
	if err != nil {
		return nil, err
	}
	if branch.ID == 0 {
		return nil, nil
	}
	return &branch, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]domain.Branch, error) {
	var branches []domain.Branch
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, address, phone, timezone_name, created_at, updated_at
		 FROM branches WHERE tenant_id = ?
		 ORDER BY created_at ASC, id ASC`,
		tenantID,
	).Scan(&branches).Error
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Branch{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Updates(fields)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error) {
	stmt := db.WithContext(ctx).Exec(
		`DELETE FROM branches WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	)
	return stmt.RowsAffected, stmt.Error
}

func (r *repo) OwnerTenant(ctx context.Context, db *gorm.DB, id snowflake.ID) (snowflake.ID, error) {
	var tenantID snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT tenant_id FROM branches WHERE id = ?`,
		id,
	).Scan(&tenantID).Error
	if err != nil {
		return 0, err
	}
	return tenantID, nil
}
