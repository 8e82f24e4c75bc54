package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/internal/tenant/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTenant(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Create(&tenant).Error
}

func (r *repository) AddMember(ctx context.Context, member domain.TenantMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO tenant_members (id, tenant_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		member.ID,
		member.TenantID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &tenant, nil
}

func (r *repository) UpdateFields(ctx context.Context, tenantID snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Updates(fields).Error
}

func (r *repository) ListTenantsByUser(ctx context.Context, userID snowflake.ID) ([]domain.TenantMembership, error) {
	var items []domain.TenantMembership
	err := r.db.WithContext(ctx).Raw(
		`SELECT t.id, t.name, m.role, t.created_at
		 FROM tenants t
		 JOIN tenant_members m ON m.tenant_id = t.id
		 WHERE m.user_id = ?
		 ORDER BY t.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) RoleOf(ctx context.Context, tenantID, userID snowflake.ID) (string, error) {
	var role string
	err := r.db.WithContext(ctx).Raw(
		`SELECT role FROM tenant_members WHERE tenant_id = ? AND user_id = ?`,
		tenantID,
		userID,
	).Scan(&role).Error
	if err != nil {
		return "", err
	}
	if role == "" {
		return "", domain.ErrNotMember
	}

	return role, nil
}
