package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clubcore/clubcore/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Member, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListMemberFilter, page pagination.Pagination) ([]*Member, error)
	UpdateFields(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, fields map[string]any) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (int64, error)
}
