package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Upsert inserts the lock if the month is free for its branch key and is
	// a no-op when it is already locked, so concurrent lock calls converge
	// on one row.
	Upsert(ctx context.Context, db *gorm.DB, lock *PeriodLock) error
	Find(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey, month string) (*PeriodLock, error)
	// Exists reports whether any lock with one of the given branch keys
	// covers the month.
	Exists(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, month string, branchKeys []string) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey, month string) (int64, error)
	// List returns the tenant's locks, optionally narrowed to one branch key.
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, branchKey string) ([]PeriodLock, error)
}

// Service manages per-month payment freezes. A nil branchID addresses the
// tenant-wide lock; a non-nil one addresses that branch's own lock.
type Service interface {
	// Lock is idempotent; locking a locked month returns the existing record.
	Lock(ctx context.Context, tenantID, userID snowflake.ID, branchID *snowflake.ID, month string) (*PeriodLock, error)
	Unlock(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID, month string) error
	// CheckMonth reports whether the month is closed for the given branch.
	// A tenant-wide lock closes the month for every branch.
	CheckMonth(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID, month string) (bool, error)
	// List returns all of the tenant's locks when branchID is nil, or only
	// the named branch's locks otherwise.
	List(ctx context.Context, tenantID snowflake.ID, branchID *snowflake.ID) ([]PeriodLock, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidMonth  = errors.New("invalid_month")
	ErrInvalidBranch = errors.New("invalid_branch_reference")
	ErrForeignBranch = errors.New("foreign_branch_reference")
	ErrNotFound      = errors.New("not_found")
)
