package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service is the billing gate consumed by every endpoint and by login.
type Service interface {
	// Authorize re-reads the tenant's billing status and evaluates it against
	// the request class. It returns *LockedError on deny.
	Authorize(ctx context.Context, tenantID snowflake.ID, class RequestClass) (Decision, error)

	// CurrentStatus returns the tenant's billing status, fresh from the store.
	CurrentStatus(ctx context.Context, tenantID snowflake.ID) (Status, error)

	// StartTrial creates the billing record inside the tenant-creation
	// transaction. trialDays comes from governance policy.
	StartTrial(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, trialDays int) (*TenantBillingRecord, error)

	// SetStatus is the administrative transition used by the external billing
	// process; it is never reachable from the tenant-update surface.
	SetStatus(ctx context.Context, tenantID snowflake.ID, status Status) (*TenantBillingRecord, error)
}

// TrialEndsAt computes the trial expiry for a trial started at the given time.
func TrialEndsAt(startedAt time.Time, trialDays int) time.Time {
	if trialDays < 1 {
		trialDays = 7
	}
	return startedAt.Add(time.Duration(trialDays) * 24 * time.Hour)
}
