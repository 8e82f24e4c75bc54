// Package authorization enforces per-tenant RBAC with casbin. Policies are
// persisted through the gorm adapter; role grants live in tenant_members and
// are mirrored into casbin grouping rules on demand.
package authorization

import (
	"context"
	"errors"
)

type Service interface {
	// Authorize checks that actor may perform action on object within the
	// tenant's domain. actor is "user:<id>" or "system".
	Authorize(ctx context.Context, actor string, tenantID string, object string, action string) error
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
	ErrForbidden     = errors.New("forbidden")
)

const (
	ObjectTenant     = "tenant"
	ObjectBranch     = "branch"
	ObjectMember     = "member"
	ObjectPlan       = "plan"
	ObjectMembership = "membership"
	ObjectPayment    = "payment"
	ObjectPeriodLock = "period_lock"
	ObjectDashboard  = "dashboard"
	ObjectAuditLog   = "audit_log"
	ObjectBilling    = "billing"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionPlanArchive = "plan.archive"
	ActionPlanRestore = "plan.restore"

	ActionPeriodLockLock   = "period_lock.lock"
	ActionPeriodLockUnlock = "period_lock.unlock"

	ActionPaymentReceipt = "payment.receipt"

	ActionBillingSetStatus = "billing.set_status"
)
