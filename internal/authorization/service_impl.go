package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, tenantID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return ErrInvalidTenant
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := s.resolveActor(ctx, actor, tenantID)
	if err != nil {
		s.auditDenied(ctx, actorType, actorID, tenantID, object, action)
		return err
	}

	domain := fmt.Sprintf("tenant:%s", tenantID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, actorType, actorID, tenantID, object, action)
		return ErrForbidden
	}

	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, tenantID string) (string, string, string, *string, error) {
	if actor == "system" {
		return actor, "role:system", "system", nil, nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		userIDStr := userID.String()
		parsedTenantID, err := snowflake.ParseString(tenantID)
		if err != nil || parsedTenantID == 0 {
			return actor, "", "user", &userIDStr, ErrInvalidTenant
		}
		role, err := s.roleForUser(ctx, parsedTenantID, userID)
		if err != nil {
			return actor, "", "user", &userIDStr, err
		}
		roleName := fmt.Sprintf("role:%s", strings.ToLower(role))
		return actor, roleName, "user", &userIDStr, nil
	}
	return "", "", "", nil, ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, tenantID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM tenant_members
		 WHERE tenant_id = ? AND user_id = ?
		 LIMIT 1`,
		tenantID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, actorType string, actorID *string, tenantID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	parsedTenantID, err := snowflake.ParseString(tenantID)
	if err != nil || parsedTenantID == 0 {
		return
	}
	targetID := "capability"
	_ = s.auditSvc.AuditLog(ctx, &parsedTenantID, actorType, actorID, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":    object,
		"action":    action,
		"actor":     actorType,
		"tenant_id": tenantID,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	crud := func(role, object string) [][]string {
		return [][]string{
			{role, "*", object, ActionView},
			{role, "*", object, ActionCreate},
			{role, "*", object, ActionUpdate},
			{role, "*", object, ActionDelete},
		}
	}

	policies := [][]string{
		// Front desk: day-to-day member handling, no destructive access.
		{"role:front_desk", "*", ObjectBranch, ActionView},
		{"role:front_desk", "*", ObjectMember, ActionView},
		{"role:front_desk", "*", ObjectMember, ActionCreate},
		{"role:front_desk", "*", ObjectMember, ActionUpdate},
		{"role:front_desk", "*", ObjectPlan, ActionView},
		{"role:front_desk", "*", ObjectMembership, ActionView},
		{"role:front_desk", "*", ObjectMembership, ActionCreate},
		{"role:front_desk", "*", ObjectPayment, ActionView},
		{"role:front_desk", "*", ObjectPayment, ActionCreate},
		{"role:front_desk", "*", ObjectPayment, ActionPaymentReceipt},
		{"role:front_desk", "*", ObjectDashboard, ActionView},

		// Manager: full operational control short of tenant settings.
		{"role:manager", "*", ObjectPlan, ActionPlanArchive},
		{"role:manager", "*", ObjectPlan, ActionPlanRestore},
		{"role:manager", "*", ObjectMembership, ActionUpdate},
		{"role:manager", "*", ObjectPayment, ActionPaymentReceipt},
		{"role:manager", "*", ObjectPeriodLock, ActionView},
		{"role:manager", "*", ObjectPeriodLock, ActionPeriodLockLock},
		{"role:manager", "*", ObjectDashboard, ActionView},
		{"role:manager", "*", ObjectTenant, ActionView},

		// Owner: everything the manager has plus tenant settings, unlock and
		// audit access.
		{"role:owner", "*", ObjectPlan, ActionPlanArchive},
		{"role:owner", "*", ObjectPlan, ActionPlanRestore},
		{"role:owner", "*", ObjectPayment, ActionPaymentReceipt},
		{"role:owner", "*", ObjectPeriodLock, ActionView},
	}

	for _, role := range []string{"role:manager", "role:owner"} {
		policies = append(policies, crud(role, ObjectBranch)...)
		policies = append(policies, crud(role, ObjectMember)...)
		policies = append(policies, crud(role, ObjectPlan)...)
		policies = append(policies, crud(role, ObjectMembership)...)
		policies = append(policies, crud(role, ObjectPayment)...)
	}

	policies = append(policies,
		[]string{"role:owner", "*", ObjectPeriodLock, ActionPeriodLockLock},
		[]string{"role:owner", "*", ObjectPeriodLock, ActionPeriodLockUnlock},
		[]string{"role:owner", "*", ObjectDashboard, ActionView},
		[]string{"role:owner", "*", ObjectTenant, ActionView},
		[]string{"role:owner", "*", ObjectTenant, ActionUpdate},
		[]string{"role:owner", "*", ObjectAuditLog, ActionView},
	)

	// System: automated processes, including the external billing transition.
	policies = append(policies,
		[]string{"role:system", "*", ObjectBilling, ActionBillingSetStatus},
	)
	for _, object := range []string{
		ObjectTenant, ObjectBranch, ObjectMember, ObjectPlan,
		ObjectMembership, ObjectPayment, ObjectPeriodLock,
		ObjectDashboard, ObjectAuditLog,
	} {
		policies = append(policies, crud("role:system", object)...)
	}

	for _, policy := range policies {
		if len(policy) < 4 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
