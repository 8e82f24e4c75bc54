package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	"github.com/clubcore/clubcore/internal/auth/session"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	"github.com/clubcore/clubcore/internal/config"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

type stubAuthService struct {
	mu          sync.Mutex
	loginResult *authdomain.LoginResult
	loginErr    error
	session     *authdomain.Session
	authErr     error
	loginCalls  int
}

func (s *stubAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	return nil, nil
}

func (s *stubAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	s.mu.Lock()
	s.loginCalls++
	s.mu.Unlock()
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResult, nil
}

func (s *stubAuthService) Logout(ctx context.Context, rawToken string) error { return nil }

func (s *stubAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.session, nil
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID snowflake.ID, newPassword string) error {
	return nil
}

type stubTenantService struct {
	mu          sync.Mutex
	role        string
	roleErr     error
	updateCalls int
}

func (s *stubTenantService) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (*tenantdomain.TenantResponse, error) {
	return nil, nil
}

func (s *stubTenantService) GetByID(ctx context.Context, tenantID snowflake.ID) (*tenantdomain.TenantResponse, error) {
	return &tenantdomain.TenantResponse{ID: tenantID.String()}, nil
}

func (s *stubTenantService) Update(ctx context.Context, tenantID snowflake.ID, req tenantdomain.UpdateTenantRequest) (*tenantdomain.TenantResponse, error) {
	s.mu.Lock()
	s.updateCalls++
	s.mu.Unlock()
	return &tenantdomain.TenantResponse{ID: tenantID.String()}, nil
}

func (s *stubTenantService) ListByUser(ctx context.Context, userID snowflake.ID) ([]tenantdomain.TenantListItem, error) {
	return nil, nil
}

func (s *stubTenantService) RoleOf(ctx context.Context, tenantID, userID snowflake.ID) (string, error) {
	if s.roleErr != nil {
		return "", s.roleErr
	}
	return s.role, nil
}

// stubBillingService applies the real decision table against a settable
// status, standing in for the store-backed service.
type stubBillingService struct {
	mu     sync.Mutex
	status billingdomain.Status
}

func (s *stubBillingService) setStatus(status billingdomain.Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *stubBillingService) Authorize(ctx context.Context, tenantID snowflake.ID, class billingdomain.RequestClass) (billingdomain.Decision, error) {
	s.mu.Lock()
	status := s.status
	s.mu.Unlock()

	decision := billingdomain.Evaluate(status, class)
	if !decision.Allowed {
		return decision, &billingdomain.LockedError{Status: status, Class: class}
	}
	return decision, nil
}

func (s *stubBillingService) CurrentStatus(ctx context.Context, tenantID snowflake.ID) (billingdomain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, nil
}

func (s *stubBillingService) StartTrial(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, trialDays int) (*billingdomain.TenantBillingRecord, error) {
	return nil, nil
}

func (s *stubBillingService) SetStatus(ctx context.Context, tenantID snowflake.ID, status billingdomain.Status) (*billingdomain.TenantBillingRecord, error) {
	s.setStatus(status)
	return &billingdomain.TenantBillingRecord{TenantID: tenantID, BillingStatus: status}, nil
}

type stubPlanService struct {
	mu          sync.Mutex
	listCalls   int
	createCalls int
	updateCalls int
}

func (s *stubPlanService) Create(ctx context.Context, tenantID snowflake.ID, req plandomain.CreatePlanRequest) (*plandomain.MembershipPlan, error) {
	s.mu.Lock()
	s.createCalls++
	s.mu.Unlock()
	return &plandomain.MembershipPlan{TenantID: tenantID, Name: req.Name}, nil
}

func (s *stubPlanService) GetByID(ctx context.Context, tenantID snowflake.ID, id string) (*plandomain.MembershipPlan, error) {
	return nil, plandomain.ErrNotFound
}

func (s *stubPlanService) List(ctx context.Context, tenantID snowflake.ID, req plandomain.ListPlanRequest) ([]plandomain.MembershipPlan, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	return []plandomain.MembershipPlan{}, nil
}

func (s *stubPlanService) Update(ctx context.Context, tenantID snowflake.ID, id string, req plandomain.UpdatePlanRequest) (*plandomain.MembershipPlan, error) {
	s.mu.Lock()
	s.updateCalls++
	s.mu.Unlock()
	return nil, plandomain.ErrNotFound
}

func (s *stubPlanService) Archive(ctx context.Context, tenantID snowflake.ID, id string) (*plandomain.MembershipPlan, error) {
	return nil, plandomain.ErrNotFound
}

func (s *stubPlanService) Restore(ctx context.Context, tenantID snowflake.ID, id string) (*plandomain.MembershipPlan, error) {
	return nil, plandomain.ErrNotFound
}

func (s *stubPlanService) Delete(ctx context.Context, tenantID snowflake.ID, id string) error {
	return plandomain.ErrNotFound
}

type allowAllAuthz struct{}

func (allowAllAuthz) Authorize(ctx context.Context, actor, tenantID, object, action string) error {
	return nil
}

type stubAuditService struct {
	mu      sync.Mutex
	actions []string
}

func (s *stubAuditService) AuditLog(ctx context.Context, tenantID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	s.mu.Lock()
	s.actions = append(s.actions, action)
	s.mu.Unlock()
	return nil
}

func (s *stubAuditService) List(ctx context.Context, tenantID snowflake.ID, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type serverFixture struct {
	engine  *gin.Engine
	node    *snowflake.Node
	auth    *stubAuthService
	tenants *stubTenantService
	billing *stubBillingService
	plans   *stubPlanService
	audit   *stubAuditService
	tenant  snowflake.ID
	user    snowflake.ID
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	userID := node.Generate()
	tenantID := node.Generate()

	f := &serverFixture{
		node: node,
		auth: &stubAuthService{
			session: &authdomain.Session{ID: node.Generate(), UserID: userID},
		},
		tenants: &stubTenantService{role: tenantdomain.RoleOwner},
		billing: &stubBillingService{status: billingdomain.StatusActive},
		plans:   &stubPlanService{},
		audit:   &stubAuditService{},
		tenant:  tenantID,
		user:    userID,
	}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	cfg := config.Config{Environment: "production"}
	NewServer(ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		GenID:      node,
		Authsvc:    f.auth,
		Sessions:   session.NewManager(cfg),
		AuthzSvc:   allowAllAuthz{},
		AuditSvc:   f.audit,
		BillingSvc: f.billing,
		TenantSvc:  f.tenants,
		PlanSvc:    f.plans,
	})
	f.engine = engine

	return f
}

func (f *serverFixture) request(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "token"})
		req.Header.Set(HeaderTenant, f.tenant.String())
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestBillingGateSuspendedLockedBody(t *testing.T) {
	f := newServerFixture(t)
	f.billing.setStatus(billingdomain.StatusSuspended)

	w := f.request(http.MethodGet, "/api/plans", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t,
		`{"statusCode":403,"code":"TENANT_BILLING_LOCKED","message":"all access blocked for suspended tenant"}`,
		w.Body.String(),
	)
	assert.Equal(t, 0, f.plans.listCalls)
}

func TestBillingGatePastDueReadsAllowedMutationsDenied(t *testing.T) {
	f := newServerFixture(t)
	f.billing.setStatus(billingdomain.StatusPastDue)

	w := f.request(http.MethodGet, "/api/plans", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.plans.listCalls)

	w = f.request(http.MethodPost, "/api/plans", `{"name":"Gold","scope":"TENANT","price_cents":100,"currency":"EUR","duration_days":30}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t,
		`{"statusCode":403,"code":"TENANT_BILLING_LOCKED","message":"mutations blocked for past-due tenant"}`,
		w.Body.String(),
	)
	assert.Equal(t, 0, f.plans.createCalls)
}

func TestBillingGateFlipTakesEffectNextRequest(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/api/plans", "", true)
	assert.Equal(t, http.StatusOK, w.Code)

	// No new login, same cookie; only the stored status changed.
	f.billing.setStatus(billingdomain.StatusSuspended)

	w = f.request(http.MethodGet, "/api/plans", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLoginBillingLockIs403NotConfusableWith401(t *testing.T) {
	f := newServerFixture(t)
	f.auth.loginErr = &billingdomain.LockedError{
		Status: billingdomain.StatusSuspended,
		Class:  billingdomain.ClassLogin,
	}

	w := f.request(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`, false)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t,
		`{"statusCode":403,"code":"TENANT_BILLING_LOCKED","message":"login blocked for suspended tenant"}`,
		w.Body.String(),
	)
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	f := newServerFixture(t)
	f.auth.loginErr = authdomain.ErrInvalidCredentials

	w := f.request(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"unauthorized"`)
	f.audit.mu.Lock()
	assert.Contains(t, f.audit.actions, "user.login_failed")
	f.audit.mu.Unlock()
}

func TestLoginPastDueSurfacesBillingStatus(t *testing.T) {
	f := newServerFixture(t)
	status := billingdomain.StatusPastDue
	tenantID := f.tenant
	f.auth.loginResult = &authdomain.LoginResult{
		UserID:        f.user,
		Email:         "a@b.com",
		TenantID:      &tenantID,
		BillingStatus: &status,
		RawToken:      "token",
		ExpiresAt:     time.Now().Add(time.Hour),
	}

	w := f.request(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"billing_status":"PAST_DUE"`)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestUpdateTenantRejectsBillingFields(t *testing.T) {
	f := newServerFixture(t)

	for _, body := range []string{
		`{"name":"New Name","billing_status":"ACTIVE"}`,
		`{"billing":{"billing_status":"ACTIVE"}}`,
		`{"trial_ends_at":"2030-01-01T00:00:00Z"}`,
	} {
		w := f.request(http.MethodPatch, "/api/tenant", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "validation_error")
	}
	assert.Equal(t, 0, f.tenants.updateCalls)

	w := f.request(http.MethodPatch, "/api/tenant", `{"name":"New Name"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.tenants.updateCalls)
}

func TestUpdatePlanRejectsScopeChange(t *testing.T) {
	f := newServerFixture(t)
	planID := f.node.Generate().String()

	for _, body := range []string{
		`{"scope":"TENANT"}`,
		`{"branch_id":"123"}`,
		`{"scope_key":"TENANT"}`,
	} {
		w := f.request(http.MethodPatch, "/api/plans/"+planID, body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Equal(t, 0, f.plans.updateCalls)
}

func TestAPIRequiresSession(t *testing.T) {
	f := newServerFixture(t)

	w := f.request(http.MethodGet, "/api/plans", "", false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, f.plans.listCalls)
}

func TestAPIRequiresTenantHeader(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "token"})
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_tenant_header")
}

func TestAPINonMemberForbidden(t *testing.T) {
	f := newServerFixture(t)
	f.tenants.roleErr = tenantdomain.ErrNotMember

	w := f.request(http.MethodGet, "/api/plans", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
	// The generic envelope, not the billing one: membership and billing are
	// different locks.
	assert.Contains(t, w.Body.String(), `"forbidden"`)
	assert.NotContains(t, w.Body.String(), "TENANT_BILLING_LOCKED")
}
