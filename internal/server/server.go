package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/clubcore/clubcore/internal/audit"
	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	"github.com/clubcore/clubcore/internal/auth"
	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	"github.com/clubcore/clubcore/internal/auth/session"
	"github.com/clubcore/clubcore/internal/authorization"
	"github.com/clubcore/clubcore/internal/billing"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	"github.com/clubcore/clubcore/internal/branch"
	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
	"github.com/clubcore/clubcore/internal/config"
	"github.com/clubcore/clubcore/internal/dashboard"
	dashboarddomain "github.com/clubcore/clubcore/internal/dashboard/domain"
	"github.com/clubcore/clubcore/internal/member"
	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	"github.com/clubcore/clubcore/internal/membership"
	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
	"github.com/clubcore/clubcore/internal/observability"
	obsmiddleware "github.com/clubcore/clubcore/internal/observability/logger"
	obsmetrics "github.com/clubcore/clubcore/internal/observability/metrics"
	obstracing "github.com/clubcore/clubcore/internal/observability/tracing"
	"github.com/clubcore/clubcore/internal/payment"
	paymentdomain "github.com/clubcore/clubcore/internal/payment/domain"
	"github.com/clubcore/clubcore/internal/periodlock"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	"github.com/clubcore/clubcore/internal/plan"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
	"github.com/clubcore/clubcore/internal/providers/pdf"
	"github.com/clubcore/clubcore/internal/ratelimit"
	"github.com/clubcore/clubcore/internal/signup"
	signupdomain "github.com/clubcore/clubcore/internal/signup/domain"
	"github.com/clubcore/clubcore/internal/tenant"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	session.Module,
	billing.Module,
	tenant.Module,
	branch.Module,
	member.Module,
	plan.Module,
	membership.Module,
	payment.Module,
	periodlock.Module,
	dashboard.Module,
	pdf.Module,
	ratelimit.Module,
	signup.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	authsvc       authdomain.Service
	sessions      *session.Manager
	authzSvc      authorization.Service
	auditSvc      auditdomain.Service
	billingSvc    billingdomain.Service
	tenantSvc     tenantdomain.Service
	branchSvc     branchdomain.Service
	memberSvc     memberdomain.Service
	planSvc       plandomain.Service
	membershipSvc membershipdomain.Service
	paymentSvc    paymentdomain.Service
	periodLockSvc periodlockdomain.Service
	dashboardSvc  dashboarddomain.Service
	signupSvc     signupdomain.Service
	loginLimiter  *ratelimit.LoginLimiter
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	Authsvc       authdomain.Service
	Sessions      *session.Manager
	AuthzSvc      authorization.Service
	AuditSvc      auditdomain.Service
	BillingSvc    billingdomain.Service
	TenantSvc     tenantdomain.Service
	BranchSvc     branchdomain.Service
	MemberSvc     memberdomain.Service
	PlanSvc       plandomain.Service
	MembershipSvc membershipdomain.Service
	PaymentSvc    paymentdomain.Service
	PeriodLockSvc periodlockdomain.Service
	DashboardSvc  dashboarddomain.Service
	SignupSvc     signupdomain.Service
	LoginLimiter  *ratelimit.LoginLimiter `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		authsvc:       p.Authsvc,
		sessions:      p.Sessions,
		authzSvc:      p.AuthzSvc,
		auditSvc:      p.AuditSvc,
		billingSvc:    p.BillingSvc,
		tenantSvc:     p.TenantSvc,
		branchSvc:     p.BranchSvc,
		memberSvc:     p.MemberSvc,
		planSvc:       p.PlanSvc,
		membershipSvc: p.MembershipSvc,
		paymentSvc:    p.PaymentSvc,
		periodLockSvc: p.PeriodLockSvc,
		dashboardSvc:  p.DashboardSvc,
		signupSvc:     p.SignupSvc,
		loginLimiter:  p.LoginLimiter,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerDevBillingRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/signup", s.Signup)
	auth.POST("/login", s.LoginRateLimit(), s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// Session first, then the active tenant, then the billing gate. The
	// gate re-reads billing status on every request.
	api.Use(s.AuthRequired())
	api.Use(s.TenantContext())
	api.Use(s.BillingGate())

	api.GET("/tenant", s.authorize(authorization.ObjectTenant, authorization.ActionView), s.GetTenant)
	api.PATCH("/tenant", s.authorize(authorization.ObjectTenant, authorization.ActionUpdate), s.UpdateTenant)

	api.GET("/branches", s.authorize(authorization.ObjectBranch, authorization.ActionView), s.ListBranches)
	api.POST("/branches", s.authorize(authorization.ObjectBranch, authorization.ActionCreate), s.CreateBranch)
	api.GET("/branches/:id", s.authorize(authorization.ObjectBranch, authorization.ActionView), s.GetBranchByID)
	api.PATCH("/branches/:id", s.authorize(authorization.ObjectBranch, authorization.ActionUpdate), s.UpdateBranch)
	api.DELETE("/branches/:id", s.authorize(authorization.ObjectBranch, authorization.ActionDelete), s.DeleteBranch)

	api.GET("/members", s.authorize(authorization.ObjectMember, authorization.ActionView), s.ListMembers)
	api.POST("/members", s.authorize(authorization.ObjectMember, authorization.ActionCreate), s.CreateMember)
	api.GET("/members/:id", s.authorize(authorization.ObjectMember, authorization.ActionView), s.GetMemberByID)
	api.PATCH("/members/:id", s.authorize(authorization.ObjectMember, authorization.ActionUpdate), s.UpdateMember)
	api.DELETE("/members/:id", s.authorize(authorization.ObjectMember, authorization.ActionDelete), s.DeleteMember)

	api.GET("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionView), s.ListPlans)
	api.POST("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionCreate), s.CreatePlan)
	api.GET("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionView), s.GetPlanByID)
	api.PATCH("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionUpdate), s.UpdatePlan)
	api.DELETE("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionDelete), s.DeletePlan)
	api.POST("/plans/:id/archive", s.authorize(authorization.ObjectPlan, authorization.ActionPlanArchive), s.ArchivePlan)
	api.POST("/plans/:id/restore", s.authorize(authorization.ObjectPlan, authorization.ActionPlanRestore), s.RestorePlan)

	api.GET("/memberships", s.authorize(authorization.ObjectMembership, authorization.ActionView), s.ListMemberships)
	api.POST("/memberships", s.authorize(authorization.ObjectMembership, authorization.ActionCreate), s.CreateMembership)
	api.GET("/memberships/:id", s.authorize(authorization.ObjectMembership, authorization.ActionView), s.GetMembershipByID)
	api.POST("/memberships/:id/cancel", s.authorize(authorization.ObjectMembership, authorization.ActionUpdate), s.CancelMembership)

	api.GET("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionCreate), s.CreatePayment)
	api.GET("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetPaymentByID)
	api.PATCH("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionUpdate), s.UpdatePayment)
	api.DELETE("/payments/:id", s.authorize(authorization.ObjectPayment, authorization.ActionDelete), s.DeletePayment)
	api.GET("/payments/:id/receipt", s.authorize(authorization.ObjectPayment, authorization.ActionPaymentReceipt), s.PaymentReceipt)

	api.GET("/period-locks", s.authorize(authorization.ObjectPeriodLock, authorization.ActionView), s.ListPeriodLocks)
	api.POST("/period-locks", s.authorize(authorization.ObjectPeriodLock, authorization.ActionPeriodLockLock), s.LockPeriod)
	api.GET("/period-locks/:month", s.authorize(authorization.ObjectPeriodLock, authorization.ActionView), s.CheckPeriodLock)
	api.DELETE("/period-locks/:month", s.authorize(authorization.ObjectPeriodLock, authorization.ActionPeriodLockUnlock), s.UnlockPeriod)

	api.GET("/dashboard", s.authorize(authorization.ObjectDashboard, authorization.ActionView), s.GetDashboard)

	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
