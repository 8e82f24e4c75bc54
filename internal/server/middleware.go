package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	obscontext "github.com/clubcore/clubcore/internal/observability/context"
	"github.com/clubcore/clubcore/internal/tenantctx"
)

// HeaderTenant selects the active tenant for the request. The session only
// proves who the user is; which gym they act on is explicit per request.
const HeaderTenant = "X-Tenant-Id"

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := tenantctx.WithUserID(c.Request.Context(), sess.UserID)
		ctx = obscontext.WithActor(ctx, "user", sess.UserID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TenantContext resolves the tenant header and verifies the authenticated
// user is a member. The role lands in the context for casbin to pick up.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := tenantctx.UserIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		raw := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if raw == "" {
			AbortWithError(c, newValidationError("tenant", "missing_tenant_header", "missing "+HeaderTenant+" header"))
			return
		}
		tenantID, err := snowflake.ParseString(raw)
		if err != nil || tenantID == 0 {
			AbortWithError(c, newValidationError("tenant", "invalid_tenant_header", "invalid "+HeaderTenant+" header"))
			return
		}

		role, err := s.tenantSvc.RoleOf(c.Request.Context(), tenantID, userID)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), tenantID)
		ctx = tenantctx.WithRole(ctx, role)
		ctx = obscontext.WithTenantID(ctx, tenantID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BillingGate applies the billing decision table to every tenant-scoped
// request. Status is read fresh from the store each time so an external
// flip to SUSPENDED takes effect on the very next request.
func (s *Server) BillingGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		class := billingdomain.ClassMutate
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead:
			class = billingdomain.ClassRead
		}

		if _, err := s.billingSvc.Authorize(c.Request.Context(), tenantID, class); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := tenantctx.UserIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		tenantID, ok := tenantctx.TenantIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := fmt.Sprintf("user:%s", userID.String())
		if err := s.authzSvc.Authorize(ctx, actor, tenantID.String(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.loginLimiter == nil || !s.loginLimiter.Enabled() {
			c.Next()
			return
		}

		res, err := s.loginLimiter.AllowLogin(c.Request.Context(), c.ClientIP())
		if err == nil && !res.Allowed {
			if res.RetryAfter > 0 {
				c.Header("Retry-After", fmt.Sprintf("%d", int(res.RetryAfter.Seconds())+1))
			}
			AbortWithError(c, ErrTooManyLogins)
			return
		}
		c.Next()
	}
}

func (s *Server) tenantFromRequest(c *gin.Context) (snowflake.ID, bool) {
	tenantID, ok := tenantctx.TenantIDFromContext(c.Request.Context())
	if !ok || tenantID == 0 {
		AbortWithError(c, ErrUnauthorized)
		return 0, false
	}
	return tenantID, true
}
