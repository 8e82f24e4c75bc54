package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
	"github.com/clubcore/clubcore/internal/tenantctx"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`
}

type LoginResponse struct {
	UserID        string                        `json:"user_id"`
	DisplayName   string                        `json:"display_name"`
	Email         string                        `json:"email"`
	Tenants       []tenantdomain.TenantListItem `json:"tenants"`
	TenantID      *string                       `json:"tenant_id,omitempty"`
	BillingStatus *billingdomain.Status         `json:"billing_status,omitempty"`
	ExpiresAt     time.Time                     `json:"expires_at"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		TenantID:  strings.TrimSpace(req.TenantID),
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), nil, "user.login_failed", "user", nil, map[string]any{
			"email": email,
		})
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	userID := result.UserID.String()
	_ = s.auditSvc.AuditLog(c.Request.Context(), result.TenantID, string(auditdomain.ActorTypeUser), &userID, "user.login", "user", &userID, map[string]any{
		"email": email,
	})

	resp := LoginResponse{
		UserID:        userID,
		DisplayName:   result.DisplayName,
		Email:         result.Email,
		Tenants:       result.Tenants,
		BillingStatus: result.BillingStatus,
		ExpiresAt:     result.ExpiresAt,
	}
	if result.TenantID != nil {
		id := result.TenantID.String()
		resp.TenantID = &id
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if ok {
		_ = s.authsvc.Logout(c.Request.Context(), token)
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := tenantctx.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	tenants, err := s.tenantSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user_id": userID.String(),
		"tenants": tenants,
	}})
}

type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (s *Server) ChangePassword(c *gin.Context) {
	userID, ok := tenantctx.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authsvc.ChangePassword(c.Request.Context(), userID, req.NewPassword); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
