package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	"github.com/clubcore/clubcore/internal/authorization"
	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
)

// registerDevBillingRoutes exposes the billing transition normally driven
// by the external billing process. Never mounted in production.
func (s *Server) registerDevBillingRoutes() {
	if s.cfg.Environment == "production" {
		return
	}

	dev := s.engine.Group("/dev")
	dev.POST("/billing/:tenantId/status", s.SetBillingStatus)
}

type setBillingStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetBillingStatus(c *gin.Context) {
	tenantID, err := snowflake.ParseString(strings.TrimSpace(c.Param("tenantId")))
	if err != nil || tenantID == 0 {
		AbortWithError(c, billingdomain.ErrInvalidTenant)
		return
	}

	var req setBillingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.authzSvc.Authorize(c.Request.Context(), "system", tenantID.String(), authorization.ObjectBilling, authorization.ActionBillingSetStatus); err != nil {
		AbortWithError(c, err)
		return
	}

	status := billingdomain.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	record, err := s.billingSvc.SetStatus(c.Request.Context(), tenantID, status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	target := tenantID.String()
	_ = s.auditSvc.AuditLog(c.Request.Context(), &tenantID, string(auditdomain.ActorTypeSystem), nil, "billing.set_status", "tenant", &target, map[string]any{
		"billing_status": string(record.BillingStatus),
	})

	c.JSON(http.StatusOK, gin.H{"data": record})
}
