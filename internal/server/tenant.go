package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/clubcore/clubcore/internal/billing/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

func (s *Server) GetTenant(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.tenantSvc.GetByID(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTenant(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	// Decode to a map first: billing state is not client-writable, and a
	// silently dropped field would hide the caller's mistake.
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	for key := range raw {
		switch strings.ToLower(key) {
		case "billing_status", "billing", "trial_started_at", "trial_ends_at":
			AbortWithError(c, billingdomain.ErrStatusImmutable)
			return
		}
	}

	req := tenantdomain.UpdateTenantRequest{}
	if value, ok := stringField(raw, "name"); ok {
		req.Name = &value
	}
	if value, ok := stringField(raw, "contact_email"); ok {
		req.ContactEmail = &value
	}
	if value, ok := stringField(raw, "timezone_name"); ok {
		req.TimezoneName = &value
	}

	resp, err := s.tenantSvc.Update(c.Request.Context(), tenantID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func stringField(raw map[string]any, key string) (string, bool) {
	value, ok := raw[key]
	if !ok {
		return "", false
	}
	str, ok := value.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(str), true
}
