package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	membershipdomain "github.com/clubcore/clubcore/internal/membership/domain"
)

type createMembershipRequest struct {
	MemberID string `json:"member_id"`
	PlanID   string `json:"plan_id"`
	StartsAt string `json:"starts_at"`
}

func (s *Server) CreateMembership(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req createMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var startsAt *time.Time
	if value := strings.TrimSpace(req.StartsAt); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			AbortWithError(c, newValidationError("starts_at", "invalid_starts_at", "invalid starts_at"))
			return
		}
		startsAt = &parsed
	}

	resp, err := s.membershipSvc.Create(c.Request.Context(), tenantID, membershipdomain.CreateMembershipRequest{
		MemberID: strings.TrimSpace(req.MemberID),
		PlanID:   strings.TrimSpace(req.PlanID),
		StartsAt: startsAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMemberships(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var query struct {
		MemberID string `form:"member_id"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.membershipSvc.List(c.Request.Context(), tenantID, membershipdomain.ListMembershipRequest{
		MemberID: strings.TrimSpace(query.MemberID),
		Status:   strings.ToUpper(strings.TrimSpace(query.Status)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMembershipByID(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.membershipSvc.GetByID(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelMembership(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.membershipSvc.Cancel(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
