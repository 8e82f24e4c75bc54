package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	plandomain "github.com/clubcore/clubcore/internal/plan/domain"
)

type createPlanRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Scope        string `json:"scope"`
	BranchID     string `json:"branch_id"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
	DurationDays int    `json:"duration_days"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), tenantID, plandomain.CreatePlanRequest{
		Name:         strings.TrimSpace(req.Name),
		Description:  strings.TrimSpace(req.Description),
		Scope:        plandomain.Scope(strings.ToUpper(strings.TrimSpace(req.Scope))),
		BranchID:     strings.TrimSpace(req.BranchID),
		PriceCents:   req.PriceCents,
		Currency:     strings.TrimSpace(req.Currency),
		DurationDays: req.DurationDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditPlanAction(c, tenantID.String(), "plan.create", resp.ID.String())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var query struct {
		Scope           string `form:"scope"`
		BranchID        string `form:"branch_id"`
		IncludeArchived bool   `form:"include_archived"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.List(c.Request.Context(), tenantID, plandomain.ListPlanRequest{
		Scope:           strings.ToUpper(strings.TrimSpace(query.Scope)),
		BranchID:        strings.TrimSpace(query.BranchID),
		IncludeArchived: query.IncludeArchived,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.planSvc.GetByID(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	// Scope and branch are fixed at creation. A payload that tries to move
	// the plan between namespaces is rejected outright rather than ignored.
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	for key := range raw {
		switch strings.ToLower(key) {
		case "scope", "branch_id", "scope_key":
			AbortWithError(c, plandomain.ErrScopeImmutable)
			return
		}
	}

	req := plandomain.UpdatePlanRequest{}
	if value, ok := stringField(raw, "name"); ok {
		req.Name = &value
	}
	if value, ok := stringField(raw, "description"); ok {
		req.Description = &value
	}
	if value, ok := raw["price_cents"]; ok {
		parsed, ok := value.(float64)
		if !ok {
			AbortWithError(c, plandomain.ErrInvalidPrice)
			return
		}
		cents := int64(parsed)
		req.PriceCents = &cents
	}
	if value, ok := stringField(raw, "currency"); ok {
		req.Currency = &value
	}
	if value, ok := raw["duration_days"]; ok {
		parsed, ok := value.(float64)
		if !ok {
			AbortWithError(c, plandomain.ErrInvalidDuration)
			return
		}
		days := int(parsed)
		req.DurationDays = &days
	}

	resp, err := s.planSvc.Update(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditPlanAction(c, tenantID.String(), "plan.update", resp.ID.String())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePlan(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.planSvc.Archive(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditPlanAction(c, tenantID.String(), "plan.archive", resp.ID.String())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RestorePlan(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.planSvc.Restore(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditPlanAction(c, tenantID.String(), "plan.restore", resp.ID.String())
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePlan(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if err := s.planSvc.Delete(c.Request.Context(), tenantID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditPlanAction(c, tenantID.String(), "plan.delete", id)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) auditPlanAction(c *gin.Context, tenantID, action, planID string) {
	_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), nil, action, "plan", &planID, map[string]any{
		"tenant_id": tenantID,
		"plan_id":   planID,
	})
}
