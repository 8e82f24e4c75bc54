package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	periodlockdomain "github.com/clubcore/clubcore/internal/periodlock/domain"
	"github.com/clubcore/clubcore/internal/tenantctx"
)

type lockPeriodRequest struct {
	Month    string `json:"month"`
	BranchID string `json:"branch_id"`
}

// parseLockBranch reads an optional branch reference. Empty means the
// tenant-wide lock.
func parseLockBranch(raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, periodlockdomain.ErrInvalidBranch
	}
	return &id, nil
}

// LockPeriod is idempotent: locking an already locked month returns the
// existing lock with 200, since the caller's intent is satisfied either way.
func (s *Server) LockPeriod(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}
	userID, ok := tenantctx.UserIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req lockPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	branchID, err := parseLockBranch(req.BranchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	month := strings.TrimSpace(req.Month)
	resp, err := s.periodLockSvc.Lock(c.Request.Context(), tenantID, userID, branchID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actorID := userID.String()
	_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), &actorID, "period_lock.lock", "period_lock", &month, map[string]any{
		"month":      month,
		"branch_key": periodlockdomain.DeriveBranchKey(branchID),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnlockPeriod(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	branchID, err := parseLockBranch(c.Query("branch_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	month := strings.TrimSpace(c.Param("month"))
	if err := s.periodLockSvc.Unlock(c.Request.Context(), tenantID, branchID, month); err != nil {
		AbortWithError(c, err)
		return
	}

	_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), nil, "period_lock.unlock", "period_lock", &month, map[string]any{
		"month":      month,
		"branch_key": periodlockdomain.DeriveBranchKey(branchID),
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) CheckPeriodLock(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	branchID, err := parseLockBranch(c.Query("branch_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	month := strings.TrimSpace(c.Param("month"))
	locked, err := s.periodLockSvc.CheckMonth(c.Request.Context(), tenantID, branchID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"month":  month,
		"locked": locked,
	}})
}

func (s *Server) ListPeriodLocks(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	branchID, err := parseLockBranch(c.Query("branch_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.periodLockSvc.List(c.Request.Context(), tenantID, branchID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
