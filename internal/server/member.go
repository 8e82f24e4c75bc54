package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	memberdomain "github.com/clubcore/clubcore/internal/member/domain"
	"github.com/clubcore/clubcore/pkg/db/pagination"
)

type createMemberRequest struct {
	FullName     string         `json:"full_name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	HomeBranchID string         `json:"home_branch_id"`
	Metadata     map[string]any `json:"metadata"`
	JoinedAt     string         `json:"joined_at"`
}

func (s *Server) CreateMember(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var joinedAt *time.Time
	if value := strings.TrimSpace(req.JoinedAt); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			AbortWithError(c, newValidationError("joined_at", "invalid_joined_at", "invalid joined_at"))
			return
		}
		joinedAt = &parsed
	}

	resp, err := s.memberSvc.Create(c.Request.Context(), tenantID, memberdomain.CreateMemberRequest{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		HomeBranchID: strings.TrimSpace(req.HomeBranchID),
		Metadata:     req.Metadata,
		JoinedAt:     joinedAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMembers(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var query struct {
		pagination.Pagination
		Search   string `form:"search"`
		BranchID string `form:"branch_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.List(c.Request.Context(), tenantID, memberdomain.ListMemberRequest{
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  int32(query.PageSize),
		Search:    strings.TrimSpace(query.Search),
		BranchID:  strings.TrimSpace(query.BranchID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMemberByID(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.memberSvc.GetByID(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateMemberRequest struct {
	FullName     *string        `json:"full_name"`
	Email        *string        `json:"email"`
	Phone        *string        `json:"phone"`
	HomeBranchID *string        `json:"home_branch_id"`
	Metadata     map[string]any `json:"metadata"`
}

func (s *Server) UpdateMember(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.memberSvc.Update(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")), memberdomain.UpdateMemberRequest{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		HomeBranchID: req.HomeBranchID,
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteMember(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	if err := s.memberSvc.Delete(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
