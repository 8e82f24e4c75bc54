package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	branchdomain "github.com/clubcore/clubcore/internal/branch/domain"
)

type createBranchRequest struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	TimezoneName string `json:"timezone_name"`
}

func (s *Server) CreateBranch(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req createBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.branchSvc.Create(c.Request.Context(), tenantID, branchdomain.CreateBranchRequest{
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		TimezoneName: strings.TrimSpace(req.TimezoneName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBranches(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.branchSvc.List(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBranchByID(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.branchSvc.GetByID(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateBranchRequest struct {
	Name         *string `json:"name"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	TimezoneName *string `json:"timezone_name"`
}

func (s *Server) UpdateBranch(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	var req updateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.branchSvc.Update(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id")), branchdomain.UpdateBranchRequest{
		Name:         req.Name,
		Address:      req.Address,
		Phone:        req.Phone,
		TimezoneName: req.TimezoneName,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteBranch(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	if err := s.branchSvc.Delete(c.Request.Context(), tenantID, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
