package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	tenantID, ok := s.tenantFromRequest(c)
	if !ok {
		return
	}

	resp, err := s.dashboardSvc.Summary(c.Request.Context(), tenantID, strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
