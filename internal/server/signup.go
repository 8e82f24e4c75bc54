package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/clubcore/clubcore/internal/audit/domain"
	signupdomain "github.com/clubcore/clubcore/internal/signup/domain"
)

type SignupRequest struct {
	GymName     string `json:"gym_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Timezone    string `json:"timezone"`
}

func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.signupSvc.Signup(c.Request.Context(), signupdomain.Request{
		GymName:     strings.TrimSpace(req.GymName),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		Timezone:    strings.TrimSpace(req.Timezone),
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	userID := result.UserID
	var targetID *string
	if result.Tenant != nil {
		targetID = &result.Tenant.ID
	}
	_ = s.auditSvc.AuditLog(c.Request.Context(), nil, string(auditdomain.ActorTypeUser), &userID, "tenant.signup", "tenant", targetID, map[string]any{
		"email": strings.TrimSpace(req.Email),
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user_id": result.UserID,
		"tenant":  result.Tenant,
	}})
}
