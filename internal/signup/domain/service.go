package domain

import (
	"context"
	"errors"
	"time"

	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

type Service interface {
	Signup(ctx context.Context, req Request) (*Result, error)
}

type Request struct {
	GymName     string `json:"gym_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Timezone    string `json:"timezone"`
	UserAgent   string `json:"-"`
	IPAddress   string `json:"-"`
}

type Result struct {
	RawToken  string
	ExpiresAt time.Time
	UserID    string
	Tenant    *tenantdomain.TenantResponse
}

var ErrInvalidRequest = errors.New("invalid signup request")
