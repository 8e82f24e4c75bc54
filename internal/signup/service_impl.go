// Package signup orchestrates first-run account creation: a user, their
// tenant and the trial billing record, followed by an immediate login.
package signup

import (
	"context"
	"strings"

	authdomain "github.com/clubcore/clubcore/internal/auth/domain"
	"github.com/clubcore/clubcore/internal/signup/domain"
	tenantdomain "github.com/clubcore/clubcore/internal/tenant/domain"
)

type service struct {
	authsvc   authdomain.Service
	tenantsvc tenantdomain.Service
}

func NewService(authsvc authdomain.Service, tenantsvc tenantdomain.Service) domain.Service {
	return &service{
		authsvc:   authsvc,
		tenantsvc: tenantsvc,
	}
}

func (s *service) Signup(ctx context.Context, req domain.Request) (*domain.Result, error) {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidRequest
	}

	gymName := strings.TrimSpace(req.GymName)
	if gymName == "" {
		return nil, domain.ErrInvalidRequest
	}

	user, err := s.authsvc.CreateUser(ctx, authdomain.CreateUserRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantsvc.Create(ctx, tenantdomain.CreateTenantRequest{
		Name:         gymName,
		ContactEmail: user.Email,
		TimezoneName: strings.TrimSpace(req.Timezone),
		OwnerUserID:  user.ID,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.authsvc.Login(ctx, authdomain.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		TenantID:  tenant.ID,
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Result{
		RawToken:  session.RawToken,
		ExpiresAt: session.ExpiresAt,
		UserID:    user.ID.String(),
		Tenant:    tenant,
	}, nil
}
