package auth

import (
	"github.com/clubcore/clubcore/internal/auth/repository"
	"github.com/clubcore/clubcore/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
