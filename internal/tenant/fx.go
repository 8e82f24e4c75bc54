package tenant

import (
	"github.com/clubcore/clubcore/internal/tenant/repository"
	"github.com/clubcore/clubcore/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
