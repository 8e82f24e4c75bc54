package membership

import (
	"github.com/clubcore/clubcore/internal/membership/repository"
	"github.com/clubcore/clubcore/internal/membership/service"
	"go.uber.org/fx"
)

var Module = fx.Module("membership.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
