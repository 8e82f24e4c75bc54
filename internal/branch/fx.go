package branch

import (
	"github.com/clubcore/clubcore/internal/branch/repository"
	"github.com/clubcore/clubcore/internal/branch/service"
	"go.uber.org/fx"
)

var Module = fx.Module("branch.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
