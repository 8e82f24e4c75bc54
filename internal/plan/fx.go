package plan

import (
	"github.com/clubcore/clubcore/internal/plan/repository"
	"github.com/clubcore/clubcore/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
