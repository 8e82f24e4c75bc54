package periodlock

import (
	"github.com/clubcore/clubcore/internal/periodlock/repository"
	"github.com/clubcore/clubcore/internal/periodlock/service"
	"go.uber.org/fx"
)

var Module = fx.Module("periodlock.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
