package audit

import (
	"github.com/clubcore/clubcore/internal/audit/repository"
	"github.com/clubcore/clubcore/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
