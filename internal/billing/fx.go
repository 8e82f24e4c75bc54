package billing

import (
	"github.com/clubcore/clubcore/internal/billing/repository"
	"github.com/clubcore/clubcore/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
