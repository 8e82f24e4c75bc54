package payment

import (
	"github.com/clubcore/clubcore/internal/payment/repository"
	"github.com/clubcore/clubcore/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
