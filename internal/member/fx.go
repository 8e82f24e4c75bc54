package member

import (
	"github.com/clubcore/clubcore/internal/member/repository"
	"github.com/clubcore/clubcore/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
