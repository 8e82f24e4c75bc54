package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/clubcore/clubcore/internal/clock"
	"github.com/clubcore/clubcore/internal/config"
	"github.com/clubcore/clubcore/internal/migration"
	"github.com/clubcore/clubcore/internal/observability"
	"github.com/clubcore/clubcore/internal/server"
	"github.com/clubcore/clubcore/pkg/db"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(provideSnowflake),
		fx.Provide(provideDBConfig),
		db.Module,
		clock.Module,
		server.Module,
		migration.Module,
	)
	app.Run()
}

func provideSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID())
}

func nodeID() int64 {
	// Each instance needs a distinct node for collision-free IDs.
	id, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE_ID"), 10, 64)
	if err != nil || id < 0 || id > 1023 {
		return 1
	}
	return id
}

func provideDBConfig(cfg config.Config) db.Config {
	return db.Config{
		Type:            cfg.DBType,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		User:            cfg.DBUser,
		Password:        cfg.DBPassword,
		SSLMode:         cfg.DBSSLMode,
		MaxIdleConn:     cfg.DBMaxIdleConn,
		MaxOpenConn:     cfg.DBMaxOpenConn,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}
}
