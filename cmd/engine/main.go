package main

import (
	"buildcheck/internal/app/engine"
	"buildcheck/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoadEngine()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load engine config")
	}

	engineApp, err := engine.NewApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create stub engine")
	}

	if err := engineApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Stub engine failed")
	}
}
