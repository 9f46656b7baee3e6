package main

import (
	"errors"
	"os"

	"github.com/spf13/pflag"

	"tilestream/internal/config"
	"tilestream/internal/game"
	"tilestream/pkg/logger"
)

func main() {
	settings, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Init(settings.LoggerOptions())

	if path := settings.ConfigFile; path != "" {
		logger.Log.WithField("file", path).Info("configuration loaded")
	}
	if err := game.Run(settings); err != nil {
		logger.Log.WithError(err).Fatal("tilestream exited with error")
	}
}
