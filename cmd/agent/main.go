package main

import (
	"context"
	"log"
	"os"

	"sysinfo-agent/internal/agent"
	"sysinfo-agent/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := agent.BuildLogger(cfg)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}

	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Errorw("agent initialization failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}

	if err := a.Run(context.Background()); err != nil {
		logger.Errorw("agent runtime failed", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}
