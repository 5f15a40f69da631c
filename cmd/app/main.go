package main

import (
	"flag"
	"log"
	"os"

	"github.com/MiguelT18/trading-bot/internal/di"
	"github.com/MiguelT18/trading-bot/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s instrument=%s feed=%s sinks=%v",
		cfg.Environment, cfg.Trading.Instrument, cfg.Feed.Type, cfg.Sinks)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
