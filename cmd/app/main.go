package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"DeskPortal/internal/di"
	"DeskPortal/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envPath := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// A missing .env is fine; real deployments inject the environment directly.
	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("dotenv load failed: %v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s directus=%s pricer=%s", cfg.Environment, cfg.Directus.URL, cfg.Pricer.URL)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if cfg.ClickHouse.Enabled {
		log.Printf("clickhouse: schema ready db=%s", cfg.ClickHouse.Database)
	}
	if cfg.Events.Enabled {
		log.Printf("kafka: brokers=%v topic=%s", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
