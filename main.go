package main

import (
	"log"

	"github.com/joho/godotenv"

	"invoice-settlement/cmd"
	"invoice-settlement/internal/config"
	"invoice-settlement/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.New()
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Printf("invalid logging configuration, using defaults: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("failed to initialize logger: %v", err)
		}
	}

	cmd.Execute(cfg)
}
