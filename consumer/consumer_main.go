package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-feed-service/config"
	"github.com/tnqbao/gau-feed-service/consumer/worker"
	infraPkg "github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/repository"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.EnvConfig.RabbitMQEnabled() {
		log.Fatalf("RABBITMQ_HOST must be set to run the consumer")
	}

	// Initialize context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := infraPkg.InitInfra(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infra: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := infra.Close(shutdownCtx); err != nil {
			log.Printf("Failed to close infra: %v", err)
		}
	}()

	repo := repository.InitRepository(infra.Postgres.DB)

	// Start Storage Cleanup Consumer
	cleanupConsumer := worker.NewStorageCleanupConsumer(infra.RabbitMQ.Channel, infra, repo)
	if err := cleanupConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Storage Cleanup consumer: %v", err)
		return
	}

	<-ctx.Done()
	infra.Logger.InfoWithContextf(context.Background(), "Consumer exited properly")
}
