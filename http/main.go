package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-feed-service/config"
	"github.com/tnqbao/gau-feed-service/http/controller"
	routes "github.com/tnqbao/gau-feed-service/http/route"
	infraPkg "github.com/tnqbao/gau-feed-service/infra"
	"github.com/tnqbao/gau-feed-service/repository"
)

func main() {
	err := godotenv.Load("staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	infra, err := infraPkg.InitInfra(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize infra: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := infra.Close(shutdownCtx); err != nil {
			log.Printf("Failed to close infra: %v", err)
		}
	}()

	version, err := infraPkg.RunMigrations(ctx, infra.Postgres.DB)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	infra.Logger.InfoWithContextf(ctx, "[HTTP] Database schema at version %d", version)

	repo := repository.InitRepository(infra.Postgres.DB)
	ctrl := controller.NewController(cfg, infra, repo)
	router := routes.SetupRouter(ctrl)

	server := &http.Server{
		Addr:              ":" + cfg.EnvConfig.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		infra.Logger.InfoWithContextf(ctx, "[HTTP] Server started on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	infra.Logger.InfoWithContextf(context.Background(), "[HTTP] Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
