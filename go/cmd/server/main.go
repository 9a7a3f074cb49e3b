package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/trivia/go/internal/trivia"
	"github.com/mcdev12/trivia/go/internal/trivia/gateway"
	"github.com/mcdev12/trivia/go/internal/trivia/orchestrator"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	port := getEnv("PORT", "8080")

	gameConfig, err := loadGameConfig(getEnv("GAME_CONFIG", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userStore, closeUsers, err := setupUserStore(ctx, getEnv("USER_STORE", "memory"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up user store")
	}
	defer closeUsers()

	snapshotStores, err := setupSnapshotStore(getEnv("SNAPSHOT_STORE", "memory"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up snapshot store")
	}
	defer snapshotStores.Close()

	gatewayService := gateway.NewService(gateway.DefaultConfig())
	orch := orchestrator.NewOrchestrator(
		trivia.NewRegistry(nil),
		gatewayService.Broadcaster(),
		userStore,
		snapshotStores.fanout,
		gameConfig.orchestratorConfig(),
	)
	gatewayService.Attach(orch, orch)
	if snapshotStores.reader != nil {
		gatewayService.AttachSnapshots(snapshotStores.reader)
	}

	server := setupServer(port, gatewayService)

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Dur("settle_pause", gameConfig.Game.SettlePause).
			Int("min_players", gameConfig.Game.MinPlayers).
			Msg("trivia server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	orch.Shutdown()
	cancel()

	log.Info().Msg("trivia server shutdown complete")
}
