package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"ivr-attendant-service/internal/api"
	"ivr-attendant-service/internal/app"
	"ivr-attendant-service/internal/config"
	"ivr-attendant-service/internal/db"
	"ivr-attendant-service/internal/events"
	"ivr-attendant-service/internal/ivr"
	"ivr-attendant-service/internal/migrate"
	"ivr-attendant-service/internal/observability"
	"ivr-attendant-service/internal/repo"
	"ivr-attendant-service/internal/telephony/mock"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	conn, err := db.Open(db.Config{Path: cfg.DB.Path})
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("Failed to open database")
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	r := repo.New(conn)
	cache, err := repo.NewMenuCache(r, 256)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create menu cache")
	}

	publisher := events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicSession: cfg.Kafka.TopicSession,
		TopicAudit:   cfg.Kafka.TopicAudit,
		Principal:    cfg.Service.Principal,
	})
	defer publisher.Close()

	// The mock driver logs call-control requests instead of talking to a
	// PBX. A real deployment swaps in a driver for its telephony platform.
	driver := mock.New()

	engine := ivr.NewEngine(cache, driver, publisher, r, ivr.Config{
		MaxMenuDepth:    cfg.IVR.MaxMenuDepth,
		FallbackMailbox: cfg.IVR.FallbackMailbox,
	})

	handler, err := api.New(api.Config{
		Engine:   engine,
		Repo:     r,
		Cache:    cache,
		RootMenu: cfg.IVR.RootMenu,
		Auth: api.AuthConfig{
			JWTSecret: cfg.Auth.JWTSecret,
			APIKeys:   cfg.Auth.APIKeys,
		},
		Logger: application.Logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build API handler")
	}

	obsServer := observability.NewServer(":" + cfg.Service.ObsPort)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("IVR attendant API started")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	engine.Shutdown(shutdownCtx)
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}
