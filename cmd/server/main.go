package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/snesh-101/meetup-rtc/internal/adapters/chathub"
	"github.com/snesh-101/meetup-rtc/internal/adapters/history"
	router "github.com/snesh-101/meetup-rtc/internal/adapters/http"
	"github.com/snesh-101/meetup-rtc/internal/adapters/provider"
	"github.com/snesh-101/meetup-rtc/internal/app"
	"github.com/snesh-101/meetup-rtc/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	hub := app.NewHub()
	reg := app.NewRegistry()
	store := history.New(cfg.ChatStoreURL, nil)
	chat := chathub.NewController(hub, reg, store, cfg.ReadLimit)
	issuer := provider.NewTokenIssuer(cfg.ProviderAPIKey, cfg.ProviderSecret, cfg.TokenTTL)
	upstream := provider.NewUpstream(cfg.ProviderURL)

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Chat:     chat,
		Issuer:   issuer,
		Upstream: upstream,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("MeetUp relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
