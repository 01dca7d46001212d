package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/bookfeed-be/internal/api"
	"github.com/isdelr/bookfeed-be/internal/auth"
	"github.com/isdelr/bookfeed-be/internal/monitoring"
	"github.com/isdelr/bookfeed-be/internal/seed"
	"github.com/isdelr/bookfeed-be/internal/services"
	"github.com/isdelr/bookfeed-be/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var withSeed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), withSeed)
		},
	}
	cmd.Flags().BoolVar(&withSeed, "seed", false, "replace all data with the sample dataset before starting")
	return cmd
}

func serve(ctx context.Context, withSeed bool) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if withSeed {
		if _, err := seed.Run(ctx, s); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Set up services
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	eventService := services.NewEventService(s, hub)
	userService := services.NewUserService(s, tokens)
	bookService := services.NewBookService(s, eventService)
	feedService := services.NewFeedService(s)

	// Set up and run the background event pruner
	scheduler, err := monitoring.NewScheduler(s, cfg.EventRetention, cfg.EventPruneSchedule)
	if err != nil {
		return err
	}
	go scheduler.Run()
	defer scheduler.Stop()

	router := api.NewRouter(api.Dependencies{
		Tokens:             tokens,
		Users:              userService,
		Books:              bookService,
		Feed:               feedService,
		Events:             eventService,
		Hub:                hub,
		Store:              s,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}
