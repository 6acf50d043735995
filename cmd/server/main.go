// Command server runs the game service: HTTP endpoints for room and
// token management, websockets for live play.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/b6428259/spotup-games/internal/auth"
	"github.com/b6428259/spotup-games/internal/cache"
	"github.com/b6428259/spotup-games/internal/config"
	"github.com/b6428259/spotup-games/internal/database"
	"github.com/b6428259/spotup-games/internal/room"
	"github.com/b6428259/spotup-games/internal/ws"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.NewEntry(logger)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed loading configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, staying on info")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := room.Options{
		ChallengeWindow: cfg.ChallengeWindow,
		TurnTimeout:     cfg.TurnTimeout,
		Logger:          log,
	}

	if cfg.RedisAddr != "" {
		historian, err := cache.NewHistorian(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.WithError(err).Fatal("failed connecting to redis")
		}
		defer historian.Close()
		opts.Historian = historian
		log.WithField("addr", cfg.RedisAddr).Info("action history enabled")
	}

	var store *database.Store
	if cfg.PostgresDSN != "" {
		store, err = database.Connect(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.WithError(err).Fatal("failed connecting to postgres")
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("failed applying schema")
		}
		opts.Archive = store
		log.Info("game state persistence enabled")
	}

	manager := room.NewManager(opts)
	reaper := room.NewIdleReaper(manager, room.DefaultIdleTimeout, log)
	manager.SetReaper(reaper)
	go reaper.Run()
	defer reaper.Stop()

	tokens, err := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.WithError(err).Fatal("failed creating token issuer")
	}

	var recorder ws.RoomRecorder
	if store != nil {
		recorder = store
	}
	server := ws.NewServer(manager, tokens, recorder, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown did not finish cleanly")
		}
		manager.Shutdown()
	}()

	log.WithField("addr", cfg.Addr).Info("server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
}
