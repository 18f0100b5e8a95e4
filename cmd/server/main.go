package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mauryajatin45/blogfront/blog/gateway"
	"github.com/mauryajatin45/blogfront/internal/config"
	"github.com/mauryajatin45/blogfront/internal/web"
	"github.com/mauryajatin45/blogfront/shared/auth"
	"github.com/mauryajatin45/blogfront/shared/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	session, err := auth.NewSession(auth.NewStore(cfg.Auth.TokenFile))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to restore session")
	}

	api := gateway.NewClient(cfg.API.BaseURL, session,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(log),
	)

	snapshot := web.NewSnapshotCache(api, cfg.Feed.Revalidate, cfg.Feed.PageSize, log)
	handler := web.NewHandler(api, session, snapshot, cfg.API.AssetBase, cfg.Site.BaseURL, log)

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(handler, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
