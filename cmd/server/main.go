package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/app"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/config"
	"github.com/Nixie-Tech-LLC/kidcurate/internal/mqtt"
)

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// initialize PostgreSQL, redis and the scheduling services
	application, err := app.New(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer application.Close()

	// run pending migrations
	if err := application.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	// optional MQTT trigger for the batch sweep
	if cfg.MQTTBrokerURL != "" {
		client, err := mqtt.NewClient(cfg.MQTTBrokerURL, cfg.MQTTClientID)
		if err != nil {
			log.Error().Err(err).Msg("MQTT disabled")
		} else {
			listener := mqtt.NewListener(client, application.BatchRunner("mqtt"), time.Now)
			if err := listener.Start(); err != nil {
				log.Error().Err(err).Msg("MQTT listener failed to start")
				client.Disconnect(250)
			} else {
				defer listener.Stop()
			}
		}
	}

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, application)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
