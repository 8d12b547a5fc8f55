package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/partsdepot/internal/api"
	"github.com/jogardn/partsdepot/internal/auth"
	"github.com/jogardn/partsdepot/internal/cache"
	"github.com/jogardn/partsdepot/internal/config"
	"github.com/jogardn/partsdepot/internal/events"
	"github.com/jogardn/partsdepot/internal/store"
	"github.com/jogardn/partsdepot/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, logger)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not create missing tables on startup")
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db, logger)
	if !skipMigrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	var parts api.PartStore = st
	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, serving catalog without cache")
		} else {
			defer rdb.Close()
			parts = cache.NewCachedPartStore(st, rdb, cfg.Redis.TTL, logger)
			logger.WithField("addr", cfg.Redis.Addr).Info("Catalog cache enabled")
		}
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(cfg.Server.CORSOrigin, logger)
	go hub.Run(hubCtx)

	publisher, breaker, closeEvents, err := wireEvents(ctx, cfg.Kafka, hub, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	server := api.NewServer(api.Deps{
		Parts:      parts,
		Accounts:   st,
		Orders:     st,
		Deliveries: st,
		Reports:    st,
		Health:     st,
		Events:     publisher,
		Tokens:     auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Feed:       hub,
		Breaker:    breaker,
	}, api.Options{
		RequireEmployee: cfg.Auth.RequireEmployee,
		CORSOrigin:      cfg.Server.CORSOrigin,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting partsdepot API")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
	return nil
}

// wireEvents builds the domain event publisher. With Kafka consumption on, the
// feed is fed from the topics so every instance sees every write; otherwise
// events go to the local feed directly. The breaker is nil without Kafka.
func wireEvents(ctx context.Context, cfg config.KafkaConfig, hub *websocket.Hub, logger *logrus.Logger) (events.Publisher, api.BreakerReporter, func(), error) {
	var (
		sinks   []events.Publisher
		closers []func() error
		breaker api.BreakerReporter
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.WithError(err).Warn("Failed to close event client")
			}
		}
	}

	if cfg.Brokers != "" {
		producer, err := events.NewKafkaProducer(cfg.Brokers, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, producer.Close)
		sinks = append(sinks, producer)
		breaker = producer
	}

	if cfg.Brokers != "" && cfg.Consume {
		consumer, err := events.NewKafkaConsumer(cfg.Brokers, cfg.GroupID, events.NewBroadcastSink(hub, "kafka"), logger)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, consumer.Close)

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
	} else {
		sinks = append(sinks, events.NewBroadcastSink(hub, "api"))
	}

	return events.NewFanout(logger, sinks...), breaker, closeAll, nil
}
