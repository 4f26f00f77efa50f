package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mavics/swipetopay/internal/api"
	"github.com/mavics/swipetopay/internal/bus"
	"github.com/mavics/swipetopay/internal/infra/logging"
	"github.com/mavics/swipetopay/internal/infra/pgutils"
	"github.com/mavics/swipetopay/internal/realtime"
	"github.com/mavics/swipetopay/internal/relay"
	"github.com/mavics/swipetopay/internal/service"
	"github.com/mavics/swipetopay/internal/storage"
	"github.com/mavics/swipetopay/internal/storage/memory"
	"github.com/mavics/swipetopay/internal/storage/postgres"
	"github.com/mavics/swipetopay/pkg/envconf"
	"github.com/mavics/swipetopay/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Storage ---
	var store storage.Store

	if cfg.PostgresDSN != "" {
		db, derr := pgutils.OpenDB(ctx, cfg.PostgresDSN)
		if derr != nil {
			return fmt.Errorf("open db: %w", derr)
		}

		shutdownqueue.Add(func(context.Context) error {
			slog.Info("closing database")
			return db.Close()
		})

		store = postgres.New(db)
	} else {
		slog.Warn("PG_DSN not set, running on the in-memory store")

		store = memory.New()
	}

	// --- Message bus ---
	topics := bus.TopicsFor(cfg.TeamID)

	var busClient *bus.Client

	if cfg.BrokerURL != "" {
		busClient = bus.Connect(cfg.BrokerURL, "swipetopay-backend", cfg.MQTTQoS)

		shutdownqueue.Add(func(context.Context) error {
			slog.Info("disconnecting from mqtt broker")
			busClient.Disconnect()

			return nil
		})
	} else {
		slog.Warn("MQTT_BROKER_URL not set, bus publishing disabled")
	}

	// --- Real-time viewers ---
	hub := realtime.NewHub()

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("closing websocket hub")
		hub.Close()

		return nil
	})

	if busClient != nil {
		relay.New(hub, topics).Start(busClient)
	}

	// --- Ledger core ---
	var pub bus.Publisher
	if busClient != nil {
		pub = busClient
	}

	ledgerSvc := service.New(store, pub, hub, service.Config{
		InitialGrant:  cfg.InitialGrant,
		AllowNegative: cfg.AllowNegative,
		TopupTopic:    topics.Topup,
		QueueSize:     cfg.PublishQueueSize,
	})
	ledgerSvc.Start()

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("stopping publish worker")
		ledgerSvc.Close()

		return nil
	})

	// --- HTTP server ---
	var busStatus api.BusStatus
	if busClient != nil {
		busStatus = busClient
	}

	handler := api.NewHandler(ledgerSvc, busStatus, store)
	srv := api.NewServer(cfg.Port, api.NewRouter(handler, hub.ServeWS))

	// Registered after the ledger service so the LIFO queue shuts the server
	// down first; no Adjust can be in flight when the publish worker stops.
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("shutting down http server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("swipetopay backend started", "port", cfg.Port, "team", cfg.TeamID)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
