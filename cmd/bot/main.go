package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"valley_bot/internal/config"
	"valley_bot/internal/feature/ads"
	"valley_bot/internal/feature/points"
	"valley_bot/internal/feature/preference"
	"valley_bot/internal/feature/registration"
	"valley_bot/internal/health"
	"valley_bot/internal/i18n"
	"valley_bot/internal/logging"
	"valley_bot/internal/metrics"
	"valley_bot/internal/store"
	"valley_bot/internal/telegram"
)

const (
	storeConnectTimeout = 10 * time.Second
	storeSchemaTimeout  = 30 * time.Second
	storeCloseTimeout   = 5 * time.Second
	healthStopTimeout   = 5 * time.Second
)

var errTelegramStopped = errors.New("telegram client stopped before shutdown signal")

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Close() }()

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":    "startup",
		"driver":   cfg.StoreDriver,
		"timezone": cfg.Timezone,
	}).Info("configuration loaded")

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), storeConnectTimeout)
	backend, err := store.Open(connectCtx, cfg, logger)
	cancelConnect()
	if err != nil {
		fail(logger, "store connection error", err)
	}

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), storeSchemaTimeout)
	err = backend.EnsureSchema(schemaCtx)
	cancelSchema()
	if err != nil {
		closeStore(logger, backend)
		fail(logger, "store schema error", err)
	}
	logger.WithField("event", "store_schema").Info("ensured storage schema")

	m := metrics.New()
	prefs := preference.NewStore(backend, logger, preference.WithMetrics(m))
	registrar := registration.NewRegistrar(backend, prefs, logger, m)
	ledger := points.NewLedger(backend, logger)
	engagement := ads.NewEngagement(backend, logger,
		ads.WithLocation(cfg.Location()),
		ads.WithMetrics(m),
	)

	router := telegram.NewRouter(logger, m)
	telegram.NewHandlers(registrar, ledger, engagement, prefs, i18n.NewCatalog(), logger).Mount(router)

	tgClient, err := telegram.NewClient(cfg, logger, telegram.WithRouter(router))
	if err != nil {
		closeStore(logger, backend)
		fail(logger, "telegram client setup error", err)
	}
	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, backend, logger,
		health.WithDriver(cfg.StoreDriver),
		health.WithMetricsHandler(m.Handler()),
	)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		tgClient.Start(gctx)
		if gctx.Err() == nil {
			return errTelegramStopped
		}
		return nil
	})

	g.Go(healthServer.ListenAndServe)

	g.Go(func() error {
		<-gctx.Done()
		logger.WithField("event", "shutdown_signal").Info("stopping services")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), healthStopTimeout)
		defer cancel()
		return healthServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithField("event", "service_error").WithError(err).Error("service stopped with error")
	}

	closeStore(logger, backend)
	logger.WithField("event", "shutdown_complete").Info("shutdown complete")
}

func closeStore(logger *logrus.Entry, backend store.Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
	defer cancel()

	if err := backend.Close(ctx); err != nil {
		logger.WithField("event", "store_close_error").WithError(err).Error("store close error")
		return
	}
	logger.WithField("event", "store_closed").Info("store connection closed")
}

func fail(logger *logrus.Entry, msg string, err error) {
	logger.WithError(err).Error(msg)
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	_ = logging.Close()
	os.Exit(1)
}
