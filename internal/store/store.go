// Package store selects and opens the persistence backend named by the
// configuration.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/config"
	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
	"valley_bot/internal/store/mongostore"
	"valley_bot/internal/store/sqlstore"
)

// Backend is the full set of storage operations used by the bot.
type Backend interface {
	LookupLanguage(ctx context.Context, owner domain.Owner) (domain.Language, bool, error)
	UpdateLanguage(ctx context.Context, owner domain.Owner, lang domain.Language) error
	Register(ctx context.Context, owner domain.Owner, displayName string) (domain.Registration, error)
	Balance(ctx context.Context, owner domain.Owner) (int64, error)
	IncrementBalance(ctx context.Context, owner domain.Owner, amount int64) (int64, error)
	ViewAd(ctx context.Context, req domain.AdViewRequest) (domain.AdViewOutcome, error)

	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*sqlstore.Store)(nil)
	_ Backend = (*mongostore.Store)(nil)
)

// openMongo is overridable for tests.
var openMongo = func(ctx context.Context, cfg config.Config, logger *logrus.Entry) (Backend, error) {
	manager, err := mongostore.NewManager(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return mongostore.New(manager, logger), nil
}

var openSQL = func(cfg config.Config, logger *logrus.Entry) (Backend, error) {
	s, err := sqlstore.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Open connects to the backend selected by cfg.StoreDriver. The schema is not
// touched; call EnsureSchema afterwards.
func Open(ctx context.Context, cfg config.Config, logger *logrus.Entry) (Backend, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if logger == nil {
		logger = logging.Logger()
	}

	var (
		backend Backend
		err     error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		backend, err = openMongo(ctx, cfg, logger)
	case config.DriverPostgres, config.DriverSQLite:
		backend, err = openSQL(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	logger.WithFields(logging.Fields{
		"event":  "store_opened",
		"driver": cfg.StoreDriver,
	}).Info("storage backend connected")

	return backend, nil
}
