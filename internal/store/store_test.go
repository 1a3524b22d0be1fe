package store

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/config"
	"valley_bot/internal/domain"
)

func TestOpenSQLiteBackend(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	ctx := context.Background()

	backend, err := Open(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: ":memory:"}, logrus.NewEntry(hookLogger))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close(ctx) })

	if err := backend.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema returned error: %v", err)
	}
	if err := backend.Ping(ctx); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}

	reg, err := backend.Register(ctx, domain.UserOwner(1), "alice")
	if err != nil || !reg.Created {
		t.Fatalf("expected registration, got %+v (%v)", reg, err)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Data["event"] != "store_opened" || entry.Data["driver"] != config.DriverSQLite {
		t.Fatalf("expected store_opened log, got %v", entry)
	}
}

func TestOpenRoutesMongoDriver(t *testing.T) {
	errDial := errors.New("dial failed")
	prev := openMongo
	openMongo = func(context.Context, config.Config, *logrus.Entry) (Backend, error) {
		return nil, errDial
	}
	t.Cleanup(func() { openMongo = prev })

	_, err := Open(context.Background(), config.Config{StoreDriver: config.DriverMongo}, nil)
	if !errors.Is(err, errDial) {
		t.Fatalf("expected mongo opener error, got %v", err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{StoreDriver: "mysql"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := Open(nil, config.Config{StoreDriver: config.DriverSQLite}, nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}
