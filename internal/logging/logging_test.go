package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"valley_bot/internal/config"
)

func TestSetupUsesJSONFormatterInProduction(t *testing.T) {
	resetLogger()

	entry, err := Setup(config.Config{AppEnv: config.EnvProduction, LogLevel: "info"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	jsonFormatter, ok := entry.Logger.Formatter.(*logrus.JSONFormatter)
	if !ok {
		t.Fatalf("expected JSON formatter, got %T", entry.Logger.Formatter)
	}

	if jsonFormatter.FieldMap[logrus.FieldKeyTime] != "ts" {
		t.Fatalf("expected ts field for timestamps, got %q", jsonFormatter.FieldMap[logrus.FieldKeyTime])
	}
	if entry.Data["service"] != serviceName {
		t.Fatalf("expected service field, got %v", entry.Data["service"])
	}
	if entry.Data["env"] != config.EnvProduction {
		t.Fatalf("expected env field to be %q, got %v", config.EnvProduction, entry.Data["env"])
	}
}

func TestSetupUsesTextFormatterInDevelopment(t *testing.T) {
	resetLogger()

	entry, err := Setup(config.Config{AppEnv: config.EnvDevelopment, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := entry.Logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("expected Text formatter, got %T", entry.Logger.Formatter)
	}
	if entry.Data["env"] != config.EnvDevelopment {
		t.Fatalf("expected env field to be %q, got %v", config.EnvDevelopment, entry.Data["env"])
	}
}

func TestSetupRejectsInvalidLogLevel(t *testing.T) {
	resetLogger()

	if _, err := Setup(config.Config{AppEnv: config.EnvDevelopment, LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for invalid log level")
	}

	if baseLogger != nil {
		t.Fatalf("base logger should remain unset after failure")
	}
}

func TestPackageHelpersLogOnProcessLogger(t *testing.T) {
	resetLogger()
	t.Cleanup(resetLogger)

	logger, hook := test.NewNullLogger()
	baseLogger = logger.WithField("service", serviceName)

	Info("bot started", Fields{"event": "startup"})
	Warn("slow start", nil)
	Error("store down", Fields{"event": "store_error"})

	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}

	levels := []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	for i, want := range levels {
		if entries[i].Level != want {
			t.Fatalf("entry %d: expected level %s, got %s", i, want, entries[i].Level)
		}
		if entries[i].Data["service"] != serviceName {
			t.Fatalf("entry %d: expected service field, got %v", i, entries[i].Data)
		}
	}
	if entries[2].Data["event"] != "store_error" {
		t.Fatalf("expected store_error event, got %v", entries[2].Data)
	}
}

func TestForChatOmitsZeroFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	base := logger.WithField("service", serviceName)

	ForChat(base, Chat{Event: "handler_error", Route: "/points", ChatID: -100, Owner: "group_-100"}).Error("failed")

	entry := hook.LastEntry()
	if entry.Data["event"] != "handler_error" || entry.Data["route"] != "/points" {
		t.Fatalf("expected event and route, got %v", entry.Data)
	}
	if entry.Data["chat_id"] != int64(-100) || entry.Data["owner"] != "group_-100" {
		t.Fatalf("expected chat fields, got %v", entry.Data)
	}
	if _, ok := entry.Data["user_id"]; ok {
		t.Fatalf("expected zero user id to be omitted, got %v", entry.Data)
	}
	if entry.Data["service"] != serviceName {
		t.Fatalf("expected base fields preserved, got %v", entry.Data)
	}
}

func TestLoggerBeforeSetupIsJSON(t *testing.T) {
	resetLogger()
	t.Cleanup(resetLogger)

	entry := Logger()
	if _, ok := entry.Logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter before setup, got %T", entry.Logger.Formatter)
	}
	if entry.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", entry.Logger.GetLevel())
	}
	if Logger() != entry {
		t.Fatalf("expected the fallback logger to be reused")
	}
}

func TestSetupWritesRotatingLogFile(t *testing.T) {
	resetLogger()
	t.Cleanup(func() {
		_ = Close()
		resetLogger()
	})

	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	entry, err := Setup(config.Config{
		AppEnv:   config.EnvProduction,
		LogLevel: "info",
		LogFile: config.LogFileConfig{
			Path:       path,
			MaxSizeMB:  1,
			MaxBackups: 1,
			MaxAgeDays: 1,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry.WithField("event", "file_check").Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
	if !strings.Contains(string(data), `"event":"file_check"`) {
		t.Fatalf("expected log line in file, got %s", data)
	}
}
