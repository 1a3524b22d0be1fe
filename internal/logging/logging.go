// Package logging configures the process logger. Entries are logrus entries
// carrying service and env fields; call sites add an event field.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"valley_bot/internal/config"
)

const serviceName = "valley-bot"

var (
	baseLogger *logrus.Entry
	fileWriter *lumberjack.Logger
)

// Fields is a shorthand alias for structured log fields.
type Fields = logrus.Fields

// Chat describes the chat an entry is about. Zero fields are omitted.
type Chat struct {
	Event  string
	Route  string
	ChatID int64
	UserID int64
	Owner  string
}

// Setup builds the process logger from cfg: level, formatter per APP_ENV and,
// when LOG_FILE is set, a rotating file next to stdout.
func Setup(cfg config.Config) (*logrus.Entry, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stdout
	if cfg.LogFile.Enabled() {
		writer, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stdout, writer)
		fileWriter = writer
	}

	baseLogger = newBase(cfg.AppEnv, level, out)
	return baseLogger, nil
}

// Logger returns the process logger. Before Setup it is an info-level JSON
// logger so startup failures are still structured.
func Logger() *logrus.Entry {
	if baseLogger == nil {
		baseLogger = newBase(config.DefaultAppEnv, logrus.InfoLevel, os.Stdout)
	}
	return baseLogger
}

// ForChat enriches base with the fields of c. A nil base uses Logger().
func ForChat(base *logrus.Entry, c Chat) *logrus.Entry {
	if base == nil {
		base = Logger()
	}

	fields := Fields{}
	if e := strings.TrimSpace(c.Event); e != "" {
		fields["event"] = e
	}
	if c.Route != "" {
		fields["route"] = c.Route
	}
	if c.ChatID != 0 {
		fields["chat_id"] = c.ChatID
	}
	if c.UserID != 0 {
		fields["user_id"] = c.UserID
	}
	if o := strings.TrimSpace(c.Owner); o != "" {
		fields["owner"] = o
	}

	return base.WithFields(fields)
}

// Info logs on the process logger.
func Info(msg string, fields Fields) {
	withFields(fields).Info(msg)
}

// Warn logs on the process logger.
func Warn(msg string, fields Fields) {
	withFields(fields).Warn(msg)
}

// Error logs on the process logger.
func Error(msg string, fields Fields) {
	withFields(fields).Error(msg)
}

// Close closes the rotating log file, if any.
func Close() error {
	if fileWriter == nil {
		return nil
	}

	err := fileWriter.Close()
	fileWriter = nil
	return err
}

func withFields(fields Fields) *logrus.Entry {
	if len(fields) == 0 {
		return Logger()
	}
	return Logger().WithFields(fields)
}

func newBase(appEnv string, level logrus.Level, out io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(out)
	logger.SetFormatter(formatterForEnv(appEnv))

	return logger.WithFields(Fields{
		"service": serviceName,
		"env":     appEnv,
	})
}

func formatterForEnv(appEnv string) logrus.Formatter {
	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "ts",
		logrus.FieldKeyMsg:   "msg",
		logrus.FieldKeyLevel: "level",
	}

	if appEnv == config.EnvDevelopment {
		return &logrus.TextFormatter{
			FullTimestamp:          true,
			TimestampFormat:        time.RFC3339Nano,
			FieldMap:               fieldMap,
			DisableLevelTruncation: true,
		}
	}

	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap:        fieldMap,
	}
}

func openLogFile(cfg config.LogFileConfig) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}, nil
}

func parseLevel(value string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level %q: %w", value, err)
	}

	return level, nil
}

func resetLogger() {
	baseLogger = nil
}
