package config

import (
	"fmt"
	"net/url"
	"strings"
)

const redactedSuffix = "...redacted"

// FormatRedacted renders the resolved configuration with secrets masked, for
// the -config-only startup check.
func FormatRedacted(cfg Config) string {
	lines := []string{
		"telegram_token: " + maskSecret(cfg.TelegramToken),
		"store_driver: " + cfg.StoreDriver,
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		lines = append(lines,
			fmt.Sprintf("postgres: host=%s port=%d db=%s user=%s sslmode=%s password=%s",
				cfg.Postgres.Host,
				cfg.Postgres.Port,
				cfg.Postgres.Database,
				cfg.Postgres.User,
				cfg.Postgres.SSLMode,
				maskPassword(cfg.Postgres.Password),
			),
		)
	case DriverSQLite:
		lines = append(lines, "sqlite_path: "+cfg.SQLitePath)
	case DriverMongo:
		lines = append(lines,
			"mongo_uri: "+redactURI(cfg.MongoURI),
			"mongo_db: "+cfg.MongoDB,
		)
	}

	logFile := "stdout"
	if cfg.LogFile.Enabled() {
		logFile = fmt.Sprintf("%s (max %dMB, %d backups, %d days)",
			cfg.LogFile.Path, cfg.LogFile.MaxSizeMB, cfg.LogFile.MaxBackups, cfg.LogFile.MaxAgeDays)
	}

	lines = append(lines,
		"app_env: "+cfg.AppEnv,
		"log_level: "+cfg.LogLevel,
		"log_file: "+logFile,
		fmt.Sprintf("http_port: %d", cfg.HTTPPort),
		"timezone: "+cfg.Timezone,
	)

	return strings.Join(lines, "\n")
}

func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 4 {
		return "****" + redactedSuffix
	}
	return value[:4] + redactedSuffix
}

func maskPassword(value string) string {
	if value == "" {
		return "(unset)"
	}
	return "****"
}

func redactURI(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	parsed.User = nil
	return parsed.String()
}
