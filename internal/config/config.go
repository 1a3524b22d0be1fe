// Package config defines the configuration contract and handles loading and
// validating environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Canonical environment variable keys.
	KeyTelegramToken    = "TELEGRAM_BOT_TOKEN"
	KeyStoreDriver      = "STORE_DRIVER"
	KeyPostgresDB       = "POSTGRES_DB"
	KeyPostgresUser     = "POSTGRES_USER"
	KeyPostgresPassword = "POSTGRES_PASSWORD"
	KeyPostgresHost     = "POSTGRES_HOST"
	KeyPostgresPort     = "POSTGRES_PORT"
	KeyPostgresSSLMode  = "POSTGRES_SSLMODE"
	KeySQLitePath       = "SQLITE_PATH"
	KeyMongoURI         = "MONGO_URI"
	KeyMongoDB          = "MONGO_DB"
	KeyAppEnv           = "APP_ENV"
	KeyLogLevel         = "LOG_LEVEL"
	KeyLogFile          = "LOG_FILE"
	KeyLogMaxSizeMB     = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups    = "LOG_MAX_BACKUPS"
	KeyLogMaxAgeDays    = "LOG_MAX_AGE_DAYS"
	KeyHTTPPort         = "HTTP_PORT"
	KeyTimezone         = "BOT_TIMEZONE"

	// Allowed environment values.
	EnvDevelopment = "development"
	EnvProduction  = "production"

	// Supported storage drivers.
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"

	// Defaults for optional settings.
	DefaultAppEnv          = EnvProduction
	DefaultStoreDriver     = DriverPostgres
	DefaultLogLevel        = "info"
	DefaultHTTPPort        = 8080
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"
	DefaultSQLitePath      = "valley_bot.db"
	DefaultLogMaxSizeMB    = 50
	DefaultLogMaxBackups   = 5
	DefaultLogMaxAgeDays   = 14
	DefaultTimezone        = "UTC"
)

// VarSpec describes a single configuration key.
type VarSpec struct {
	Key         string // environment variable name
	Example     string // human-friendly sample value
	Required    bool   // whether the bot must refuse to start without this value
	Default     string // default when unset (empty when required)
	Description string // what the variable controls
	Notes       string // extra guidance or policies
}

// Contract enumerates the authoritative configuration keys for the bot.
// .env loading is only permitted when APP_ENV=development; production must rely
// on environment variables supplied by the runtime.
var Contract = []VarSpec{
	{
		Key:         KeyTelegramToken,
		Example:     "123:ABC",
		Required:    true,
		Description: "Telegram Bot Token issued by BotFather.",
	},
	{
		Key:         KeyStoreDriver,
		Example:     DriverPostgres + " / " + DriverSQLite + " / " + DriverMongo,
		Default:     DefaultStoreDriver,
		Description: "Persistent store backend.",
		Notes:       "sqlite is intended for local development.",
	},
	{
		Key:         KeyPostgresDB,
		Example:     "valley",
		Description: "PostgreSQL database name.",
		Notes:       "Required when " + KeyStoreDriver + "=" + DriverPostgres + ".",
	},
	{
		Key:         KeyPostgresUser,
		Example:     "valley",
		Description: "PostgreSQL user.",
		Notes:       "Required when " + KeyStoreDriver + "=" + DriverPostgres + ".",
	},
	{
		Key:         KeyPostgresPassword,
		Example:     "secret",
		Description: "PostgreSQL password.",
	},
	{
		Key:         KeyPostgresHost,
		Example:     "localhost",
		Description: "PostgreSQL host.",
		Notes:       "Required when " + KeyStoreDriver + "=" + DriverPostgres + ".",
	},
	{
		Key:         KeyPostgresPort,
		Example:     strconv.Itoa(DefaultPostgresPort),
		Default:     strconv.Itoa(DefaultPostgresPort),
		Description: "PostgreSQL port.",
	},
	{
		Key:         KeyPostgresSSLMode,
		Example:     "disable / require",
		Default:     DefaultPostgresSSLMode,
		Description: "PostgreSQL sslmode connection parameter.",
	},
	{
		Key:         KeySQLitePath,
		Example:     DefaultSQLitePath,
		Default:     DefaultSQLitePath,
		Description: "SQLite database file used by the sqlite driver.",
	},
	{
		Key:         KeyMongoURI,
		Example:     "mongodb://localhost:27017",
		Description: "MongoDB connection string.",
		Notes:       "Required when " + KeyStoreDriver + "=" + DriverMongo + ".",
	},
	{
		Key:         KeyMongoDB,
		Example:     "valley_bot",
		Description: "MongoDB database name.",
		Notes:       "Required when " + KeyStoreDriver + "=" + DriverMongo + ".",
	},
	{
		Key:         KeyAppEnv,
		Example:     EnvDevelopment + " / " + EnvProduction,
		Default:     DefaultAppEnv,
		Description: "Runtime environment; controls log format and dotenv usage.",
		Notes:       "Load .env files only when APP_ENV=" + EnvDevelopment + ".",
	},
	{
		Key:         KeyLogLevel,
		Example:     DefaultLogLevel,
		Default:     DefaultLogLevel,
		Description: "Overrides default log level.",
	},
	{
		Key:         KeyLogFile,
		Example:     "/var/log/valley_bot/bot.log",
		Description: "Optional rotating log file written alongside stdout.",
	},
	{
		Key:         KeyLogMaxSizeMB,
		Example:     strconv.Itoa(DefaultLogMaxSizeMB),
		Default:     strconv.Itoa(DefaultLogMaxSizeMB),
		Description: "Log file size in megabytes before rotation.",
	},
	{
		Key:         KeyLogMaxBackups,
		Example:     strconv.Itoa(DefaultLogMaxBackups),
		Default:     strconv.Itoa(DefaultLogMaxBackups),
		Description: "Rotated log files to keep.",
	},
	{
		Key:         KeyLogMaxAgeDays,
		Example:     strconv.Itoa(DefaultLogMaxAgeDays),
		Default:     strconv.Itoa(DefaultLogMaxAgeDays),
		Description: "Days to keep rotated log files.",
	},
	{
		Key:         KeyHTTPPort,
		Example:     strconv.Itoa(DefaultHTTPPort),
		Default:     strconv.Itoa(DefaultHTTPPort),
		Description: "HTTP health/metrics port.",
	},
	{
		Key:         KeyTimezone,
		Example:     "Asia/Seoul",
		Default:     DefaultTimezone,
		Description: "IANA timezone that defines the calendar day for daily ad rewards.",
	},
}

// Config mirrors resolved configuration values after loading.
type Config struct {
	TelegramToken string
	StoreDriver   string
	Postgres      PostgresConfig
	SQLitePath    string
	MongoURI      string
	MongoDB       string
	AppEnv        string
	LogLevel      string
	LogFile       LogFileConfig
	HTTPPort      int
	Timezone      string
}

// PostgresConfig holds the PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN renders the key/value connection string understood by the pgx driver.
func (p PostgresConfig) DSN() string {
	parts := []string{
		"host=" + dsnQuote(p.Host),
		"port=" + strconv.Itoa(p.Port),
		"user=" + dsnQuote(p.User),
		"dbname=" + dsnQuote(p.Database),
		"sslmode=" + dsnQuote(firstNonEmpty(p.SSLMode, DefaultPostgresSSLMode)),
	}
	if p.Password != "" {
		parts = append(parts, "password="+dsnQuote(p.Password))
	}
	return strings.Join(parts, " ")
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// dsnQuote renders v as a single-quoted libpq keyword value.
func dsnQuote(v string) string {
	return "'" + dsnEscaper.Replace(v) + "'"
}

// LogFileConfig controls the optional rotating log file.
type LogFileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Enabled reports whether a log file path was configured.
func (l LogFileConfig) Enabled() bool {
	return strings.TrimSpace(l.Path) != ""
}

// Load resolves configuration from the environment (with optional dotenv in development).
func Load() (Config, error) {
	appEnv, err := resolveAppEnv()
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(appEnv); err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:        firstNonEmpty(normalizeEnv(os.Getenv(KeyAppEnv)), appEnv),
		TelegramToken: strings.TrimSpace(os.Getenv(KeyTelegramToken)),
		StoreDriver:   firstNonEmpty(normalizeEnv(os.Getenv(KeyStoreDriver)), DefaultStoreDriver),
		Postgres: PostgresConfig{
			Host:     strings.TrimSpace(os.Getenv(KeyPostgresHost)),
			Port:     DefaultPostgresPort,
			User:     strings.TrimSpace(os.Getenv(KeyPostgresUser)),
			Password: os.Getenv(KeyPostgresPassword),
			Database: strings.TrimSpace(os.Getenv(KeyPostgresDB)),
			SSLMode:  firstNonEmpty(strings.TrimSpace(os.Getenv(KeyPostgresSSLMode)), DefaultPostgresSSLMode),
		},
		SQLitePath: firstNonEmpty(strings.TrimSpace(os.Getenv(KeySQLitePath)), DefaultSQLitePath),
		MongoURI:   strings.TrimSpace(os.Getenv(KeyMongoURI)),
		MongoDB:    strings.TrimSpace(os.Getenv(KeyMongoDB)),
		LogLevel:   firstNonEmpty(strings.TrimSpace(os.Getenv(KeyLogLevel)), DefaultLogLevel),
		LogFile: LogFileConfig{
			Path:       strings.TrimSpace(os.Getenv(KeyLogFile)),
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		HTTPPort: DefaultHTTPPort,
		Timezone: firstNonEmpty(strings.TrimSpace(os.Getenv(KeyTimezone)), DefaultTimezone),
	}

	if err := validateAppEnv(cfg.AppEnv); err != nil {
		return Config{}, err
	}
	if err := validateDriver(cfg.StoreDriver); err != nil {
		return Config{}, err
	}

	missing := make([]string, 0)

	if cfg.TelegramToken == "" {
		missing = append(missing, KeyTelegramToken)
	}

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.Postgres.Database == "" {
			missing = append(missing, KeyPostgresDB)
		}
		if cfg.Postgres.User == "" {
			missing = append(missing, KeyPostgresUser)
		}
		if cfg.Postgres.Host == "" {
			missing = append(missing, KeyPostgresHost)
		}
	case DriverMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, KeyMongoURI)
		}
		if cfg.MongoDB == "" {
			missing = append(missing, KeyMongoDB)
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if cfg.StoreDriver == DriverMongo && !strings.HasPrefix(cfg.MongoURI, "mongodb://") && !strings.HasPrefix(cfg.MongoURI, "mongodb+srv://") {
		return Config{}, fmt.Errorf("invalid %s: must start with mongodb:// or mongodb+srv://", KeyMongoURI)
	}

	ints := []struct {
		key    string
		target *int
	}{
		{KeyPostgresPort, &cfg.Postgres.Port},
		{KeyHTTPPort, &cfg.HTTPPort},
		{KeyLogMaxSizeMB, &cfg.LogFile.MaxSizeMB},
		{KeyLogMaxBackups, &cfg.LogFile.MaxBackups},
		{KeyLogMaxAgeDays, &cfg.LogFile.MaxAgeDays},
	}
	for _, item := range ints {
		if err := parsePositiveInt(item.key, item.target); err != nil {
			return Config{}, err
		}
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyTimezone, err)
	}

	return cfg, nil
}

// IsDevelopment reports if APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// Location resolves the configured timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(firstNonEmpty(c.Timezone, DefaultTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func parsePositiveInt(key string, target *int) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return fmt.Errorf("%s must be greater than 0", key)
	}

	*target = value
	return nil
}

func resolveAppEnv() (string, error) {
	if explicit := normalizeEnv(os.Getenv(KeyAppEnv)); explicit != "" {
		return explicit, nil
	}

	dotEnvValues, err := godotenv.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultAppEnv, nil
		}
		return "", fmt.Errorf("read .env: %w", err)
	}

	if envFromFile := normalizeEnv(dotEnvValues[KeyAppEnv]); envFromFile != "" {
		return envFromFile, nil
	}

	return DefaultAppEnv, nil
}

func loadDotEnv(appEnv string) error {
	if appEnv != EnvDevelopment {
		return nil
	}

	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}

	return nil
}

func validateAppEnv(appEnv string) error {
	if appEnv == EnvDevelopment || appEnv == EnvProduction {
		return nil
	}

	return fmt.Errorf("invalid %s: must be %q or %q", KeyAppEnv, EnvDevelopment, EnvProduction)
}

func validateDriver(driver string) error {
	switch driver {
	case DriverPostgres, DriverSQLite, DriverMongo:
		return nil
	default:
		return fmt.Errorf("invalid %s: must be %q, %q or %q", KeyStoreDriver, DriverPostgres, DriverSQLite, DriverMongo)
	}
}

func normalizeEnv(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return strings.TrimSpace(val)
		}
	}
	return ""
}
