package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type QueueConfig struct {
	// Transactions carries transaction.recorded events for forwarding.
	Transactions string
	// DomainEvents carries upstream prisoner events such as merges.
	DomainEvents string
	DeadLetter   string
}

type GeneralLedgerConfig struct {
	URL     string
	Timeout time.Duration
	Token   string
	Enabled bool
}

type JWTConfig struct {
	SecretKey    string
	RequiredRole string
}

type LedgerConfig struct {
	LegacyTimeZone            string
	CatalogPath               string
	MigrationTransactionTypes []string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Queues        QueueConfig
	GeneralLedger GeneralLedgerConfig
	JWT           JWTConfig
	Ledger        LedgerConfig
	LogLevel      string
	LogFormat     string
}

var envBindings = map[string]string{
	"server.port":                        "PORT",
	"database.host":                      "DATABASE_HOST",
	"database.port":                      "DATABASE_PORT",
	"database.user":                      "DATABASE_USER",
	"database.password":                  "DATABASE_PASSWORD",
	"database.name":                      "DATABASE_NAME",
	"database.ssl_mode":                  "DATABASE_SSL_MODE",
	"redis.host":                         "REDIS_HOST",
	"redis.port":                         "REDIS_PORT",
	"redis.password":                     "REDIS_PASSWORD",
	"redis.db":                           "REDIS_DB",
	"general_ledger.url":                 "GENERAL_LEDGER_URL",
	"general_ledger.token":               "GENERAL_LEDGER_TOKEN",
	"general_ledger.timeout":             "GENERAL_LEDGER_TIMEOUT",
	"general_ledger.enabled":             "GENERAL_LEDGER_ENABLED",
	"jwt.secret_key":                     "JWT_SECRET_KEY",
	"jwt.required_role":                  "JWT_REQUIRED_ROLE",
	"ledger.legacy_time_zone":            "LEDGER_LEGACY_TIME_ZONE",
	"ledger.catalog_path":                "LEDGER_CATALOG_PATH",
	"ledger.migration_transaction_types": "LEDGER_MIGRATION_TRANSACTION_TYPES",
	"log.level":                          "LOG_LEVEL",
	"log.format":                         "LOG_FORMAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "prisoner_finance")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Minute*5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queues.transactions", "ledgersync:transactions")
	v.SetDefault("queues.domain_events", "ledgersync:domain-events")
	v.SetDefault("queues.dead_letter", "ledgersync:dead-letter")

	v.SetDefault("general_ledger.url", "http://localhost:8090")
	v.SetDefault("general_ledger.timeout", 10*time.Second)
	v.SetDefault("general_ledger.enabled", true)

	v.SetDefault("jwt.required_role", "ROLE_PRISONER_FINANCE_SYNC")

	v.SetDefault("ledger.legacy_time_zone", "Europe/London")
	v.SetDefault("ledger.migration_transaction_types", []string{"OB"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration from v, which may already carry a config file.
// Environment variables override file values.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			AllowedOrigins:  v.GetStringSlice("server.allowed_origins"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetString("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.ssl_mode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetString("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queues: QueueConfig{
			Transactions: v.GetString("queues.transactions"),
			DomainEvents: v.GetString("queues.domain_events"),
			DeadLetter:   v.GetString("queues.dead_letter"),
		},
		GeneralLedger: GeneralLedgerConfig{
			URL:     v.GetString("general_ledger.url"),
			Timeout: v.GetDuration("general_ledger.timeout"),
			Token:   v.GetString("general_ledger.token"),
			Enabled: v.GetBool("general_ledger.enabled"),
		},
		JWT: JWTConfig{
			SecretKey:    v.GetString("jwt.secret_key"),
			RequiredRole: v.GetString("jwt.required_role"),
		},
		Ledger: LedgerConfig{
			LegacyTimeZone:            v.GetString("ledger.legacy_time_zone"),
			CatalogPath:               v.GetString("ledger.catalog_path"),
			MigrationTransactionTypes: splitList(v.GetStringSlice("ledger.migration_transaction_types")),
		},
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList accepts both a YAML list and a comma separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("jwt.secret_key is required"))
	}
	if c.GeneralLedger.Enabled && c.GeneralLedger.URL == "" {
		errs = append(errs, errors.New("general_ledger.url is required when the general ledger is enabled"))
	}
	if len(c.Ledger.MigrationTransactionTypes) == 0 {
		errs = append(errs, errors.New("ledger.migration_transaction_types must not be empty"))
	}
	return errors.Join(errs...)
}
