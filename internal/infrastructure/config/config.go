// Package config loads application configuration from TOML files and
// environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Ingest   IngestConfig
	Invoice  InvoiceConfig
	Source   SourceConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodySize  int64
}

// IngestConfig holds usage-ingestion pipeline settings
type IngestConfig struct {
	BatchSize       int           // rows buffered per storage transaction
	FlushRetryDelay time.Duration // backoff before the single flush retry
	StallTimeout    time.Duration // no counter progress for this long fails the job
	MaxErrorSamples int           // row errors kept on the job for diagnostics
}

// InvoiceConfig holds invoice settlement settings
type InvoiceConfig struct {
	NumberPrefix   string
	TaxRatePercent float64
	DueInDays      int
}

// SourceConfig holds usage-file source store settings
type SourceConfig struct {
	Kind      string // "s3" or "local"
	LocalDir  string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with TEJIT_ prefix (e.g. TEJIT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("TEJIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
			MaxBodySize:  v.GetInt64("http.max_body_size"),
		},
		Ingest: IngestConfig{
			BatchSize:       v.GetInt("ingest.batch_size"),
			FlushRetryDelay: v.GetDuration("ingest.flush_retry_delay"),
			StallTimeout:    v.GetDuration("ingest.stall_timeout"),
			MaxErrorSamples: v.GetInt("ingest.max_error_samples"),
		},
		Invoice: InvoiceConfig{
			NumberPrefix:   v.GetString("invoice.number_prefix"),
			TaxRatePercent: v.GetFloat64("invoice.tax_rate_percent"),
			DueInDays:      v.GetInt("invoice.due_in_days"),
		},
		Source: SourceConfig{
			Kind:      v.GetString("source.kind"),
			LocalDir:  v.GetString("source.local_dir"),
			Endpoint:  v.GetString("source.endpoint"),
			Region:    v.GetString("source.region"),
			Bucket:    v.GetString("source.bucket"),
			AccessKey: v.GetString("source.access_key"),
			SecretKey: v.GetString("source.secret_key"),
			UseSSL:    v.GetBool("source.use_ssl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tejit-billing")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "tejit_billing")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.idle_timeout", time.Minute)
	v.SetDefault("http.max_body_size", int64(64<<20))

	v.SetDefault("ingest.batch_size", 200)
	v.SetDefault("ingest.flush_retry_delay", 500*time.Millisecond)
	v.SetDefault("ingest.stall_timeout", 5*time.Minute)
	v.SetDefault("ingest.max_error_samples", 50)

	v.SetDefault("invoice.number_prefix", "TejIT")
	v.SetDefault("invoice.tax_rate_percent", 18.0)
	v.SetDefault("invoice.due_in_days", 30)

	v.SetDefault("source.kind", "local")
	v.SetDefault("source.local_dir", "uploads")
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest.batch_size must be at least 1, got %d", c.Ingest.BatchSize)
	}
	if c.Invoice.TaxRatePercent < 0 || c.Invoice.TaxRatePercent > 100 {
		return fmt.Errorf("invoice.tax_rate_percent must be within [0,100], got %v", c.Invoice.TaxRatePercent)
	}
	switch c.Source.Kind {
	case "local", "s3":
	default:
		return fmt.Errorf("source.kind must be \"local\" or \"s3\", got %q", c.Source.Kind)
	}
	return nil
}

// DSN returns the postgres connection string for gorm.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL returns the postgres connection URL used by the migration CLI.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.DBName, d.SSLMode)
}
