package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	Logger     LoggerConfig
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Postgres   PostgresConfig
	Financing  FinancingConfig
	Storefront StorefrontConfig
	Admin      AdminConfig
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`        // debug, info, warn, error
	Mode       string `envconfig:"LOG_MODE" default:"development"`  // development or production
	FileEnable bool   `envconfig:"LOG_FILE_ENABLE" default:"false"` // also write JSON logs to Filename
	Filename   string `envconfig:"LOG_FILENAME" default:"logs/storefront.log"`
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host           string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port           string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User           string        `envconfig:"POSTGRES_USER" required:"true"`
	Password       string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName         string        `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode        string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	ConnectTries   int           `envconfig:"POSTGRES_CONNECT_TRIES" default:"5"`
	ConnectBackoff time.Duration `envconfig:"POSTGRES_CONNECT_BACKOFF" default:"2s"`
	AutoMigrate    bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// FinancingConfig selects how products without plan associations are financed.
type FinancingConfig struct {
	FallbackPolicy string `envconfig:"FINANCING_FALLBACK_POLICY" default:"none"` // none or all-active
}

// StorefrontConfig holds page-level settings.
type StorefrontConfig struct {
	ContactDefaultPhone string `envconfig:"CONTACT_DEFAULT_PHONE" default:"5491123365608"`
	RelatedLimit        int    `envconfig:"RELATED_PRODUCTS_LIMIT" default:"3"`
	FeaturedLimit       int    `envconfig:"FEATURED_PRODUCTS_LIMIT" default:"6"`
}

// AdminConfig guards the administration API. An empty token disables it.
type AdminConfig struct {
	APIToken string `envconfig:"ADMIN_API_TOKEN"`
}

// Enabled reports whether the administration API should be mounted.
func (ac *AdminConfig) Enabled() bool {
	return ac.APIToken != ""
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup. Values owned by a package,
// such as the financing fallback policy, are parsed by that package.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if cfg.Postgres.ConnectTries < 0 {
		return nil, fmt.Errorf("invalid POSTGRES_CONNECT_TRIES: %d", cfg.Postgres.ConnectTries)
	}
	return &cfg, nil
}
