package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	ProviderD2   = "dibs-d2"
	ProviderEasy = "dibs-easy"
)

type Config struct {
	App     AppConfig     `envPrefix:"APP_"`
	HTTP    ServerConfig  `envPrefix:"HTTP_"`
	GRPC    GRPCConfig    `envPrefix:"GRPC_"`
	MySQL   MySQLConfig   `envPrefix:"MYSQL_"`
	Log     LogConfig     `envPrefix:"LOG_"`
	D2      D2Config      `envPrefix:"DIBS_D2_"`
	Easy    EasyConfig    `envPrefix:"DIBS_EASY_"`
	Jobs    JobsConfig    `envPrefix:"JOBS_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

type AppConfig struct {
	ServiceName     string `env:"SERVICE_NAME" envDefault:"dibs-service"`
	DefaultProvider string `env:"DEFAULT_PROVIDER" envDefault:"dibs-easy"`
	// OrdersFile seeds the in-memory order book.
	OrdersFile    string `env:"ORDERS_FILE"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

type ServerConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8080"`
}

type GRPCConfig struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"9090"`
}

// MySQLConfig backs the callback journal. An empty DSN disables it.
type MySQLConfig struct {
	DSN             string        `env:"DSN"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

type D2Config struct {
	MerchantID  string        `env:"MERCHANT_ID"`
	MD5Key1     string        `env:"MD5_KEY1"`
	MD5Key2     string        `env:"MD5_KEY2"`
	APIUsername string        `env:"API_USERNAME"`
	APIPassword string        `env:"API_PASSWORD"`
	Lang        string        `env:"LANG" envDefault:"en"`
	PayTypes    []string      `env:"PAY_TYPES" envSeparator:","`
	CalcFee     bool          `env:"CALC_FEE"`
	Capture     bool          `env:"CAPTURE"`
	TestMode    bool          `env:"TEST_MODE" envDefault:"true"`
	BaseURL     string        `env:"BASE_URL"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

type EasyConfig struct {
	TestMode       bool          `env:"TEST_MODE" envDefault:"true"`
	TestSecretKey  string        `env:"TEST_SECRET_KEY"`
	LiveSecretKey  string        `env:"LIVE_SECRET_KEY"`
	TermsURL       string        `env:"TERMS_URL"`
	Language       string        `env:"LANGUAGE" envDefault:"en-GB"`
	PaymentMethods []string      `env:"PAYMENT_METHODS" envSeparator:","`
	AutoCapture    bool          `env:"AUTO_CAPTURE"`
	BaseURL        string        `env:"BASE_URL"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
}

type JobsConfig struct {
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"2m"`
}

type MetricsConfig struct {
	Namespace string `env:"NAMESPACE" envDefault:"dibs"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.App.DefaultProvider = strings.ToLower(strings.TrimSpace(cfg.App.DefaultProvider))
	switch cfg.App.DefaultProvider {
	case ProviderD2, ProviderEasy:
	default:
		return nil, fmt.Errorf("APP_DEFAULT_PROVIDER must be %s or %s, got %q", ProviderD2, ProviderEasy, cfg.App.DefaultProvider)
	}
	if cfg.Jobs.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("JOBS_RECONCILE_INTERVAL must be positive")
	}

	return cfg, nil
}
