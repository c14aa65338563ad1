// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// AdminConfig covers the ops listener: health, metrics and the admin API.
// It binds separately from the member API so it can stay off the public
// network.
type AdminConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // optional; rate limiting is disabled when empty
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PayHereConfig carries the merchant credentials and the three callback URLs
// the hosted checkout posts back to. All URLs must be publicly reachable;
// the gateway cannot call back into a private address.
type PayHereConfig struct {
	MerchantID     string `yaml:"merchant_id"`
	MerchantSecret string `yaml:"merchant_secret"`
	Sandbox        bool   `yaml:"sandbox"`
	ReturnURL      string `yaml:"return_url"`
	CancelURL      string `yaml:"cancel_url"`
	NotifyURL      string `yaml:"notify_url"`
}

type PaymentConfig struct {
	PayHere PayHereConfig `yaml:"payhere"`
	// Currency is the default checkout currency for amounts that do not
	// carry their own, ISO 4217.
	Currency string `yaml:"currency"`
	// CompletionWindow bounds how long after creation a payment may be
	// completed through the unsigned channels (return redirect, manual
	// completion). Empirical, not a protocol guarantee; see the webhook
	// reliability notes in the handlers.
	CompletionWindow time.Duration `yaml:"completion_window"`
}

type SubscriptionConfig struct {
	DurationDays int `yaml:"duration_days"` // renewal interval for instructor subscriptions
}

type SchedulerConfig struct {
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
}

type RateLimitConfig struct {
	CheckoutPerMinute int `yaml:"checkout_per_minute"` // per payer
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Admin        AdminConfig        `yaml:"admin"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Payment      PaymentConfig      `yaml:"payment"`
	Subscription SubscriptionConfig `yaml:"subscription"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Payment.PayHere.MerchantID == "" {
		return nil, errors.New("payment.payhere.merchant_id is required")
	}
	if cfg.Payment.PayHere.MerchantSecret == "" {
		return nil, errors.New("payment.payhere.merchant_secret is required")
	}
	if cfg.Payment.PayHere.ReturnURL == "" || cfg.Payment.PayHere.CancelURL == "" || cfg.Payment.PayHere.NotifyURL == "" {
		return nil, errors.New("payment.payhere return_url, cancel_url and notify_url are required")
	}
	if cfg.Server.JWTSecret == "" {
		return nil, errors.New("server.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills zero values in place. Split out of LoadConfig so tests
// can build configs without a yaml file on disk.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "LKR"
	}
	if cfg.Payment.CompletionWindow <= 0 {
		cfg.Payment.CompletionWindow = time.Hour
	}
	if cfg.Subscription.DurationDays <= 0 {
		cfg.Subscription.DurationDays = 30
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.RateLimit.CheckoutPerMinute <= 0 {
		cfg.RateLimit.CheckoutPerMinute = 10
	}
}
