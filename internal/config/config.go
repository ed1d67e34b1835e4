package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	envPrefix   = "STOREFRONT_"
	fileEnvName = "STOREFRONT_CONFIG_FILE"
)

type Config struct {
	Primary      Primary            `koanf:"primary"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	Mongo        MongoConfig        `koanf:"mongo"`
	Payment      PaymentConfig      `koanf:"payment"`
	Retry        RetryConfig        `koanf:"retry"`
	Checkout     CheckoutConfig     `koanf:"checkout"`
	Notification NotificationConfig `koanf:"notification"`
	Shipping     ShippingConfig     `koanf:"shipping"`
	Currency     CurrencyConfig     `koanf:"currency"`
	Logger       LoggerConfig       `koanf:"logger"`
	Worker       WorkerConfig       `koanf:"worker"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port           string        `koanf:"port" validate:"required"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout    time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig: an empty Addr keeps session state in process memory.
type RedisConfig struct {
	Addr       string        `koanf:"addr"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"required"`
}

type MongoConfig struct {
	URI      string `koanf:"uri" validate:"required"`
	Database string `koanf:"database" validate:"required"`
}

type PaymentConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required"`
	SecretKey string        `koanf:"secret_key" validate:"required"`
	PublicKey string        `koanf:"public_key"`
	Timeout   time.Duration `koanf:"timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

type CheckoutConfig struct {
	PaymentTimeout       time.Duration `koanf:"payment_timeout" validate:"required"`
	MaterializeTimeout   time.Duration `koanf:"materialize_timeout" validate:"required"`
	FailureWriteTimeout  time.Duration `koanf:"failure_write_timeout" validate:"required"`
	HookTimeout          time.Duration `koanf:"hook_timeout" validate:"required"`
	SupportContact       string        `koanf:"support_contact" validate:"required"`
	PaymentMethod        string        `koanf:"payment_method" validate:"required"`
	CatalogPath          string        `koanf:"catalog_path" validate:"required"`
	SettlementCurrencies []string      `koanf:"settlement_currencies" validate:"required,min=1"`
	DefaultSettlement    string        `koanf:"default_settlement" validate:"required"`
}

// Budget is the longest a checkout submission can run: the charge, then
// materialization, then recording a materialization failure.
func (c CheckoutConfig) Budget() time.Duration {
	return c.PaymentTimeout + c.MaterializeTimeout + c.FailureWriteTimeout
}

// NotificationConfig: each channel is enabled only when its endpoint is set.
type NotificationConfig struct {
	EmailBaseURL string   `koanf:"email_base_url"`
	EmailAPIKey  string   `koanf:"email_api_key"`
	FromAddress  string   `koanf:"from_address"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	OrderTopic   string   `koanf:"order_topic"`
}

// ShippingConfig amounts are decimal strings in the base currency.
type ShippingConfig struct {
	HomeCountry      string `koanf:"home_country" validate:"required"`
	DomesticFee      string `koanf:"domestic_fee" validate:"required"`
	InternationalFee string `koanf:"international_fee" validate:"required"`
	FreeThreshold    string `koanf:"free_threshold"`
}

// CurrencyConfig: an empty File uses the built-in table.
type CurrencyConfig struct {
	File string `koanf:"file"`
}

type WorkerConfig struct {
	Interval    time.Duration `koanf:"interval" validate:"required"`
	BatchSize   int           `koanf:"batch_size" validate:"required"`
	StaleAfter  time.Duration `koanf:"stale_after" validate:"required"`
	MaxAttempts int           `koanf:"max_attempts" validate:"required"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"primary.env":                    "development",
		"server.port":                    "8080",
		"server.read_timeout":            "15s",
		"server.write_timeout":           "3m",
		"server.idle_timeout":            "60s",
		"server.request_timeout":         "150s",
		"database.ssl_mode":              "disable",
		"database.max_open_conns":        10,
		"database.max_idle_conns":        2,
		"database.conn_max_lifetime":     "1h",
		"database.conn_max_idle_time":    "30m",
		"redis.session_ttl":              "720h",
		"payment.timeout":                "30s",
		"retry.base_delay":               "500ms",
		"retry.max_retries":              3,
		"checkout.payment_timeout":       "2m",
		"checkout.materialize_timeout":   "30s",
		"checkout.failure_write_timeout": "5s",
		"checkout.hook_timeout":          "10s",
		"checkout.payment_method":        "card",
		"checkout.catalog_path":          "/shop",
		"checkout.settlement_currencies": "NGN,USD,GHS,ZAR,KES",
		"checkout.default_settlement":    "NGN",
		"notification.order_topic":       "orders.created",
		"shipping.home_country":          "Nigeria",
		"shipping.domestic_fee":          "2500",
		"shipping.international_fee":     "15000",
		"worker.interval":                "1m",
		"worker.batch_size":              50,
		"worker.stale_after":             "5m",
		"worker.max_attempts":            5,
		"logger.level":                   "info",
		"logger.format":                  "text",
	}
}

// LoadConfig layers defaults, the optional YAML file named by
// STOREFRONT_CONFIG_FILE and STOREFRONT_ environment variables, in that order.
func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	if path := os.Getenv(fileEnvName); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			return nil, err
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		if s == fileEnvName {
			return ""
		}
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if err := mainConfig.validateCheckoutBudget(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// validateCheckoutBudget rejects timeouts that would cut a checkout
// submission short. The server must be able to write the response and the
// reconciler must not pick up an attempt the request is still working on.
func (c *Config) validateCheckoutBudget() error {
	budget := c.Checkout.Budget()
	if c.Server.WriteTimeout <= budget {
		return fmt.Errorf("server.write_timeout (%s) must exceed the checkout budget (%s)", c.Server.WriteTimeout, budget)
	}
	if c.Worker.StaleAfter <= budget {
		return fmt.Errorf("worker.stale_after (%s) must exceed the checkout budget (%s)", c.Worker.StaleAfter, budget)
	}
	return nil
}
