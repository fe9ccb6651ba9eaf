package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:""`
	DBName      string `envconfig:"DB_NAME" default:"valoria"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS" default:""`
	OrderEventsTopic string   `envconfig:"ORDER_EVENTS_TOPIC" default:"order-events"`

	OrderNumberPrefix string `envconfig:"ORDER_NUMBER_PREFIX" default:"VAL"`

	PaymentAPIURL        string `envconfig:"PAYMENT_API_URL" default:""`
	PaymentAPIKey        string `envconfig:"PAYMENT_API_KEY" default:""`
	PaymentCurrency      string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	PaymentWebhookSecret string `envconfig:"PAYMENT_WEBHOOK_SECRET" default:""`

	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" default:""`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`
	SeedCatalog   bool   `envconfig:"SEED_CATALOG" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	return &cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the
// DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}
