package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`
	StaticDir  string `env:"STATIC_DIR"`
	Database   DatabaseConfig
	Auth       AuthConfig
	Log        LogConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"stockkeep"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	DBName   string `env:"DB_NAME" envDefault:"stockkeep_db"`
	UseSSL   bool   `env:"DB_USE_SSL" envDefault:"false"`
}

// AuthConfig controls password hashing and session tokens.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	// BcryptCost is the adaptive work factor for password hashes.
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	// MinPasswordLength is enforced at registration when greater than zero.
	MinPasswordLength int `env:"AUTH_MIN_PASSWORD_LENGTH" envDefault:"0"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// MQConfig selects the broker product events are published to.
// An empty Backend disables publishing.
type MQConfig struct {
	Backend        string `env:"MQ_BACKEND"`
	ProductChannel string `env:"MQ_PRODUCT_CHANNEL" envDefault:"inventory.products"`
	// PublishTimeout bounds a single event publish, off the request path.
	PublishTimeout time.Duration `env:"MQ_PUBLISH_TIMEOUT" envDefault:"5s"`
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" envDefault:"false"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH_COUNT" envDefault:"10"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
}

const (
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

// LoadConfig reads the process environment, loading .env first when ENV=dev.
func LoadConfig() Config {
	cfg, err := Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// Parse is LoadConfig without the exit, for callers that handle the error.
func Parse() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	// Managed Azure Postgres only accepts TLS connections.
	if strings.HasSuffix(strings.ToLower(cfg.Database.Host), ".azure.com") {
		cfg.Database.UseSSL = true
	}
	cfg.MQ.Backend = strings.ToLower(strings.TrimSpace(cfg.MQ.Backend))
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)

	return cfg, nil
}
