package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"marketplace-service/database"
	aws_pkg "marketplace-service/pkg/aws"

	"github.com/joho/godotenv"
)

const dbSecretName = "marketplace/DB_CREDENTIALS"

type Config struct {
	Env              string
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	// Optional. Without Redis, Idempotency-Key headers are ignored.
	RedisURL string
	// Optional. Events go to Kafka and/or SNS when configured.
	KafkaBrokers   []string
	KafkaTopic     string
	SNSTopicARN    string
	MetricsEnabled bool
	JWTSecret      string

	CheckoutConcurrency int
	IdempotencyTTL      time.Duration
	RequestTimeout      time.Duration
	// Checkout requests per second allowed per user, with CheckoutBurst.
	CheckoutRateLimit float64
	CheckoutBurst     int
}

// LoadConfig reads configuration from the environment (and a .env file when
// present), with DB credentials optionally overridden from Secrets Manager.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8086"),
		PostgresUser:        os.Getenv("POSTGRES_USER"),
		PostgresPassword:    os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:          os.Getenv("POSTGRES_DB"),
		PostgresHost:        os.Getenv("POSTGRES_HOST"),
		PostgresPort:        getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:    getEnv("POSTGRES_TIMEZONE", "UTC"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getEnv("ORDER_EVENTS_TOPIC", "marketplace.orders"),
		SNSTopicARN:         os.Getenv("ORDER_SNS_TOPIC_ARN"),
		MetricsEnabled:      getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		CheckoutConcurrency: getEnvInt("CHECKOUT_CONCURRENCY", 4),
		IdempotencyTTL:      getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		CheckoutRateLimit:   getEnvFloat("CHECKOUT_RATE_LIMIT", 2),
		CheckoutBurst:       getEnvInt("CHECKOUT_BURST", 5),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if m, err := sm.GetSecretMap(context.Background(), dbSecretName); err == nil {
				cfg.applySecrets(m)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applySecrets(m map[string]string) {
	overrides := map[string]*string{
		"POSTGRES_USER":     &c.PostgresUser,
		"POSTGRES_PASSWORD": &c.PostgresPassword,
		"POSTGRES_DB":       &c.PostgresDB,
		"POSTGRES_HOST":     &c.PostgresHost,
		"POSTGRES_PORT":     &c.PostgresPort,
	}
	for key, dst := range overrides {
		if v, ok := m[key]; ok && v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.CheckoutConcurrency <= 0 {
		return fmt.Errorf("CHECKOUT_CONCURRENCY must be positive, got %d", c.CheckoutConcurrency)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("ORDER_EVENTS_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DB:       c.PostgresDB,
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		SSLMode:  c.PostgresSSLMode,
		TimeZone: c.PostgresTimeZone,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
