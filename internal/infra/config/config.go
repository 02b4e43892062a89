package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	PricingDefault = "default"
	PricingFile    = "file"
	PricingS3      = "s3"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env      string
	HTTPAddr string
	LogLevel string
	// TimeZone is where the unit is. "Today" and channel manager timestamps are read in it.
	TimeZone *time.Location

	StorageMode  string
	MongoURI     string
	MongoDB      string
	MongoTimeout time.Duration

	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaConsumerGroup string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration

	ChannelManagerURL     string
	ChannelManagerToken   string
	ChannelManagerTimeout time.Duration
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AvailabilityCacheTTL  time.Duration

	PricingSource          string
	PricingFile            string
	PricingObjectKey       string
	PricingRefreshInterval time.Duration
	S3Endpoint             string
	S3AccessKey            string
	S3SecretKey            string
	S3Bucket               string
	S3UseSSL               bool

	OperatorUser         string
	OperatorPasswordHash string
	OperatorEmail        string

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// LoadDotEnv reads a .env file when present. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                  getEnv("APP_ENV", "dev"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StorageMode:          strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDB:              getEnv("MONGO_DB", "staybook"),
		KafkaTopicPrefix:     getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "staybook-notifications"),
		ChannelManagerURL:    strings.TrimRight(os.Getenv("CHANNEL_MANAGER_URL"), "/"),
		ChannelManagerToken:  os.Getenv("CHANNEL_MANAGER_TOKEN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		PricingSource:        strings.ToLower(getEnv("PRICING_SOURCE", PricingDefault)),
		PricingFile:          getEnv("PRICING_FILE", "config/pricing.yaml"),
		PricingObjectKey:     getEnv("PRICING_OBJECT_KEY", "pricing.yaml"),
		S3Endpoint:           getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:          getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:             getEnv("S3_BUCKET", "staybook-config"),
		OperatorUser:         getEnv("OPERATOR_USER", "operator"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		OperatorEmail:        os.Getenv("OPERATOR_EMAIL"),
		KafkaBrokers:         splitList(os.Getenv("KAFKA_BROKERS")),
		CORSOrigins:          splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	zone := getEnv("UNIT_TIMEZONE", "UTC")
	if cfg.TimeZone, err = time.LoadLocation(zone); err != nil {
		return Config{}, fmt.Errorf("invalid UNIT_TIMEZONE %q: %w", zone, err)
	}
	durations := []struct {
		key    string
		def    time.Duration
		target *time.Duration
	}{
		{"MONGO_TIMEOUT", 10 * time.Second, &cfg.MongoTimeout},
		{"IDEMP_TTL", 24 * time.Hour, &cfg.IdempotencyTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
		{"CHANNEL_MANAGER_TIMEOUT", 5 * time.Second, &cfg.ChannelManagerTimeout},
		{"AVAILABILITY_CACHE_TTL", 2 * time.Minute, &cfg.AvailabilityCacheTTL},
		{"PRICING_REFRESH_INTERVAL", time.Minute, &cfg.PricingRefreshInterval},
	}
	for _, d := range durations {
		if *d.target, err = parseDurationEnv(d.key, d.def); err != nil {
			return Config{}, err
		}
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	if cfg.S3UseSSL, err = parseBoolEnv("S3_USE_SSL", false); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = parseIntEnv("RATE_LIMIT_BURST", 5); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = parseFloatEnv("RATE_LIMIT_RPS", 0.5); err != nil {
		return Config{}, err
	}

	switch cfg.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
		if len(cfg.KafkaBrokers) == 0 {
			return Config{}, fmt.Errorf("KAFKA_BROKERS is required when STORAGE_MODE=mongo")
		}
	default:
		return Config{}, fmt.Errorf("invalid STORAGE_MODE %q", cfg.StorageMode)
	}
	switch cfg.PricingSource {
	case PricingDefault, PricingFile, PricingS3:
	default:
		return Config{}, fmt.Errorf("invalid PRICING_SOURCE %q", cfg.PricingSource)
	}
	return cfg, nil
}

// Now returns the current time in the unit's zone.
func (c Config) Now() time.Time {
	if c.TimeZone == nil {
		return time.Now()
	}
	return time.Now().In(c.TimeZone)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
