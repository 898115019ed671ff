package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort           string
	RemoteBaseURL      string
	JWTSecret          []byte
	RequestTimeout     time.Duration
	RemoteTimeout      time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	DeliveryFee         string
	PromotionSigningKey []byte
	SearchDebounce      time.Duration
	CatalogCacheTTL     time.Duration

	RedisAddr      string
	RedisPassword  string
	RedisNamespace string
	CartCacheTTL   time.Duration
	MongoURI       string
	MongoDBName    string
	MongoPoolSize  int
	MongoTimeout   time.Duration

	// Journal is disabled when DBHost is empty.
	DB           DB
	KafkaBrokers []string
	OrderTopic   string
}

type DB struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	MigrationsPath string
}

func Load() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8081"),
		RemoteBaseURL:      getEnv("REMOTE_API_BASE_URL", "http://localhost:8080/api/v1"),
		JWTSecret:          []byte(getEnv("JWT_SECRET", "dev-secret-please-change")),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		RemoteTimeout:      getDuration("REMOTE_TIMEOUT", 0),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		DeliveryFee:         getEnv("DELIVERY_FEE", "1.00"),
		PromotionSigningKey: []byte(getEnv("PROMOTION_SIGNING_KEY", "")),
		SearchDebounce:      getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		CatalogCacheTTL:     getDuration("CATALOG_CACHE_TTL", 30*time.Second),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisNamespace: getEnv("REDIS_NAMESPACE", "storefront"),
		CartCacheTTL:   getDuration("CART_CACHE_TTL", 15*time.Minute),
		MongoURI:       getEnv("MONGO_URI", ""),
		MongoDBName:    getEnv("MONGO_DB_NAME", "storefront"),
		MongoPoolSize:  getInt("MONGO_MAX_POOL_SIZE", 50),
		MongoTimeout:   getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		DB: DB{
			Host:           getEnv("DB_HOST", ""),
			Port:           getInt("DB_PORT", 5432),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "storefront"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/checkout/journal/migrations"),
		},
		KafkaBrokers: getList("KAFKA_BROKERS"),
		OrderTopic:   getEnv("ORDER_TOPIC", "order-placed"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return d
}

func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
