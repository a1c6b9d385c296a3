package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds all service configuration loaded from environment variables.
// It is built once at start-up and handed to the components that need it.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	StoreBackend      string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	PostgresDSN       string
	RedisAddr         string
	RedisPassword     string

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MediaPublicBaseURL string

	JWTSecret      string
	TokenTTL       time.Duration
	CookieName     string
	BcryptCost     int
	RevokeOnLogout bool

	AuthRateRequests int
	AuthRateWindow   time.Duration
	AuthRateBurst    int
	TrustProxy       bool

	AllowedOrigins []string
}

func Load() *Config {
	return &Config{
		Port:        getenv("PORT", "5000"),
		Environment: getenv("APP_ENV", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		StoreBackend:      getenv("STORE_BACKEND", BackendMongo),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:           getenv("MONGO_DB", "socialnet"),
		MongoTransactions: getBool("MONGO_TRANSACTIONS", false),
		PostgresDSN:       getenv("POSTGRES_DSN", ""),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),

		MinioEndpoint:      getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getenv("MINIO_BUCKET", "socialnet-media"),
		MinioUseSSL:        getBool("MINIO_USE_SSL", false),
		MediaPublicBaseURL: getenv("MEDIA_PUBLIC_BASE_URL", "http://localhost:9000"),

		JWTSecret:      getenv("JWT_SECRET", ""),
		TokenTTL:       getDuration("TOKEN_TTL", 15*24*time.Hour),
		CookieName:     getenv("COOKIE_NAME", "jwt"),
		BcryptCost:     getInt("BCRYPT_COST", 10),
		RevokeOnLogout: getBool("REVOKE_ON_LOGOUT", false),

		AuthRateRequests: getInt("AUTH_RATE_REQUESTS", 10),
		AuthRateWindow:   getDuration("AUTH_RATE_WINDOW", time.Minute),
		AuthRateBurst:    getInt("AUTH_RATE_BURST", 5),
		TrustProxy:       getBool("TRUST_PROXY", false),

		AllowedOrigins: getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}
}

// Validate reports configuration that would leave the service unable to
// authenticate or persist anything.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	switch c.StoreBackend {
	case BackendMongo:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the mongo backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return c.Environment != "development"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
