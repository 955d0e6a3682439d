package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs sessions when JWT_SECRET is unset. Validate refuses it in
// production.
const DevJWTSecret = "supersecretjwtkey"

// ErrInsecureSecret is returned by Validate when production would sign
// sessions with an empty or well-known key.
var ErrInsecureSecret = errors.New("JWT_SECRET must be set to a private value in production")

type Config struct {
	Port                    string
	Env                     string
	DBDriver                string
	DatabaseURL             string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	JWTSecret               string
	SessionTTL              time.Duration
	FirebaseCredentialsPath string
	MediaRoot               string
	MaxUploadBytes          int64

	IndexPageSize   int
	GroupPageSize   int
	ProfilePageSize int
	FollowPageSize  int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies are the CIDR ranges whose X-Forwarded-For is believed.
	// Empty means the peer address is the client.
	TrustedProxies []string
}

// Load reads configuration from the environment, after loading a .env file if
// one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		DBDriver:                getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:             getEnv("POSTGRES_CONN_STR", getEnv("DATABASE_URL", "")),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "postboard"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		JWTSecret:               getEnv("JWT_SECRET", DevJWTSecret),
		SessionTTL:              getEnvDuration("SESSION_TTL", 72*time.Hour),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		MediaRoot:               getEnv("MEDIA_ROOT", "./media"),
		MaxUploadBytes:          int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		IndexPageSize:   getEnvInt("INDEX_PAGE_SIZE", 10),
		GroupPageSize:   getEnvInt("GROUP_PAGE_SIZE", 2),
		ProfilePageSize: getEnvInt("PROFILE_PAGE_SIZE", 10),
		FollowPageSize:  getEnvInt("FOLLOW_PAGE_SIZE", 10),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		TrustedProxies:    getEnvList("TRUSTED_PROXIES"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the service must not start with.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return ErrInsecureSecret
	}
	return nil
}

// BodyLimit is the largest request body accepted: one upload plus room for
// the other form fields.
func (c *Config) BodyLimit() int64 {
	return c.MaxUploadBytes + 1<<20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid value %q for %s, using default %d", value, key, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Invalid duration %q for %s, using default %s", value, key, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
