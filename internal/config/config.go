package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var Config *ServerConfig

// Storage backends.
const (
	StorageMemory    = "memory"
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
)

// Session verification modes.
const (
	AuthFirebase = "firebase"
	AuthJWT      = "jwt"
)

// ServerConfig is a struct that contains configuration values for the server.
type ServerConfig struct {
	// AllowedOrigins is a list of URLs that the server will accept requests from.
	AllowedOrigins []string
	// AllowedEmailDomains is a list of email domains that the server will allow account registrations from. If empty,
	// all domains will be allowed.
	AllowedEmailDomains []string
	// SessionCookieName is the name to use for the session cookie.
	SessionCookieName string
	// SessionCookieExpiration is the amount of time a session cookie is valid. Max 14 days.
	SessionCookieExpiration time.Duration
	// Port is the port the server should run on.
	Port int
	// IsHTTPS marks session cookies Secure and SameSite=None.
	IsHTTPS bool

	// StorageBackend selects the repository implementation: memory, postgres or firestore.
	StorageBackend string
	// DatabaseURL is the Postgres connection string, used when StorageBackend is postgres.
	DatabaseURL string
	// FirebaseCredentialsFile is the service account file used for Firestore and Firebase Auth.
	FirebaseCredentialsFile string

	// AuthMode selects how session cookies are verified: firebase or jwt.
	AuthMode string
	// JWTSecret signs session tokens when AuthMode is jwt.
	JWTSecret string

	// RedisAddr enables cross-instance queue update fan-out. Empty means in-process only.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CleanSchedule is the cron expression for the nightly queue cleanup. "off" disables it.
	CleanSchedule string
}

func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		AllowedOrigins:          []string{"http://localhost:3000"},
		SessionCookieName:       "helpme-session",
		SessionCookieExpiration: time.Hour * 24 * 14,
		Port:                    8080,
		StorageBackend:          StorageMemory,
		FirebaseCredentialsFile: "firebase-config.json",
		AuthMode:                AuthJWT,
		CleanSchedule:           "0 0 * * *",
	}
}

// Load builds a ServerConfig from the defaults, an optional .env file and the environment.
func Load() (*ServerConfig, error) {
	_ = godotenv.Load()

	def := DefaultConfig()
	cfg := &ServerConfig{
		AllowedOrigins:          getEnvAsSlice("ALLOWED_ORIGINS", def.AllowedOrigins),
		AllowedEmailDomains:     getEnvAsSlice("ALLOWED_EMAIL_DOMAINS", def.AllowedEmailDomains),
		SessionCookieName:       getEnv("SESSION_COOKIE_NAME", def.SessionCookieName),
		SessionCookieExpiration: getEnvAsDuration("SESSION_COOKIE_EXPIRATION", def.SessionCookieExpiration),
		Port:                    getEnvAsInt("PORT", def.Port),
		IsHTTPS:                 getEnvAsBool("IS_HTTPS", def.IsHTTPS),
		StorageBackend:          getEnv("STORAGE_BACKEND", def.StorageBackend),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS", def.FirebaseCredentialsFile),
		AuthMode:                getEnv("AUTH_MODE", def.AuthMode),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvAsInt("REDIS_DB", 0),
		CleanSchedule:           getEnv("CLEAN_SCHEDULE", def.CleanSchedule),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *ServerConfig) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageFirestore:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage backend", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	switch c.AuthMode {
	case AuthFirebase:
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for the %s auth mode", AuthJWT)
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}

	if c.SessionCookieExpiration <= 0 || c.SessionCookieExpiration > time.Hour*24*14 {
		return fmt.Errorf("session cookie expiration must be between 0 and 14 days, got %v", c.SessionCookieExpiration)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid integer for %s (%q), using %d", key, v, fallback)
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ Invalid boolean for %s (%q), using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ Invalid duration for %s (%q), using %v", key, v, fallback)
		return fallback
	}
	return d
}

func getEnvAsSlice(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	log.Println("🙂️ No configuration provided. Using the default configuration.")
	Config = DefaultConfig()
}
