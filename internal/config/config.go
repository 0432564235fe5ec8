package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Redis      RedisConfig
	Throttle   ThrottleConfig
	Classifier ClassifierConfig
}

type DatabaseConfig struct {
	URL               string // DATABASE_URL; takes precedence over the discrete fields
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port                   string
	Env                    string
	LogLevel               string
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration
	IdleTimeout            time.Duration
	AllowedOrigins         []string
	TrustedHosts           []string
	TrustedProxies         []string
	SecurityHeadersEnabled bool
	HTTPSRedirectEnabled   bool
	HSTSMaxAge             time.Duration
	ReferrerPolicy         string
}

type AuthConfig struct {
	JWTSecret              string
	AccessTokenExpiry      time.Duration
	RefreshTokenExpiry     time.Duration
	CleanupInterval        time.Duration
	RateLimitEnabled       bool
	RateLimitAuthPerMinute int
	TimingDelayBaseMs      int
	TimingDelayRandomMs    int
	AdminEmail             string
	AdminPassword          string
}

type RedisConfig struct {
	URL     string // empty disables Redis; throttle state stays in process
	Timeout time.Duration
}

type ClassifierConfig struct {
	APIKey  string // GEMINI_API_KEY; empty stores new tasks with the default classification
	Model   string
	Timeout time.Duration
}

type ThrottleConfig struct {
	SoftThreshold int
	HardThreshold int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BlockDuration time.Duration
	StateTTL      time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "taskdesk"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", env != "production"),
		},
		Server: ServerConfig{
			Port:                   getEnv("PORT", "8080"),
			Env:                    env,
			LogLevel:               getEnv("LOG_LEVEL", "info"),
			ReadTimeout:            getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:           getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:            getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			AllowedOrigins:         parseAllowedOrigins(env),
			TrustedHosts:           getEnvAsList("TRUSTED_HOSTS"),
			TrustedProxies:         getEnvAsList("TRUSTED_PROXIES"),
			SecurityHeadersEnabled: getEnvAsBool("SECURITY_HEADERS_ENABLED", true),
			HTTPSRedirectEnabled:   getEnvAsBool("HTTPS_REDIRECT_ENABLED", false),
			HSTSMaxAge:             getEnvAsDuration("HSTS_MAX_AGE", 365*24*time.Hour),
			ReferrerPolicy:         getEnv("REFERRER_POLICY", "strict-origin-when-cross-origin"),
		},
		Auth: AuthConfig{
			JWTSecret:              jwtSecret,
			AccessTokenExpiry:      getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 30*time.Minute),
			RefreshTokenExpiry:     getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:        getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", 1*time.Hour),
			RateLimitEnabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RateLimitAuthPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 10),
			TimingDelayBaseMs:      getEnvAsInt("AUTH_TIMING_DELAY_BASE_MS", 0),
			TimingDelayRandomMs:    getEnvAsInt("AUTH_TIMING_DELAY_RANDOM_MS", 0),
			AdminEmail:             getEnv("ADMIN_EMAIL", ""),
			AdminPassword:          getEnv("ADMIN_PASSWORD", ""),
		},
		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", ""),
			Timeout: getEnvAsDuration("REDIS_TIMEOUT", 500*time.Millisecond),
		},
		Throttle: ThrottleConfig{
			SoftThreshold: getEnvAsInt("LOGIN_THROTTLE_SOFT_THRESHOLD", 5),
			HardThreshold: getEnvAsInt("LOGIN_THROTTLE_HARD_THRESHOLD", 10),
			BaseDelay:     getEnvAsDuration("LOGIN_THROTTLE_BASE_DELAY", 30*time.Second),
			MaxDelay:      getEnvAsDuration("LOGIN_THROTTLE_MAX_DELAY", 300*time.Second),
			BlockDuration: getEnvAsDuration("LOGIN_THROTTLE_BLOCK_DURATION", 300*time.Second),
			StateTTL:      getEnvAsDuration("LOGIN_THROTTLE_STATE_TTL", 3600*time.Second),
		},
		Classifier: ClassifierConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Throttle.Validate(); err != nil {
		return nil, err
	}

	if cfg.Classifier.Timeout <= 0 {
		return nil, fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme", "change-me",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

// Validate checks that throttle thresholds and durations are usable
func (c ThrottleConfig) Validate() error {
	if c.SoftThreshold < 1 {
		return fmt.Errorf("LOGIN_THROTTLE_SOFT_THRESHOLD must be at least 1 (got %d)", c.SoftThreshold)
	}
	if c.HardThreshold < c.SoftThreshold {
		return fmt.Errorf("LOGIN_THROTTLE_HARD_THRESHOLD (%d) must not be below LOGIN_THROTTLE_SOFT_THRESHOLD (%d)",
			c.HardThreshold, c.SoftThreshold)
	}
	if c.BaseDelay < time.Second || c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("LOGIN_THROTTLE_BASE_DELAY must be at least 1s and not exceed LOGIN_THROTTLE_MAX_DELAY")
	}
	if c.BlockDuration < time.Second || c.StateTTL < time.Second {
		return fmt.Errorf("LOGIN_THROTTLE_BLOCK_DURATION and LOGIN_THROTTLE_STATE_TTL must be at least 1s")
	}

	// State is stored in whole epoch seconds
	for name, d := range map[string]time.Duration{
		"LOGIN_THROTTLE_BASE_DELAY":     c.BaseDelay,
		"LOGIN_THROTTLE_MAX_DELAY":      c.MaxDelay,
		"LOGIN_THROTTLE_BLOCK_DURATION": c.BlockDuration,
		"LOGIN_THROTTLE_STATE_TTL":      c.StateTTL,
	} {
		if d%time.Second != 0 {
			return fmt.Errorf("%s must be a whole number of seconds (got %s)", name, d)
		}
	}
	return nil
}

// Validate checks token lifetimes and the cleanup interval
func (c AuthConfig) Validate() error {
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY and REFRESH_TOKEN_EXPIRY must be positive")
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("TOKEN_CLEANUP_INTERVAL must be positive (got %s)", c.CleanupInterval)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// IsProduction reports whether the server runs with ENV=production
func (c *ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma-separated variable, dropping empty items
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	items := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if origins := getEnvAsList("CORS_ALLOWED_ORIGINS"); len(origins) > 0 {
		return origins
	}

	if env == "production" {
		return []string{}
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
