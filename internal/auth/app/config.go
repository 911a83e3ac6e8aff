package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the process configuration, loaded from the environment.
type Config struct {
	Port         int
	DatabaseFile string
	PepperFile   string

	JWTSecret          string
	RefreshTokenSecret string
	Issuer             string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	ResetTokenTTL      time.Duration

	Env       string
	LogLevel  string
	LogFormat string

	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration

	LoginRatePerSecond float64
	LoginBurst         int

	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// LoadConfig reads configuration from the environment, applying defaults.
// JWT_SECRET is the only required variable.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                 getEnvInt("PORT", 8080),
		DatabaseFile:         getEnv("DATABASE_FILE", "officehub.db"),
		PepperFile:           getEnv("PEPPER_FILE", "officehub.pepper"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		RefreshTokenSecret:   os.Getenv("REFRESH_TOKEN_SECRET"),
		Issuer:               getEnv("ISSUER", "officehub"),
		AccessTokenTTL:       getEnvDuration("ACCESS_TOKEN_TTL", 168*time.Hour),
		RefreshTokenTTL:      getEnvDuration("REFRESH_TOKEN_TTL", 720*time.Hour),
		ResetTokenTTL:        getEnvDuration("RESET_TOKEN_TTL", time.Hour),
		Env:                  getEnv("ENV", "production"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		ShutdownGracePeriod:  getEnvDuration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDuration("HOUSEKEEPING_INTERVAL", time.Hour),
		LoginRatePerSecond:   getEnvFloat("LOGIN_RATE_PER_SECOND", 5),
		LoginBurst:           getEnvInt("LOGIN_BURST", 10),

		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("PORT %d out of range", cfg.Port)
	}
	return cfg, nil
}

// DevMode reports whether the service runs with development conveniences.
func (c Config) DevMode() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
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
