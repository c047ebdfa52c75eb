package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const minProductionSecretLength = 32

var (
	ErrDatabaseDSNRequired   = errors.New("DATABASE_DSN is required")
	ErrJWTSecretRequired     = errors.New("JWT_SECRET is required")
	ErrJWTSecretTooShort     = errors.New("JWT_SECRET must be at least 32 bytes in production")
	ErrAdminEmailRequired    = errors.New("ADMIN_EMAIL is required")
	ErrAdminPasswordRequired = errors.New("ADMIN_PASSWORD is required")
)

// AdminConfig is the identity provisioned by the bootstrap step.
type AdminConfig struct {
	Email    string
	Nickname string
	Password string
	Energy   int64
}

type Config struct {
	Port           string
	Env            string
	DatabaseDSN    string
	DBTimeout      time.Duration
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	Admin          AdminConfig
}

// IsProduction reports whether the service runs with ENV=production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment. Missing required
// values are reported together; there are no fallback secrets.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Nickname: getEnv("ADMIN_NICKNAME", "Admin"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", 30*24*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 15*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.DBTimeout, err = getDuration("DB_TIMEOUT", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Admin.Energy, err = getInt64("ADMIN_ENERGY", 999999); err != nil {
		errs = append(errs, err)
	}

	if cfg.DatabaseDSN == "" {
		errs = append(errs, ErrDatabaseDSNRequired)
	}
	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, ErrJWTSecretRequired)
	case cfg.IsProduction() && len(cfg.JWTSecret) < minProductionSecretLength:
		errs = append(errs, ErrJWTSecretTooShort)
	}
	if cfg.Admin.Email == "" {
		errs = append(errs, ErrAdminEmailRequired)
	}
	if cfg.Admin.Password == "" {
		errs = append(errs, ErrAdminPasswordRequired)
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid non-negative integer %q", key, v)
	}
	return n, nil
}
