package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "CHORELY_"

// ErrInvalid is wrapped by every validation failure Load returns.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	LogFormat      string
	JWTSecret      string
	TokenTTL       time.Duration
	Location       *time.Location
	MetricsEnabled bool
}

// Load reads CHORELY_* variables from the environment. Variables found in the
// given .env files (default ".env") fill in only what the environment leaves
// unset or empty; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		envMap, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	cfg := &Config{
		Port:      get("PORT", "8080"),
		DBPath:    get("DB_PATH", "chorely.db"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),
		JWTSecret: get("JWT_SECRET", ""),
	}

	var errs []error
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("%w: %sPORT %q is not a port number", ErrInvalid, prefix, cfg.Port))
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %sLOG_FORMAT must be text or json", ErrInvalid, prefix))
	}
	if len(cfg.JWTSecret) < 16 {
		errs = append(errs, fmt.Errorf("%w: %sJWT_SECRET must be at least 16 bytes", ErrInvalid, prefix))
	}

	ttl, err := time.ParseDuration(get("TOKEN_TTL", "720h"))
	if err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("%w: %sTOKEN_TTL must be a positive duration", ErrInvalid, prefix))
	}
	cfg.TokenTTL = ttl

	loc, err := time.LoadLocation(get("TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: %sTIMEZONE: %v", ErrInvalid, prefix, err))
	}
	cfg.Location = loc

	metrics, err := strconv.ParseBool(get("METRICS_ENABLED", "true"))
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: %sMETRICS_ENABLED must be a boolean", ErrInvalid, prefix))
	}
	cfg.MetricsEnabled = metrics

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(prefix + key)); v != "" {
		return v
	}
	return fallback
}
