package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aloratech/coachcraft-backend/internal/logger"
	"github.com/aloratech/coachcraft-backend/internal/utils"
)

type Config struct {
	ServiceName    string
	Environment    string
	JWTSecretKey   string
	AccessTokenTTL time.Duration

	BlobDriver    string // "local" or "gcs"
	BlobLocalRoot string

	RedisEnabled bool

	ListenAddr     string
	AllowedOrigins []string
}

// fileConfig is the optional yaml overlay pointed at by CONFIG_FILE.
// Environment variables win over file values.
type fileConfig struct {
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	BlobDriver     string   `yaml:"blob_driver"`
	BlobLocalRoot  string   `yaml:"blob_local_root"`
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	var fc fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("Loaded config file", "path", path)
	}

	cfg := Config{
		ServiceName:    utils.GetEnv("SERVICE_NAME", defaultStr(fc.ServiceName, "coachcraft-backend"), log),
		Environment:    utils.GetEnv("ENVIRONMENT", defaultStr(fc.Environment, "development"), log),
		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL: time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		BlobDriver:     utils.GetEnv("BLOB_DRIVER", defaultStr(fc.BlobDriver, "gcs"), log),
		BlobLocalRoot:  utils.GetEnv("BLOB_LOCAL_ROOT", defaultStr(fc.BlobLocalRoot, "./blobdata"), log),
		RedisEnabled:   utils.GetEnvAsBool("REDIS_ENABLED", false, log),
		ListenAddr:     utils.GetEnv("LISTEN_ADDR", defaultStr(fc.ListenAddr, ":8080"), log),
		AllowedOrigins: fc.AllowedOrigins,
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}
	return cfg, nil
}

func defaultStr(v, fallback string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
