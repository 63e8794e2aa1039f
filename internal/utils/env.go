package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/aloratech/coachcraft-backend/internal/logger"
)

func GetEnv(key, defaultValue string, log *logger.Logger) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		if log != nil {
			log.Debug("Env var not set, using default", "key", key, "default", defaultValue)
		}
		return defaultValue
	}
	return v
}

func GetEnvAsInt(key string, defaultValue int, log *logger.Logger) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Env var is not an integer, using default", "key", key, "value", v, "default", defaultValue)
		}
		return defaultValue
	}
	return i
}

func GetEnvAsBool(key string, defaultValue bool, log *logger.Logger) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return defaultValue
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
