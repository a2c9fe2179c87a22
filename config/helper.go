package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// envValue parses the variable key with parse, falling back when it is unset
// or malformed. Malformed values are reported so a typo does not go unnoticed.
func envValue[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Invalid value %q for %s, using default %v", raw, key, fallback)
		return fallback
	}
	return v
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	return envValue(key, fallback, time.ParseDuration)
}

func getIntEnv(key string, fallback int) int {
	return envValue(key, fallback, strconv.Atoi)
}

func getInt32Env(key string, fallback int32) int32 {
	return envValue(key, fallback, func(s string) (int32, error) {
		i, err := strconv.ParseInt(s, 10, 32)
		return int32(i), err
	})
}

func getInt64Env(key string, fallback int64) int64 {
	return envValue(key, fallback, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func getFloatEnv(key string, fallback float64) float64 {
	return envValue(key, fallback, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}
