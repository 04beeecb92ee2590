// Package config loads host settings: game tuning through viper and plain
// environment lookups for listen addresses.
package config

import (
	"os"
	"strings"
)

// GetEnv returns the environment variable named by key, or fallback when it
// is unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvList splits a comma-separated environment variable, dropping blank
// entries. An unset or empty variable yields nil.
func GetEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
