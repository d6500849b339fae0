package api

import (
	"os"
)

// Config holds the HTTP server settings, populated from the
// environment with sensible defaults for local use.
type Config struct {
	Addr string
}

// FromEnv loads the server configuration from environment variables.
func FromEnv() *Config {
	return &Config{
		Addr: getEnv("DEPCHASE_ADDR", ":8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
