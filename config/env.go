package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env into the process environment. A missing file is not an error,
// env vars can be set by other means.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// GetEnv returns the env var or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Env returns a snapshot of the process environment. Handed to extensions as the env capability.
func Env() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[k] = v
	}
	return out
}
