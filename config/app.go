package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Config holds the application configuration. Built once at startup and passed down explicitly.
type Config struct {
	AppName string `mapstructure:"APP_NAME"`
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"APP_ENV"`
	Debug   bool   `mapstructure:"DEBUG"`

	// Extensions
	ExtensionsPath    string `mapstructure:"EXTENSIONS_PATH"`
	ServeApp          bool   `mapstructure:"SERVE_APP"`
	PublicURL         string `mapstructure:"PUBLIC_URL"`
	AppAssetsPath     string `mapstructure:"APP_ASSETS_PATH"`
	EndpointsBasePath string `mapstructure:"ENDPOINTS_BASE_PATH"`
	RegistryURL       string `mapstructure:"EXTENSIONS_REGISTRY_URL"`
	Schedule          bool   `mapstructure:"SCHEDULE"`
	AdminKey          string `mapstructure:"ADMIN_KEY"`

	// Storage
	DBClient   string `mapstructure:"DB_CLIENT"`
	DBFilename string `mapstructure:"DB_FILENAME"`
	RedisAddr  string `mapstructure:"REDIS_ADDR"`
	RedisPass  string `mapstructure:"REDIS_PASS"`
}

var defaults = map[string]string{
	"APP_NAME":                "extensions",
	"PORT":                    "8080",
	"APP_ENV":                 "development",
	"DEBUG":                   "false",
	"EXTENSIONS_PATH":         "./extensions",
	"SERVE_APP":               "false",
	"PUBLIC_URL":              "http://localhost:8080",
	"APP_ASSETS_PATH":         "./app/dist/assets",
	"ENDPOINTS_BASE_PATH":     "/custom",
	"EXTENSIONS_REGISTRY_URL": "https://registry.extensions.dev/packages",
	"SCHEDULE":                "true",
	"DB_CLIENT":               "sqlite",
	"DB_FILENAME":             "./data.db",
}

// Load decodes the environment (with defaults) into a Config.
func Load() (*Config, error) {
	return FromMap(Env())
}

// FromMap decodes a key/value set into a Config. Unset keys take their defaults.
func FromMap(env map[string]string) (*Config, error) {
	values := make(map[string]string, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	for k := range defaults {
		if v, ok := env[k]; ok && v != "" {
			values[k] = v
		}
	}
	for _, k := range []string{"ADMIN_KEY", "REDIS_ADDR", "REDIS_PASS"} {
		values[k] = env[k]
	}

	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(values); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
