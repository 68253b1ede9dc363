package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// JWTSecretEnv overrides auth.jwtSecret so the secret can stay out of the file.
const JWTSecretEnv = "QUIZFLOW_JWT_SECRET"

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`

		// TTL of the session liveness markers.
		TTL string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// TTL of cached question sets.
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Exam struct {
		AutoClose     string `yaml:"autoClose"`
		MinNameLength int    `yaml:"minNameLength"`
	} `yaml:"exam"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if secret := os.Getenv(JWTSecretEnv); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
