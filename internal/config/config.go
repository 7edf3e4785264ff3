package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration for the quiz session service. Empty
// redis/postgres settings select the in-process fallbacks.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Quiz     QuizConfig     `yaml:"quiz"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// RedisConfig configures the room liveness store and snapshot cache. TTL
// bounds how long a dead room's liveness key can linger.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

// QuizConfig bounds how long a quiz snapshot may be served from cache.
type QuizConfig struct {
	TTL string `yaml:"ttl"`
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
