package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Oracle struct {
		BaseURL string `yaml:"baseUrl"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
		// APIKey comes from GROQ_API_KEY, never from the file.
		APIKey string `yaml:"-"`
	} `yaml:"oracle"`
	Maps struct {
		// APIKey comes from MAPS_API_KEY, never from the file.
		APIKey string `yaml:"-"`
	} `yaml:"maps"`
	Quiz struct {
		TimeLimit     int    `yaml:"timeLimit"`     // countdown ticks per question
		TickInterval  string `yaml:"tickInterval"`  // wall time per tick
		LocationCount int    `yaml:"locationCount"` // locations requested per quiz
		TopicTTL      string `yaml:"topicTtl"`      // topic suggestion cache TTL
	} `yaml:"quiz"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
}

// Load reads YAML config from path and overlays the credential env vars.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.Oracle.APIKey = os.Getenv("GROQ_API_KEY")
	cfg.Maps.APIKey = os.Getenv("MAPS_API_KEY")
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty
// or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
