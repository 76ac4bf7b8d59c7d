package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		CacheTTL          string `yaml:"cache_ttl"`
		EpisodeCount      int    `yaml:"episode_count"`
		StrictCorrectness bool   `yaml:"strict_correctness"`
	} `yaml:"questions"`
	Round struct {
		DisplayDelay string `yaml:"display_delay"`
	} `yaml:"round"`
	Identity struct {
		Path string `yaml:"path"`
	} `yaml:"identity"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.API.Timeout = "10s"
	cfg.Redis.TTL = "10m"
	cfg.Questions.CacheTTL = "5m"
	cfg.Questions.EpisodeCount = 25
	cfg.Round.DisplayDelay = "1500ms"
	cfg.Identity.Path = "trivia-settings.yaml"
	return cfg
}

// Load reads YAML config from path on top of Default. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports settings the client cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url not configured")
	}
	if c.Questions.EpisodeCount <= 0 {
		return errors.New("questions.episode_count must be positive")
	}
	return nil
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
