package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Trivia struct {
		BaseURL     string `yaml:"base_url"`
		CategoryURL string `yaml:"category_url"`
		CountURL    string `yaml:"count_url"`
		Mode        string `yaml:"mode"` // strict, fallback, smart
		Amount      int    `yaml:"amount"`
		Difficulty  string `yaml:"difficulty"`
		Type        string `yaml:"type"`
		Category    string `yaml:"category"`
	} `yaml:"trivia"`
	Timer struct {
		TotalSeconds int `yaml:"total_seconds"`
	} `yaml:"timer"`
	RateLimit struct {
		MinInterval  string `yaml:"min_interval"`
		Window       string `yaml:"window"`
		MaxPerWindow int    `yaml:"max_per_window"`
	} `yaml:"ratelimit"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Report struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"report"`
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

// TTLDuration parses a duration string or returns the fallback if empty or
// malformed.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
