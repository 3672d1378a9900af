package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	PublicKey       string `yaml:"public_key"`
	PrivateKey      string `yaml:"private_key"`
	BaseURL         string `yaml:"base_url"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_secs"`
	OutputPath      string `yaml:"output_path"`
	DBPath          string `yaml:"db_path"`
	RefreshTime     string `yaml:"refresh_time"`
	Timezone        string `yaml:"timezone"`
	LogLevel        string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		BaseURL:         "https://gateway.marvel.com/v1/public",
		FetchTimeoutSec: 10,
		OutputPath:      "out.html",
		DBPath:          "./marvelpage.db",
		RefreshTime:     "09:00",
		Timezone:        "UTC",
		LogLevel:        "info",
	}
}

// Load reads a YAML config file and returns a validated Config.
// Environment variables MARVELPAGE_CONFIG and MARVELPAGE_DB can override
// the file path and db path. Loading fails if either API key is missing;
// there is no unauthenticated mode.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("MARVELPAGE_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if envDB := os.Getenv("MARVELPAGE_DB"); envDB != "" {
		cfg.DBPath = envDB
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.PublicKey == "" {
		return fmt.Errorf("public_key is required")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if c.FetchTimeoutSec <= 0 {
		return fmt.Errorf("fetch_timeout_secs must be positive, got %d", c.FetchTimeoutSec)
	}

	if err := ValidateTime(c.RefreshTime); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
