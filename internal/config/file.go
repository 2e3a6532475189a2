package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for the optional YAML file. Unset fields keep
// the built-in defaults; environment variables override both.
type fileConfig struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Session struct {
		Secret     string `yaml:"secret"`
		TTLHours   int    `yaml:"ttl_hours"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"session"`
	CSRF struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"csrf"`
	RateLimit struct {
		Login *int `yaml:"login_per_15_minutes"`
	} `yaml:"rate_limit"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
	Tracing struct {
		Enabled     *bool    `yaml:"enabled"`
		Exporter    string   `yaml:"exporter"`
		ServiceName string   `yaml:"service_name"`
		Endpoint    string   `yaml:"endpoint"`
		SampleRate  *float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`
}

func readFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return file, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

func orString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}

func orIntPtr(value *int, fallback int) int {
	if value != nil {
		return *value
	}
	return fallback
}

func orBool(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}

func orFloat(value *float64, fallback float64) float64 {
	if value != nil {
		return *value
	}
	return fallback
}
