package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/OriginalDaemon/datalens/client"
)

// Config holds terminal UI configuration
type Config struct {
	APIURL                string `json:"api_url" yaml:"api_url"`                                 // Base URL of the analytics API, including /api
	LogFile               string `json:"log_file,omitempty" yaml:"log_file,omitempty"`           // Path to log file (empty = no logging)
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"` // Per-request API timeout
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL:                client.DefaultBaseURL,
		RequestTimeoutSeconds: 30,
	}
}

// RequestTimeout is the API timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads configuration from file, falling back to defaults
func LoadConfig(path string) *Config {
	defaults := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults
	}

	var config Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return defaults
	}

	if config.APIURL == "" {
		config.APIURL = defaults.APIURL
	}
	if config.RequestTimeoutSeconds <= 0 {
		config.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	return &config
}

// ApplyEnv overrides the API URL from the environment or envFile
func (c *Config) ApplyEnv(envFile string) {
	vars, _ := godotenv.Read(envFile)
	if v, ok := os.LookupEnv("DATALENS_API_URL"); ok && v != "" {
		c.APIURL = v
	} else if v := vars["DATALENS_API_URL"]; v != "" {
		c.APIURL = v
	}
}

// SaveConfig writes configuration as YAML or JSON depending on the extension
func SaveConfig(path string, config *Config) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// defaultConfigPath prefers config.yaml when present
func defaultConfigPath() string {
	if _, err := os.Stat("./config.yaml"); err == nil {
		return "./config.yaml"
	}
	return "./config.json"
}
