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

// Config holds web UI configuration
type Config struct {
	APIURL                string `json:"api_url" yaml:"api_url"`                                 // Base URL of the analytics API, including /api
	Port                  string `json:"port" yaml:"port"`                                       // Port for the web UI
	LogFile               string `json:"log_file,omitempty" yaml:"log_file,omitempty"`           // Path to log file (empty = stderr only)
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds"` // Per-request API timeout
	SessionIdleMinutes    int    `json:"session_idle_minutes" yaml:"session_idle_minutes"`       // Browser sessions idle this long are dropped
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL:                client.DefaultBaseURL,
		Port:                  "8080",
		LogFile:               "",
		RequestTimeoutSeconds: 30,
		SessionIdleMinutes:    30,
	}
}

// RequestTimeout is the API timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SessionIdle is the session expiry as a duration
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads configuration from file or creates default. Files ending
// in .yaml or .yml are read as YAML, anything else as JSON.
// Note: This function does not log anything to avoid issues if called before logging is initialized
func LoadConfig(path string) *Config {
	defaults := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// Config file not found, use defaults
		return defaults
	}

	var config Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		// Failed to decode, use defaults
		return defaults
	}

	// Merge with defaults - if a field is empty, use the default value
	if config.APIURL == "" {
		config.APIURL = defaults.APIURL
	}
	if config.Port == "" {
		config.Port = defaults.Port
	}
	if config.RequestTimeoutSeconds <= 0 {
		config.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
	if config.SessionIdleMinutes <= 0 {
		config.SessionIdleMinutes = defaults.SessionIdleMinutes
	}

	return &config
}

// ApplyEnv overrides the API URL and port from the environment. Variables
// may also come from envFile; the process environment wins over the file.
func (c *Config) ApplyEnv(envFile string) {
	// a missing .env file is fine
	vars, _ := godotenv.Read(envFile)

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return vars[key]
	}

	if v := lookup("DATALENS_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := lookup("DATALENS_PORT"); v != "" {
		c.Port = v
	}
}

// SaveConfig saves configuration to file
func SaveConfig(path string, config *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if isYAML(path) {
		encoder := yaml.NewEncoder(file)
		defer encoder.Close()
		return encoder.Encode(config)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config)
}

// configPath prefers config.yaml when present
func configPath() string {
	if _, err := os.Stat("./config.yaml"); err == nil {
		return "./config.yaml"
	}
	return "./config.json"
}
