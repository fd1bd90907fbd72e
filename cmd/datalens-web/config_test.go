package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OriginalDaemon/datalens/client"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig returned nil")
	}
	if config.APIURL != client.DefaultBaseURL {
		t.Errorf("Expected APIURL %s, got %s", client.DefaultBaseURL, config.APIURL)
	}
	if config.Port != "8080" {
		t.Errorf("Expected Port 8080, got %s", config.Port)
	}
	if config.RequestTimeout() != 30*time.Second {
		t.Errorf("Expected 30s request timeout, got %v", config.RequestTimeout())
	}
	if config.SessionIdle() != 30*time.Minute {
		t.Errorf("Expected 30m session idle, got %v", config.SessionIdle())
	}
}

func TestLoadConfigMissing(t *testing.T) {
	config := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	if config.Port != "8080" {
		t.Error("Should return default config when file doesn't exist")
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"api_url": "http://analytics:5000/api", "port": "9000", "request_timeout_seconds": 5}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := LoadConfig(path)
	if config.APIURL != "http://analytics:5000/api" {
		t.Errorf("Expected custom APIURL, got %s", config.APIURL)
	}
	if config.Port != "9000" {
		t.Errorf("Expected Port 9000, got %s", config.Port)
	}
	if config.RequestTimeoutSeconds != 5 {
		t.Errorf("Expected 5s timeout, got %d", config.RequestTimeoutSeconds)
	}
	// unset fields fall back to defaults
	if config.SessionIdleMinutes != 30 {
		t.Errorf("Expected default session idle, got %d", config.SessionIdleMinutes)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "api_url: http://yaml-host/api\nsession_idle_minutes: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config := LoadConfig(path)
	if config.APIURL != "http://yaml-host/api" {
		t.Errorf("Expected YAML APIURL, got %s", config.APIURL)
	}
	if config.SessionIdleMinutes != 5 {
		t.Errorf("Expected 5 minutes, got %d", config.SessionIdleMinutes)
	}
	if config.Port != "8080" {
		t.Errorf("Expected default port, got %s", config.Port)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if config := LoadConfig(path); config.APIURL != client.DefaultBaseURL {
		t.Errorf("Expected defaults for an invalid file, got %s", config.APIURL)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			config := DefaultConfig()
			config.Port = "7070"
			config.LogFile = "web.log"

			if err := SaveConfig(path, config); err != nil {
				t.Fatalf("SaveConfig failed: %v", err)
			}
			loaded := LoadConfig(path)
			if *loaded != *config {
				t.Errorf("Expected %+v, got %+v", config, loaded)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	data := "DATALENS_API_URL=http://from-file/api\nDATALENS_PORT=8181\n"
	if err := os.WriteFile(envFile, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("DATALENS_PORT", "9191")

	config := DefaultConfig()
	config.ApplyEnv(envFile)

	if config.APIURL != "http://from-file/api" {
		t.Errorf("Expected API URL from the env file, got %s", config.APIURL)
	}
	if config.Port != "9191" {
		t.Errorf("Expected the process environment to win, got %s", config.Port)
	}
}

func TestApplyEnvMissingFile(t *testing.T) {
	config := DefaultConfig()
	config.ApplyEnv(filepath.Join(t.TempDir(), "missing.env"))

	if config.Port != "8080" {
		t.Errorf("Expected defaults untouched, got %s", config.Port)
	}
}
