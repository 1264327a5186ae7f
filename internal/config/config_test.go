package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"RESEND_API_KEY", "RESEND_FROM", "RESEND_TIMEOUT", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Resend.APIKey != "" {
		t.Errorf("Resend.APIKey: got %q, want empty", cfg.Resend.APIKey)
	}
	if cfg.Resend.From != "" {
		t.Errorf("Resend.From: got %q, want empty", cfg.Resend.From)
	}
	if cfg.Resend.Timeout != 30*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 30*time.Second)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.ResendConfigured() {
		t.Error("ResendConfigured(): got true, want false")
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("RESEND_FROM", "Acme <onboarding@resend.dev>")
	t.Setenv("RESEND_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Resend.APIKey != "re_123" {
		t.Errorf("Resend.APIKey: got %q, want %q", cfg.Resend.APIKey, "re_123")
	}
	if cfg.Resend.From != "Acme <onboarding@resend.dev>" {
		t.Errorf("Resend.From: got %q, want %q", cfg.Resend.From, "Acme <onboarding@resend.dev>")
	}
	if cfg.Resend.Timeout != 5*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 5*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.ResendConfigured() {
		t.Error("ResendConfigured(): got false, want true")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)

	for _, v := range []string{"not-a-duration", "-3s", "0s"} {
		t.Setenv("RESEND_TIMEOUT", v)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Invalid value should be ignored, keeping the default
		if cfg.Resend.Timeout != 30*time.Second {
			t.Errorf("RESEND_TIMEOUT=%q: got %v, want %v (should keep default)", v, cfg.Resend.Timeout, 30*time.Second)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	yamlContent := `
resend:
  api_key: "re_yaml"
  from: "yaml@example.com"
  timeout: 10s
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	// Clear env vars to ensure YAML values come through
	clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Resend.APIKey != "re_yaml" {
		t.Errorf("Resend.APIKey: got %q, want %q", cfg.Resend.APIKey, "re_yaml")
	}
	if cfg.Resend.From != "yaml@example.com" {
		t.Errorf("Resend.From: got %q, want %q", cfg.Resend.From, "yaml@example.com")
	}
	if cfg.Resend.Timeout != 10*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 10*time.Second)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFile_KeepsDefaultsForMissingKeys(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("resend:\n  api_key: \"re_yaml\"\n"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	clearEnv(t)

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Resend.Timeout != 30*time.Second {
		t.Errorf("Resend.Timeout: got %v, want %v", cfg.Resend.Timeout, 30*time.Second)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoadFromFile_EnvOverridesYAML(t *testing.T) {
	yamlContent := `
resend:
  api_key: "re_yaml"
  from: "yaml@example.com"
logging:
  level: "warn"
`

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	t.Setenv("RESEND_API_KEY", "re_env")
	t.Setenv("RESEND_FROM", "")
	t.Setenv("RESEND_TIMEOUT", "")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env var should override YAML
	if cfg.Resend.APIKey != "re_env" {
		t.Errorf("Resend.APIKey: got %q, want %q (env should override YAML)", cfg.Resend.APIKey, "re_env")
	}
	// Empty env var should NOT override YAML value
	if cfg.Resend.From != "yaml@example.com" {
		t.Errorf("Resend.From: got %q, want %q (empty env should not override YAML)", cfg.Resend.From, "yaml@example.com")
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level: got %q, want %q (env should override YAML)", cfg.Logging.Level, "error")
	}
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestResendConfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resend ResendConfig
		expect bool
	}{
		{name: "api key set", resend: ResendConfig{APIKey: "re_123"}, expect: true},
		{name: "from only", resend: ResendConfig{From: "a@example.com"}, expect: false},
		{name: "none set", resend: ResendConfig{}, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Resend: tt.resend}
			if got := cfg.ResendConfigured(); got != tt.expect {
				t.Errorf("ResendConfigured(): got %v, want %v", got, tt.expect)
			}
		})
	}
}
