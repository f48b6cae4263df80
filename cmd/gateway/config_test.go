package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.Equal(t, "agent:audit", cfg.Audit.Stream)
	assert.True(t, cfg.LogJSON)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_PROVIDER", "anthropic")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("DEMO_MODE", "true")

	path := writeConfig(t, `
server:
  port: "7000"
  request_timeout: 30s
llm:
  default_model: claude-sonnet-4-5
  max_tokens: 800
store:
  type: postgresql
  dsn: postgres://localhost/agents
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-5", cfg.LLM.Model)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "postgresql", cfg.Store.Type)
	assert.Equal(t, "g-key", cfg.Keys.Google)
	assert.True(t, cfg.Store.Demo)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	_, err := LoadConfig(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestAppConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"demo needs nothing else", func(c *AppConfig) { c.Store.Demo = true }, false},
		{"firestore without project", func(c *AppConfig) {}, true},
		{"firestore with project", func(c *AppConfig) { c.Store.ProjectID = "p" }, false},
		{"sql without dsn", func(c *AppConfig) {
			c.Store.Type = "postgresql"
			c.Auth.JWKSURL = "https://issuer/jwks"
		}, true},
		{"memory with jwks", func(c *AppConfig) {
			c.Store.Type = "memory"
			c.Auth.JWKSURL = "https://issuer/jwks"
		}, false},
		{"memory without a verifier", func(c *AppConfig) { c.Store.Type = "memory" }, true},
		{"empty port", func(c *AppConfig) {
			c.Store.Demo = true
			c.Server.Port = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
