// In file: cmd/gateway/config.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/agent-gateway/internal/agent"
	"github.com/dileep-u-k/agent-gateway/internal/llm"
)

// AppConfig holds all configuration for the gateway. Structure comes from
// config.yaml; secrets and deployment-specific values from the environment.
type AppConfig struct {
	Server ServerConfig   `yaml:"server"`
	LLM    agent.Defaults `yaml:"llm"`
	Store  StoreConfig    `yaml:"store"`
	Auth   AuthConfig     `yaml:"auth"`
	Audit  AuditConfig    `yaml:"audit"`

	Keys      llm.Keys `yaml:"-"`
	RedisAddr string   `yaml:"-"`
	LogLevel  string   `yaml:"-"`
	LogJSON   bool     `yaml:"-"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	// RequestTimeout bounds one preview, both model calls included.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StoreConfig selects the default store. Type is firestore, memory, or any
// external connection type, in which case DSN is its connection string.
type StoreConfig struct {
	Type       string `yaml:"type"`
	ProjectID  string `yaml:"project_id"`
	DSN        string `yaml:"dsn"`
	Demo       bool   `yaml:"demo"`
	OwnerField string `yaml:"owner_field"`
}

type AuthConfig struct {
	JWKSURL   string `yaml:"jwks_url"`
	Issuer    string `yaml:"issuer"`
	Audience  string `yaml:"audience"`
	DemoToken string `yaml:"demo_token"`
}

type AuditConfig struct {
	Stream string `yaml:"stream"`
	MaxLen int64  `yaml:"max_len"`
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Port: "8080", RequestTimeout: 120 * time.Second},
		LLM:    agent.DefaultSettings(),
		Store:  StoreConfig{Type: "firestore"},
		Auth:   AuthConfig{DemoToken: "demo-token"},
		Audit:  AuditConfig{Stream: "agent:audit", MaxLen: 10000},
	}
}

// LoadConfig loads configuration from a .env file, config.yaml at path and
// environment variables, in increasing precedence. A missing config file
// leaves the defaults in place. Commands validate what they need.
func LoadConfig(path string) (*AppConfig, error) {
	// In release mode (Docker) the environment is provided directly.
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	cfg := defaultConfig()
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Store.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&cfg.Store.Type, "STORE_TYPE")
	setString(&cfg.Store.DSN, "STORE_DSN")
	setString(&cfg.Auth.JWKSURL, "AUTH_JWKS_URL")
	setString(&cfg.Auth.Issuer, "AUTH_ISSUER")
	setString(&cfg.Auth.Audience, "AUTH_AUDIENCE")
	setString(&cfg.Auth.DemoToken, "DEMO_TOKEN")
	setString(&cfg.LLM.Provider, "DEFAULT_PROVIDER")
	setString(&cfg.LLM.Model, "DEFAULT_MODEL")

	cfg.Keys = llm.Keys{
		OpenAI:    os.Getenv("OPENAI_API_KEY"),
		Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
		Google:    os.Getenv("GEMINI_API_KEY"),
	}
	if cfg.Keys.Google == "" {
		cfg.Keys.Google = os.Getenv("GOOGLE_API_KEY")
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.LogLevel = os.Getenv("GATEWAY_LOG_LEVEL")
	cfg.LogJSON = os.Getenv("GIN_MODE") == "release"

	if demo, err := strconv.ParseBool(os.Getenv("DEMO_MODE")); err == nil {
		cfg.Store.Demo = demo
	}
}

func (c *AppConfig) validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is not set")
	}
	if c.Store.Demo {
		return nil
	}
	switch c.Store.Type {
	case "firestore":
		if c.Store.ProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be set for the firestore store")
		}
	case "memory":
	default:
		if c.Store.DSN == "" {
			return fmt.Errorf("store type %q requires a dsn", c.Store.Type)
		}
	}
	if c.Auth.JWKSURL == "" && c.Store.ProjectID == "" {
		return errors.New("AUTH_JWKS_URL or FIREBASE_PROJECT_ID must be set to verify callers")
	}
	return nil
}
