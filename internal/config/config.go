// Package config loads codedesk configuration from
// <workspace>/.codedesk/config.json with environment-variable overrides.
// Missing files fall back to compiled-in defaults so the binary runs with
// nothing but an API key in the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all codedesk configuration.
type Config struct {
	// Core settings
	Name    string `json:"name"`
	Version string `json:"version"`

	// HTTP transport
	Server ServerConfig `json:"server"`

	// Project workspace (file store root, watcher root)
	Workspace WorkspaceConfig `json:"workspace"`

	// Model providers and role defaults
	Models ModelsConfig `json:"models"`

	// Agent behavior (timeouts, classification, personas)
	Agents AgentsConfig `json:"agents"`

	// Conversation store
	Conversation ConversationConfig `json:"conversation"`

	// Logging
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	ShutdownTimeout string `json:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShutdownTimeoutDuration parses the shutdown timeout, defaulting to 10s.
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(s.ShutdownTimeout, 10*time.Second)
}

// WorkspaceConfig configures the project file store.
type WorkspaceConfig struct {
	// Root is the project directory all file operations are confined to.
	Root string `json:"root"`

	// Watch enables the fsnotify watcher that keeps project context fresh.
	Watch bool `json:"watch"`
}

// ProviderConfig holds one provider's connection settings.
type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	Timeout string `json:"timeout"`
}

// TimeoutDuration parses the provider timeout, defaulting to 2m.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return parseDuration(p.Timeout, 2*time.Minute)
}

// ModelsConfig configures the model access layer.
type ModelsConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Gemini    ProviderConfig `json:"gemini"`
	Anthropic ProviderConfig `json:"anthropic"`
	// Local is an OpenAI-compatible local inference server (llama-server).
	Local ProviderConfig `json:"local"`

	// RoleDefaults maps agent roles to provider preference order.
	// First available provider in the list wins; empty falls back to
	// compiled-in defaults.
	RoleDefaults map[string][]string `json:"role_defaults"`
}

// ConversationConfig configures the conversation store.
type ConversationConfig struct {
	// HistoryWindow is how many trailing turns agents may read.
	HistoryWindow int `json:"history_window"`

	// ArchivePath is the sqlite transcript archive; empty disables archival.
	ArchivePath string `json:"archive_path"`
}

// LoggingConfig configures the categorized file logging.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
	JSONFormat bool            `json:"json_format"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Name:    "codedesk",
		Version: "0.3.0",
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8790,
			ShutdownTimeout: "10s",
		},
		Workspace: WorkspaceConfig{
			Root:  ".",
			Watch: true,
		},
		Models: ModelsConfig{
			OpenAI: ProviderConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
				Timeout: "2m",
			},
			Gemini: ProviderConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "2m",
			},
			Anthropic: ProviderConfig{
				BaseURL: "https://api.anthropic.com/v1",
				Model:   "claude-sonnet-4-20250514",
				Timeout: "2m",
			},
			Local: ProviderConfig{
				BaseURL: "http://127.0.0.1:8080/v1",
				Model:   "local-model",
				Timeout: "5m",
			},
			RoleDefaults: map[string][]string{
				"chat":      {"local", "openai", "gemini", "anthropic"},
				"code":      {"openai", "anthropic", "local", "gemini"},
				"reasoning": {"anthropic", "gemini", "openai", "local"},
			},
		},
		Agents: DefaultAgentsConfig(),
		Conversation: ConversationConfig{
			HistoryWindow: 10,
			ArchivePath:   "",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// ConfigPath returns the config file path under workspace.
func ConfigPath(workspace string) string {
	return filepath.Join(workspace, ".codedesk", "config.json")
}

// Load reads config.json from the workspace, overlaying it on defaults, then
// applies environment overrides. A missing file is not an error.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := ConfigPath(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Workspace.Root == "" || cfg.Workspace.Root == "." {
		cfg.Workspace.Root = workspace
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variables on top of file config.
// API keys are expected in the environment in most setups.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Models.OpenAI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Models.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Models.Anthropic.APIKey = v
	}
	if v := os.Getenv("CODEDESK_LOCAL_URL"); v != "" {
		c.Models.Local.BaseURL = v
	}
	if v := os.Getenv("CODEDESK_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CODEDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CODEDESK_WORKSPACE"); v != "" {
		c.Workspace.Root = v
	}
	if v := os.Getenv("CODEDESK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Conversation.HistoryWindow <= 0 {
		c.Conversation.HistoryWindow = 10
	}
	if err := c.Agents.Validate(); err != nil {
		return err
	}
	return nil
}

// Save writes the config back to the workspace (used by `codedesk init`).
func (c *Config) Save(workspace string) error {
	path := ConfigPath(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
