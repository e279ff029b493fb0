package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	State     StateConfig     `yaml:"state"`
	Web       WebConfig       `yaml:"web"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type StateConfig struct {
	Dir string `yaml:"dir"`
}

type WebConfig struct {
	// CSRFKey is the hex-encoded 32-byte CSRF secret. Empty means a
	// random per-start key (dev only: sessions won't survive restarts).
	CSRFKey string `yaml:"csrf_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type MCPConfig struct {
	// Token is the backend bearer token the MCP server acts with.
	Token string `yaml:"token"`
	// Role is the token's role ("coach" or "client"); coach-only tools
	// are registered only for coach tokens.
	Role string `yaml:"role"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix COACHDESK_ and underscore-separated
// paths:
//
//	COACHDESK_SERVER_HOST, COACHDESK_SERVER_PORT,
//	COACHDESK_BACKEND_URL, COACHDESK_BACKEND_TIMEOUT,
//	COACHDESK_STATE_DIR, COACHDESK_CSRF_KEY,
//	COACHDESK_MCP_TOKEN, COACHDESK_MCP_ROLE
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COACHDESK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("COACHDESK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("COACHDESK_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("COACHDESK_BACKEND_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("COACHDESK_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
	if v := os.Getenv("COACHDESK_CSRF_KEY"); v != "" {
		cfg.Web.CSRFKey = v
	}
	if v := os.Getenv("COACHDESK_MCP_TOKEN"); v != "" {
		cfg.MCP.Token = v
	}
	if v := os.Getenv("COACHDESK_MCP_ROLE"); v != "" {
		cfg.MCP.Role = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.State.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.State.Dir = filepath.Join(home, ".coachdesk")
		}
	}
	if cfg.MCP.Role == "" {
		cfg.MCP.Role = "client"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.MCP.Role != "coach" && c.MCP.Role != "client" {
		return fmt.Errorf("mcp.role must be coach or client")
	}
	return nil
}
