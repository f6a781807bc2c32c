package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig                 `json:"app" yaml:"app" toml:"app"`
	Gateways    map[string]GatewayConfig  `json:"gateways" yaml:"gateways" toml:"gateways"`
	Providers   map[string]ProviderConfig `json:"providers" yaml:"providers" toml:"providers"`
	Memory      MemoryConfig              `json:"memory" yaml:"memory" toml:"memory"`
	Maintenance MaintenanceConfig         `json:"maintenance" yaml:"maintenance" toml:"maintenance"`
	Policy      PolicyConfig              `json:"policy" yaml:"policy" toml:"policy"`
}

type AppConfig struct {
	Name   string `json:"name" yaml:"name" toml:"name"`
	LogDir string `json:"log_dir" yaml:"log_dir" toml:"log_dir"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token" toml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	// Listen is the HTTP gateway address.
	Listen string `json:"listen,omitempty" yaml:"listen,omitempty" toml:"listen,omitempty"`
	// NotifyChats receive due-maintenance reminders.
	NotifyChats []string `json:"notify_chats,omitempty" yaml:"notify_chats,omitempty" toml:"notify_chats,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Model   string `json:"model" yaml:"model" toml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type" toml:"type"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

type MaintenanceConfig struct {
	WorkbookPath    string `json:"excel_file_path" yaml:"excel_file_path" toml:"excel_file_path"`
	RegistryPath    string `json:"equipment_file" yaml:"equipment_file" toml:"equipment_file"`
	AlertDaysBefore int    `json:"alert_days_before" yaml:"alert_days_before" toml:"alert_days_before"`
	CheckInterval   string `json:"check_interval" yaml:"check_interval" toml:"check_interval"`
}

type PolicyConfig struct {
	AllowedUsers   []string `json:"allowed_users" yaml:"allowed_users" toml:"allowed_users"`
	AllowedChats   []string `json:"allowed_chats" yaml:"allowed_chats" toml:"allowed_chats"`
	DeniedCommands []string `json:"denied_commands" yaml:"denied_commands" toml:"denied_commands"`
	DeniedPatterns []string `json:"denied_patterns" yaml:"denied_patterns" toml:"denied_patterns"`
}

// LoadConfig reads path as YAML, TOML or JSON by suffix, then applies
// defaults and environment overrides. An empty path yields defaults plus
// environment only.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &cfg)
		case ".toml":
			err = toml.Unmarshal(data, &cfg)
		default:
			err = json.Unmarshal(data, &cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if _, err := time.ParseDuration(cfg.Maintenance.CheckInterval); err != nil {
		return nil, fmt.Errorf("invalid maintenance.check_interval %q: %w", cfg.Maintenance.CheckInterval, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "maintbot"
	}
	if c.App.LogDir == "" {
		c.App.LogDir = "logs"
	}
	if c.Gateways == nil {
		c.Gateways = make(map[string]GatewayConfig)
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.Memory.Type == "" {
		c.Memory.Type = "sqlite"
	}
	if c.Memory.Path == "" {
		c.Memory.Path = "maintbot.db"
	}
	if c.Maintenance.RegistryPath == "" {
		c.Maintenance.RegistryPath = "equipment_data.json"
	}
	if c.Maintenance.CheckInterval == "" {
		c.Maintenance.CheckInterval = "24h"
	}
	if h, ok := c.Gateways["http"]; ok && h.Listen == "" {
		h.Listen = ":5000"
		c.Gateways["http"] = h
	}
}

// applyEnv lets secrets and paths come from the environment (or .env).
func (c *Config) applyEnv() {
	if v := os.Getenv("MAINTBOT_WORKBOOK_PATH"); v != "" {
		c.Maintenance.WorkbookPath = v
	}
	if v := os.Getenv("MAINTBOT_REGISTRY_PATH"); v != "" {
		c.Maintenance.RegistryPath = v
	}
	c.envToken("telegram", "TELEGRAM_BOT_TOKEN")
	c.envToken("discord", "DISCORD_BOT_TOKEN")
	c.envToken("http", "SLACK_VERIFICATION_TOKEN")

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if p, ok := c.Providers["openai"]; ok && p.APIKey == "" {
			p.APIKey = v
			c.Providers["openai"] = p
		}
	}
}

func (c *Config) envToken(gateway, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	g, ok := c.Gateways[gateway]
	if !ok || g.Token != "" {
		return
	}
	g.Token = v
	c.Gateways[gateway] = g
}

// WorkbookPath is the configured maintenance log location.
func (c *Config) WorkbookPath() string {
	return c.Maintenance.WorkbookPath
}

func (c *Config) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Maintenance.CheckInterval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.gateway("telegram")
}

func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.gateway("discord")
}

// GetHTTPConfig returns the slash-command endpoint config if enabled
func (c *Config) GetHTTPConfig() (GatewayConfig, bool) {
	return c.gateway("http")
}

func (c *Config) gateway(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled {
		return g, true
	}
	return GatewayConfig{}, false
}
