/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package config loads chorus settings from a YAML file, API key files and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mikeb26/chorus/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	CommandName = "chorus"
	ConfigFile  = "config.yaml"
	ChatsDir    = "chats"
	KeyFileFmt  = ".%v.key"

	DefaultListen    = "127.0.0.1:8080"
	DefaultServerURL = "http://127.0.0.1:8080"
)

type AgentConfig struct {
	Vendor          string `yaml:"vendor"`
	Model           string `yaml:"model"`
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`
}

type SearchConfig struct {
	Endpoint     string `yaml:"endpoint,omitempty"`
	APIKey       string `yaml:"api_key,omitempty"`
	MonthlyLimit int64  `yaml:"monthly_limit"`
	MaxResults   int    `yaml:"max_results"`
}

type FetchConfig struct {
	MaxChars int  `yaml:"max_chars"`
	RenderJS bool `yaml:"render_js"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

type Config struct {
	Listen    string `yaml:"listen"`
	ServerURL string `yaml:"server_url"`
	LogLevel  string `yaml:"log_level"`
	// LogFormat is console, json or auto (console on a terminal).
	LogFormat    string `yaml:"log_format"`
	AuditLogPath string `yaml:"audit_log_path,omitempty"`
	MaxSteps     int    `yaml:"max_steps"`

	// APIKeys maps vendor name to key. Keys are usually supplied by
	// environment or key file instead.
	APIKeys map[string]string `yaml:"api_keys,omitempty"`

	Dispatcher AgentConfig  `yaml:"dispatcher"`
	Reasoner   AgentConfig  `yaml:"reasoner"`
	Executor   AgentConfig  `yaml:"executor"`
	Search     SearchConfig `yaml:"search"`
	Fetch      FetchConfig  `yaml:"fetch"`
	Store      StoreConfig  `yaml:"store"`

	dir string
}

// GetConfigDir returns ~/.config/chorus.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("Could not find user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", CommandName), nil
}

// Default returns the settings used when nothing is configured. dir is
// where key files and the default chat store live.
func Default(dir string) *Config {
	return &Config{
		Listen:    DefaultListen,
		ServerURL: DefaultServerURL,
		LogLevel:  "info",
		LogFormat: "auto",
		MaxSteps:  15,
		APIKeys:   map[string]string{},
		Dispatcher: AgentConfig{Vendor: DefaultVendor,
			Model: vendorInfos[DefaultVendor].DefaultModel},
		Reasoner: AgentConfig{Vendor: DefaultVendor,
			Model: vendorInfos[DefaultVendor].DefaultModel, ReasoningEffort: "high"},
		Executor: AgentConfig{Vendor: DefaultVendor,
			Model: vendorInfos[DefaultVendor].DefaultModel, ReasoningEffort: "low"},
		Search: SearchConfig{MonthlyLimit: 1000, MaxResults: 3},
		Fetch:  FetchConfig{MaxChars: 8000},
		Store: StoreConfig{Backend: "json",
			Path: filepath.Join(dir, ChatsDir)},
		dir: dir,
	}
}

// Load reads the configuration at path (the default location when empty)
// and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(dir, ConfigFile)
	} else {
		dir = filepath.Dir(path)
	}

	cfg := Default(dir)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("Failed to read config %v: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("Failed to parse config %v: %w", path, err)
		}
	}
	if cfg.APIKeys == nil {
		cfg.APIKeys = map[string]string{}
	}

	cfg.applyEnv(getenv)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	for _, v := range vendorInfos {
		if key := getenv(v.ApiKeyEnv); key != "" {
			c.APIKeys[v.Name] = key
		}
	}
	if v := getenv("BRAVE_SEARCH_API_KEY"); v != "" {
		c.Search.APIKey = v
	}
	if v := getenv("CHORUS_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("CHORUS_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := getenv("CHORUS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("CHORUS_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("CHORUS_SEARCH_MONTHLY_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Search.MonthlyLimit = n
		}
	}
}

func (c *Config) validate() error {
	for name, a := range map[string]AgentConfig{"dispatcher": c.Dispatcher,
		"reasoner": c.Reasoner, "executor": c.Executor} {

		if _, ok := vendorInfos[a.Vendor]; !ok {
			return fmt.Errorf("%v: vendor %q is not supported (want one of %v)",
				name, a.Vendor, strings.Join(GetVendors(), ", "))
		}
		if a.Model == "" {
			return fmt.Errorf("%v: model must not be empty", name)
		}
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	switch c.Store.Backend {
	case "memory", "json", "sqlite":
	default:
		return fmt.Errorf("store backend %q is not supported", c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.Path == "" {
		return fmt.Errorf("store path must not be empty for %v", c.Store.Backend)
	}
	return nil
}

// Dir is the directory holding the configuration and key files.
func (c *Config) Dir() string {
	return c.dir
}

// APIKey returns the key for vendor from the configuration, the
// environment or the vendor's key file, in that order.
func (c *Config) APIKey(vendor string) (string, error) {
	if key := c.APIKeys[vendor]; key != "" {
		return key, nil
	}

	keyPath := filepath.Join(c.dir, fmt.Sprintf(KeyFileFmt, vendor))
	data, err := os.ReadFile(keyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("Could not load %v API key: "+
				"set %v or run `%v config init`", vendor,
				vendorInfos[vendor].ApiKeyEnv, CommandName)
		}
		return "", fmt.Errorf("Could not load %v API key: %w", vendor, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// AgentContext resolves an agent's settings into what the model factory
// needs.
func (c *Config) AgentContext(a AgentConfig) (types.AgentContext, error) {
	key, err := c.APIKey(a.Vendor)
	if err != nil {
		return types.AgentContext{}, err
	}
	return types.AgentContext{
		LlmVendor:          a.Vendor,
		LlmModel:           a.Model,
		LlmApiKey:          key,
		LlmReasoningEffort: a.ReasoningEffort,
	}, nil
}

// Save writes the configuration as YAML to path, without API keys.
func (c *Config) Save(path string) error {
	out := *c
	out.APIKeys = nil
	out.Search.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("Failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("Could not create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("Failed to save config: %w", err)
	}
	return nil
}

// SaveKey stores an API key in the vendor's key file.
func (c *Config) SaveKey(vendor, key string) error {
	if _, ok := vendorInfos[vendor]; !ok {
		return fmt.Errorf("Vendor %v is not currently supported", vendor)
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("Could not create config directory: %w", err)
	}
	keyPath := filepath.Join(c.dir, fmt.Sprintf(KeyFileFmt, vendor))
	if err := os.WriteFile(keyPath, []byte(strings.TrimSpace(key)), 0o600); err != nil {
		return fmt.Errorf("Could not write %v API key file %v: %w", vendor,
			keyPath, err)
	}
	c.APIKeys[vendor] = strings.TrimSpace(key)
	return nil
}
