// Package config loads the sigsolver service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ytget/sigsolver/internal/cache"
	"github.com/ytget/sigsolver/internal/logger"
	"github.com/ytget/sigsolver/internal/sandbox"
	"github.com/ytget/sigsolver/pkg/client"
	"github.com/ytget/sigsolver/youtube/cipher"
)

// Config is the top-level service configuration.
type Config struct {
	Server  ServerConfig      `yaml:"server"`
	Fetch   FetchConfig       `yaml:"fetch"`
	Cache   CacheConfig       `yaml:"cache"`
	Sandbox SandboxConfig     `yaml:"sandbox"`
	Logging *logger.LogConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// AuthToken is compared verbatim to the Authorization header. Empty
	// disables the check.
	AuthToken       string        `yaml:"auth_token"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// FetchConfig controls player script downloads.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	UserAgent string        `yaml:"user_agent"`
	Proxy     string        `yaml:"proxy"`
	BaseURL   string        `yaml:"base_url"`
}

// TierConfig sizes one cache tier. RefreshOnRead is left to the tier's
// default when unset.
type TierConfig struct {
	Capacity      uint64        `yaml:"capacity"`
	TTL           time.Duration `yaml:"ttl"`
	RefreshOnRead *bool         `yaml:"refresh_on_read"`
}

// CacheConfig sizes every tier.
type CacheConfig struct {
	Scripts  TierConfig `yaml:"scripts"`
	Modules  TierConfig `yaml:"modules"`
	Solvers  TierConfig `yaml:"solvers"`
	InFlight TierConfig `yaml:"inflight"`
	Sts      TierConfig `yaml:"sts"`
}

// SandboxConfig selects the JavaScript engine. otto implements ES5 only:
// players using ES2015+ syntax (arrow functions, let/const, template
// literals, classes) fail to parse under it and need goja.
type SandboxConfig struct {
	Engine       string `yaml:"engine"` // goja | otto (ES5 only)
	MaxCallStack int    `yaml:"max_call_stack"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file and fills in defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and fills in defaults. A partial logging block is
// merged over the logging defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Logging: logger.DefaultLogConfig()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Load reads path when it is not empty, then applies the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Fetch.Timeout <= 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.Retries <= 0 {
		c.Fetch.Retries = 3
	}
	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = cipher.DefaultBaseURL
	}
	if c.Sandbox.Engine == "" {
		c.Sandbox.Engine = sandbox.EngineGoja
	}
	if c.Logging == nil {
		c.Logging = logger.DefaultLogConfig()
	}
}

// ApplyEnv overrides the configuration from SIGSOLVER_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SIGSOLVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v, ok := os.LookupEnv("SIGSOLVER_AUTH_TOKEN"); ok {
		c.Server.AuthToken = v
	}
	if v := os.Getenv("SIGSOLVER_ENGINE"); v != "" {
		c.Sandbox.Engine = v
	}
	if v := os.Getenv("SIGSOLVER_BASE_URL"); v != "" {
		c.Fetch.BaseURL = v
	}
	if v := os.Getenv("SIGSOLVER_PROXY"); v != "" {
		c.Fetch.Proxy = v
	}
	if v := os.Getenv("SIGSOLVER_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SIGSOLVER_FETCH_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("SIGSOLVER_FETCH_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SIGSOLVER_FETCH_RETRIES: %w", err)
		}
		c.Fetch.Retries = n
	}
	c.Logging.ApplyEnv()
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Sandbox.Engine) {
	case sandbox.EngineGoja, sandbox.EngineOtto:
	default:
		return fmt.Errorf("sandbox.engine: unknown engine %q", c.Sandbox.Engine)
	}
	if c.Sandbox.MaxCallStack < 0 {
		return fmt.Errorf("sandbox.max_call_stack must be non-negative")
	}
	if _, err := cipher.NormalizePlayerURL("/", c.Fetch.BaseURL); err != nil {
		return fmt.Errorf("fetch.base_url: %w", err)
	}
	if err := c.Logging.ValidateConfig(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Tiers converts the cache section, starting from the tier defaults.
func (c CacheConfig) Tiers() cipher.CacheConfig {
	d := cipher.DefaultCacheConfig()
	merge := func(t TierConfig, def cache.Options) cache.Options {
		if t.Capacity > 0 {
			def.Capacity = t.Capacity
		}
		if t.TTL > 0 {
			def.TTL = t.TTL
		}
		if t.RefreshOnRead != nil {
			def.RefreshOnRead = *t.RefreshOnRead
		}
		return def
	}
	return cipher.CacheConfig{
		Scripts:  merge(c.Scripts, d.Scripts),
		Modules:  merge(c.Modules, d.Modules),
		Solvers:  merge(c.Solvers, d.Solvers),
		InFlight: merge(c.InFlight, d.InFlight),
		Sts:      merge(c.Sts, d.Sts),
	}
}

// Client returns the HTTP client settings.
func (f FetchConfig) Client() client.Config {
	return client.Config{
		Timeout:   f.Timeout,
		Retries:   f.Retries,
		UserAgent: f.UserAgent,
		ProxyURL:  f.Proxy,
	}
}

// Evaluator returns the sandbox settings.
func (s SandboxConfig) Evaluator() sandbox.Options {
	return sandbox.Options{Engine: s.Engine, MaxCallStack: s.MaxCallStack}
}
