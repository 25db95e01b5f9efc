package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service-level configuration loaded from config.yaml.
// Browser launch behavior and credentials come from the environment
// (see browser.OptionsFromEnv and the per-broker profiles).
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Brokers []string `yaml:"brokers"`
	Policy  struct {
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MinStake       float64 `yaml:"min_stake"`
	} `yaml:"policy"`
	OrderLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"order_log"`
}

var knownBrokers = map[string]bool{
	"quotex":   true,
	"iqoption": true,
	"exnova":   true,
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers cannot be empty")
	}
	for _, b := range c.Brokers {
		if !knownBrokers[b] {
			return fmt.Errorf("unknown broker '%s': must be one of quotex, iqoption, exnova", b)
		}
	}
	if c.Policy.MinStake < 0 {
		return fmt.Errorf("policy.min_stake must be >= 0, got %.2f", c.Policy.MinStake)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns the configuration used when no config.yaml exists.
func DefaultConfig() *Config {
	var c Config
	applyDefaults(&c)
	return &c
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":9002"
	}
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"quotex", "iqoption", "exnova"}
	}
	if c.Policy.BaseURL == "" {
		c.Policy.BaseURL = getEnvOrDefault("QUANT_API_URL", "http://localhost:7070")
	}
	if c.Policy.TimeoutSeconds == 0 {
		c.Policy.TimeoutSeconds = 30
	}
	if c.Policy.MinStake == 0 {
		c.Policy.MinStake = 1
	}
	if c.OrderLog.Dir == "" {
		c.OrderLog.Dir = getEnvOrDefault("ORDER_LOG_DIR", "logs")
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
