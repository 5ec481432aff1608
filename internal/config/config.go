package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database   DatabaseConfig    `yaml:"database"`
	Engine     EngineConfig      `yaml:"engine"`
	DNS        DNSConfig         `yaml:"dns"`
	GeoIP      GeoIPConfig       `yaml:"geoip"`
	Collectors []CollectorConfig `yaml:"collectors"`
	Publishers []PublisherConfig `yaml:"publishers"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	LogLevel  string        `yaml:"log_level"`
	Inbound   InboundConfig `yaml:"inbound"`
	ConfigDir string        `yaml:"config_dir"` // Empty means the system temp dir
}

type InboundConfig struct {
	Protocol string `yaml:"protocol"` // socks | dokodemo-door
	Listen   string `yaml:"listen"`
	Port     int    `yaml:"port"`
}

type DNSConfig struct {
	Mode     string        `yaml:"mode"` // doh | system | none
	DoHURL   string        `yaml:"doh_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type GeoIPConfig struct {
	ASNPath     string `yaml:"asn_path"`
	CountryPath string `yaml:"country_path"`
}

type CollectorConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}

type PublisherConfig struct {
	Name     string                 `yaml:"name"`
	Type     string                 `yaml:"type"`
	Protocol string                 `yaml:"protocol"` // Optional filter
	Params   map[string]interface{} `yaml:"params"`
}

// Default returns the config used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "linkguard.db"},
		Engine: EngineConfig{
			LogLevel: "warning",
			Inbound: InboundConfig{
				Protocol: "socks",
				Listen:   "127.0.0.1",
				Port:     1080,
			},
		},
		DNS: DNSConfig{
			Mode:     "doh",
			DoHURL:   "https://cloudflare-dns.com/dns-query",
			Timeout:  5 * time.Second,
			Retries:  2,
			CacheTTL: 5 * time.Minute,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.yaml"
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DNS.Mode {
	case "doh", "system", "none":
	default:
		return fmt.Errorf("unsupported dns mode %q", c.DNS.Mode)
	}
	if c.DNS.Mode == "doh" && c.DNS.DoHURL == "" {
		return errors.New("dns.doh_url is required in doh mode")
	}
	if c.DNS.Retries < 0 {
		return fmt.Errorf("dns.retries must not be negative, got %d", c.DNS.Retries)
	}

	switch c.Engine.Inbound.Protocol {
	case "socks", "dokodemo-door":
	default:
		return fmt.Errorf("unsupported inbound protocol %q", c.Engine.Inbound.Protocol)
	}
	if p := c.Engine.Inbound.Port; p < 0 || p > 65535 {
		return fmt.Errorf("inbound port %d out of range", p)
	}

	seen := make(map[string]bool)
	for _, col := range c.Collectors {
		if col.Name == "" {
			return fmt.Errorf("collector of type %q has no name", col.Type)
		}
		if seen[col.Name] {
			return fmt.Errorf("duplicate collector name %q", col.Name)
		}
		seen[col.Name] = true
	}

	seen = make(map[string]bool)
	for _, pub := range c.Publishers {
		if pub.Name == "" {
			return fmt.Errorf("publisher of type %q has no name", pub.Type)
		}
		if seen[pub.Name] {
			return fmt.Errorf("duplicate publisher name %q", pub.Name)
		}
		seen[pub.Name] = true
	}
	return nil
}

func (c *Config) FilterCollectors(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []CollectorConfig
	for _, item := range c.Collectors {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Collectors = filtered
}

func (c *Config) FilterPublishers(names []string) {
	if len(names) == 0 {
		return
	}
	whitelist := make(map[string]bool)
	for _, n := range names {
		whitelist[n] = true
	}
	var filtered []PublisherConfig
	for _, item := range c.Publishers {
		if whitelist[item.Name] {
			filtered = append(filtered, item)
		}
	}
	c.Publishers = filtered
}
