// Package config loads the contentdna configuration: signal sources,
// channel profiles and arbiter settings. Config lives in the XDG
// config dir and is written out from embedded defaults on first run.
package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Source is one feed of candidate signals.
type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Topic is one channel topic with its matching keywords.
type Topic struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	NameAr   string   `yaml:"name_ar,omitempty"`
	Keywords []string `yaml:"keywords"`
	Learned  []string `yaml:"learned_keywords,omitempty"`
}

// Channel is one channel profile.
type Channel struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Topics []Topic `yaml:"topics"`
}

type AIConfig struct {
	Provider string  `yaml:"provider"` // "claude" or "openai"
	APIKey   string  `yaml:"api_key"`
	Model    string  `yaml:"model"`
	RPS      float64 `yaml:"rps,omitempty"`
}

type Config struct {
	RefreshInterval string    `yaml:"refresh_interval"`
	Retention       string    `yaml:"retention"`
	DedupeThreshold float64   `yaml:"dedupe_threshold,omitempty"`
	Sources         []Source  `yaml:"sources"`
	Channels        []Channel `yaml:"channels"`
	AI              *AIConfig `yaml:"ai,omitempty"`
}

// AIEnabled returns true if the arbiter is configured with an API key.
func (c *Config) AIEnabled() bool {
	if c.AI == nil {
		return false
	}
	key := c.AI.APIKey
	if key == "" {
		key = os.Getenv("CONTENTDNA_AI_KEY")
	}
	return key != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv("CONTENTDNA_AI_KEY")
}

// Channel returns the profile with the given id, or nil.
func (c *Config) Channel(id string) *Channel {
	for i := range c.Channels {
		if c.Channels[i].ID == id {
			return &c.Channels[i]
		}
	}
	return nil
}

// DefaultChannel returns the first configured channel, or nil.
func (c *Config) DefaultChannel() *Channel {
	if len(c.Channels) == 0 {
		return nil
	}
	return &c.Channels[0]
}

func (c *Config) RefreshDuration() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 12 * time.Hour
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	if c.Retention == "" {
		return 90 * 24 * time.Hour
	}
	// Support "Nd" day syntax
	if len(c.Retention) > 1 && c.Retention[len(c.Retention)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(c.Retention, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(c.Retention)
	if err != nil {
		return 90 * 24 * time.Hour
	}
	return d
}

// Threshold returns the dedupe threshold with its default.
func (c *Config) Threshold() float64 {
	if c.DedupeThreshold <= 0 || c.DedupeThreshold > 1 {
		return 0.85
	}
	return c.DedupeThreshold
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "contentdna", "config.yaml")
}

func StorePath() string {
	return filepath.Join(xdg.DataHome, "contentdna", "contentdna.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}

	seen := map[string]bool{}
	for _, ch := range cfg.Channels {
		if ch.ID == "" {
			return fmt.Errorf("channel %q: id is required", ch.Name)
		}
		if seen[ch.ID] {
			return fmt.Errorf("channel %q: duplicate id", ch.ID)
		}
		seen[ch.ID] = true
		for _, t := range ch.Topics {
			if t.ID == "" {
				return fmt.Errorf("channel %q: topic with empty id", ch.ID)
			}
		}
	}
	return nil
}
