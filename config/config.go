// Package config defines the benchmark run configuration. One explicit
// Config value is loaded at startup and passed to constructors; there are no
// package-level settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shaynamir/archbench/archbench"
)

// Duration wraps time.Duration so YAML accepts "45s" style strings as well
// as integer nanoseconds.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.Std().String(), nil
}

// GatewayConfig points at the Home Assistant instance.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// ModelConfig names one benchmarked model and how to reach it.
type ModelConfig struct {
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"`
	BaseURL string `yaml:"base_url"`
}

// Handle converts the config entry into the core model handle.
func (m ModelConfig) Handle() archbench.ModelHandle {
	return archbench.ModelHandle{
		Name:    m.Name,
		Backend: archbench.Backend(m.Backend),
		BaseURL: m.BaseURL,
	}
}

// Config is the full benchmark configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Models  []ModelConfig `yaml:"models"`

	// ResultsDir holds the file outcome log and report output.
	ResultsDir string `yaml:"results_dir"`
	// RedisURL switches the outcome log to Redis when set.
	RedisURL string `yaml:"redis_url"`

	Profile          string   `yaml:"profile"`
	IncludeErrors    bool     `yaml:"include_errors"`
	Repeats          int      `yaml:"repeats"`
	Workers          int      `yaml:"workers"`
	UnitTimeout      Duration `yaml:"unit_timeout"`
	BreakerThreshold int      `yaml:"breaker_threshold"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration used when no file is present: a
// local Home Assistant, a local Ollama, and the core profile.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{BaseURL: "http://localhost:8123"},
		Models: []ModelConfig{
			{Name: "qwen3:4b", Backend: "ollama", BaseURL: "http://localhost:11434"},
		},
		ResultsDir:  "bench_results",
		Profile:     "core",
		Repeats:     1,
		Workers:     2,
		UnitTimeout: Duration(90 * time.Second),
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Models as core handles.
func (c *Config) ModelHandles() []archbench.ModelHandle {
	out := make([]archbench.ModelHandle, 0, len(c.Models))
	for _, m := range c.Models {
		out = append(out, m.Handle())
	}
	return out
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("config requires at least one model")
	}
	for _, m := range c.Models {
		if err := m.Handle().Validate(); err != nil {
			return err
		}
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("config requires a gateway base_url")
	}
	return nil
}

// Load reads the configuration from path, or from archbench.yaml in the
// working directory when path is empty. A missing default file yields the
// defaults; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = "archbench.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
