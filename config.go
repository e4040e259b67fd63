package campaigner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StageSettings holds the tunables for one stage.
type StageSettings struct {
	Model             string  `yaml:"model,omitempty"`
	MaxRetries        int     `yaml:"max_retries,omitempty"`
	Temperature       float64 `yaml:"temperature,omitempty"`
	ExtraInstructions string  `yaml:"extra_instructions,omitempty"`
}

// BucketSettings configures one token bucket of the gateway.
type BucketSettings struct {
	Capacity     int           `yaml:"capacity"`
	RefillPerSec float64       `yaml:"refill_per_sec"`
	MaxWait      time.Duration `yaml:"max_wait"`
}

// UnmarshalYAML accepts max_wait as a duration string ("30s", "2m").
func (b *BucketSettings) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Capacity     int     `yaml:"capacity"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
		MaxWait      string  `yaml:"max_wait"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	b.Capacity = raw.Capacity
	b.RefillPerSec = raw.RefillPerSec
	b.MaxWait = 0
	if raw.MaxWait != "" {
		d, err := time.ParseDuration(raw.MaxWait)
		if err != nil {
			return fmt.Errorf("parse max_wait: %w", err)
		}
		b.MaxWait = d
	}
	return nil
}

// GatewaySettings configures outbound-call throttling per category.
type GatewaySettings struct {
	LLM    BucketSettings `yaml:"llm"`
	Search BucketSettings `yaml:"search"`
	Fetch  BucketSettings `yaml:"fetch"`
}

// GateSettings configures the quality gate.
type GateSettings struct {
	Threshold   int `yaml:"threshold"`
	MaxAttempts int `yaml:"max_attempts"`
}

// Config is the full pipeline configuration document.
type Config struct {
	Provider   string                      `yaml:"provider"` // anthropic | openai | google
	Model      string                      `yaml:"model,omitempty"`
	MaxWorkers int                         `yaml:"max_workers,omitempty"`
	Gate       GateSettings                `yaml:"gate"`
	Gateway    GatewaySettings             `yaml:"gateway"`
	Stages     map[StageName]StageSettings `yaml:"stages,omitempty"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		MaxWorkers: 3,
		Gate: GateSettings{
			Threshold:   80,
			MaxAttempts: 2,
		},
		Gateway: GatewaySettings{
			LLM:    BucketSettings{Capacity: 5, RefillPerSec: 1, MaxWait: 2 * time.Minute},
			Search: BucketSettings{Capacity: 3, RefillPerSec: 0.5, MaxWait: time.Minute},
			Fetch:  BucketSettings{Capacity: 3, RefillPerSec: 1, MaxWait: time.Minute},
		},
	}
}

// LoadConfig reads a YAML config file, layering it over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// StageSettingsFor returns the settings for a stage, falling back to the
// top-level model when the stage has no override.
func (c Config) StageSettingsFor(name StageName) StageSettings {
	s := c.Stages[name]
	if s.Model == "" {
		s.Model = c.Model
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = 2
	}
	return s
}
