package meshsim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceConfig declares an external data provider in the run configuration.
type SourceConfig struct {
	Name     string   `yaml:"name"`
	Provides []string `yaml:"provides"`
}

// ModuleConfig declares a module in the run configuration.
type ModuleConfig struct {
	Name     string   `yaml:"name"`
	Provides []string `yaml:"provides,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
}

// OutputConfig declares one output descriptor. Times are strings in the
// config file: specific_time is "HH:MM", specific_datetime is RFC 3339.
type OutputConfig struct {
	Name             string   `yaml:"name"`
	Variables        []string `yaml:"variables,omitempty"`
	Frequency        *int     `yaml:"frequency,omitempty"`
	OnlyLastN        *int     `yaml:"only_last_n,omitempty"`
	SpecificTime     string   `yaml:"specific_time,omitempty"`
	SpecificDatetime string   `yaml:"specific_datetime,omitempty"`
}

// CheckpointConfig declares the checkpoint policy. AbortMargin is a Go
// duration string; empty means the default.
type CheckpointConfig struct {
	Enabled        bool   `yaml:"enabled"`
	OnLastTimestep *bool  `yaml:"on_last_timestep,omitempty"`
	Frequency      *int   `yaml:"frequency,omitempty"`
	OnOutOfTime    *bool  `yaml:"on_out_of_time,omitempty"`
	AbortMargin    string `yaml:"abort_margin,omitempty"`
}

// Config is the YAML-facing run configuration: the module and source
// declarations, provider overrides, output descriptors, and checkpoint
// policy.
type Config struct {
	Name              string            `yaml:"name"`
	Sources           []SourceConfig    `yaml:"sources,omitempty"`
	Modules           []ModuleConfig    `yaml:"modules"`
	ProviderOverrides map[string]string `yaml:"provider_overrides,omitempty"`
	Outputs           []OutputConfig    `yaml:"outputs,omitempty"`
	Checkpoint        CheckpointConfig  `yaml:"checkpoint,omitempty"`
}

// LoadConfigFile loads a run configuration from a YAML file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadConfigString(string(data))
}

// LoadConfigString loads a run configuration from a YAML string.
func LoadConfigString(data string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(cfg.Modules) == 0 {
		return nil, fmt.Errorf("config must declare at least one module")
	}
	return &cfg, nil
}

// Registry builds a variable registry from the declared sources and modules.
func (c *Config) Registry() *Registry {
	reg := NewRegistry()
	for _, s := range c.Sources {
		reg.RegisterSource(s.Name, s.Provides...)
	}
	for _, m := range c.Modules {
		reg.RegisterModule(m.Name, m.Provides, m.Requires)
	}
	return reg
}

// OutputDescriptors converts the output section, parsing time fields and
// validating every descriptor. All problems are reported together.
func (c *Config) OutputDescriptors() ([]*OutputDescriptor, error) {
	var problems []error
	descriptors := make([]*OutputDescriptor, 0, len(c.Outputs))
	for _, oc := range c.Outputs {
		desc := &OutputDescriptor{
			Name:      oc.Name,
			Variables: oc.Variables,
			Frequency: oc.Frequency,
			OnlyLastN: oc.OnlyLastN,
		}
		if oc.SpecificTime != "" {
			t, err := time.Parse("15:04", oc.SpecificTime)
			if err != nil {
				problems = append(problems, fmt.Errorf("output %q: invalid specific_time %q", oc.Name, oc.SpecificTime))
			} else {
				desc.SpecificTimeOfDay = &t
			}
		}
		if oc.SpecificDatetime != "" {
			t, err := time.Parse(time.RFC3339, oc.SpecificDatetime)
			if err != nil {
				problems = append(problems, fmt.Errorf("output %q: invalid specific_datetime %q", oc.Name, oc.SpecificDatetime))
			} else {
				desc.SpecificDatetime = &t
			}
		}
		if err := desc.Validate(); err != nil {
			problems = append(problems, err)
		}
		descriptors = append(descriptors, desc)
	}
	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}
	return descriptors, nil
}

// CheckpointPolicy converts the checkpoint section into a validated Policy.
func (c *Config) CheckpointPolicy() (Policy, error) {
	policy := Policy{
		Enabled:        c.Checkpoint.Enabled,
		OnLastTimestep: c.Checkpoint.OnLastTimestep,
		Frequency:      c.Checkpoint.Frequency,
		OnOutOfTime:    c.Checkpoint.OnOutOfTime,
	}
	if c.Checkpoint.AbortMargin != "" {
		margin, err := time.ParseDuration(c.Checkpoint.AbortMargin)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid abort_margin %q: %w", c.Checkpoint.AbortMargin, err)
		}
		policy.AbortMargin = margin
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
