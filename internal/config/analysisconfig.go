package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a symex.yaml batch-run configuration:
// which targets to analyze and with what budgets. It mirrors the teacher's
// funxy.yaml loader in shape (a thin yaml.v3 struct plus a Load function),
// not in content.
type FileConfig struct {
	// Targets lists names registered with the CLI's registry, e.g. "abs"
	// or "sample.Counter"; a class name analyzes every registered method.
	Targets []string `yaml:"targets"`

	// PerPathTimeout overrides DefaultPerPathTimeout, as a duration
	// string (e.g. "1500ms").
	PerPathTimeout string `yaml:"per_path_timeout,omitempty"`

	// PerConditionTimeout overrides DefaultPerConditionTimeout.
	PerConditionTimeout string `yaml:"per_condition_timeout,omitempty"`

	// Deadline bounds the whole batch run, as a duration string.
	Deadline string `yaml:"deadline,omitempty"`
}

// Load reads and parses a symex.yaml file at path.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &fc, nil
}

// Durations resolves the FileConfig's string durations against the package
// defaults, returning (perPath, perCondition, deadline-from-now-or-zero).
func (fc *FileConfig) Durations() (perPath, perCondition, deadline time.Duration, err error) {
	perPath, err = parseDurationOr(fc.PerPathTimeout, DefaultPerPathTimeout)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("config: per_path_timeout: %w", err)
	}
	perCondition, err = parseDurationOr(fc.PerConditionTimeout, DefaultPerConditionTimeout)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("config: per_condition_timeout: %w", err)
	}
	deadline, err = parseDurationOr(fc.Deadline, 0)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("config: deadline: %w", err)
	}
	return perPath, perCondition, deadline, nil
}

func parseDurationOr(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}
