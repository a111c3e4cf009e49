// Package config provides simple configuration loading for the poolbench
// harness
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// BenchConfig describes a poolbench run: the pool under test and the load
// shape driven against it.
type BenchConfig struct {
	// Capacity is the pool size; must be a power of two.
	Capacity int `yaml:"capacity"`
	// Returners is the number of goroutines returning borrowed objects.
	Returners int `yaml:"returners"`
	// Duration bounds the run.
	Duration time.Duration `yaml:"duration"`
	// AllocateOnEmpty selects the garbage-instead-of-blocking policy.
	AllocateOnEmpty bool `yaml:"allocate_on_empty"`
	// WaitStrategy is one of "blocking", "timeout", "yielding".
	WaitStrategy string `yaml:"wait_strategy"`
	// WaitTimeout applies to the "timeout" strategy.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	// LeakTimeout bounds a blocking borrow with no return in flight.
	LeakTimeout time.Duration `yaml:"leak_timeout"`
	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`
	// LogLevel sets the harness log level.
	LogLevel string `yaml:"log_level"`
}

// Default returns a runnable baseline configuration.
func Default() *BenchConfig {
	return &BenchConfig{
		Capacity:     1024,
		Returners:    runtime.NumCPU(),
		Duration:     10 * time.Second,
		WaitStrategy: "blocking",
		WaitTimeout:  time.Second,
		LeakTimeout:  10 * time.Second,
		LogLevel:     "info",
	}
}

// Validate checks the configuration for obvious mistakes before a run
// starts.
func (c *BenchConfig) Validate() error {
	if c.Capacity < 1 || c.Capacity&(c.Capacity-1) != 0 {
		return fmt.Errorf("capacity must be a power of two, got %d", c.Capacity)
	}
	if c.Returners < 1 {
		return fmt.Errorf("returners must be at least 1, got %d", c.Returners)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %s", c.Duration)
	}
	switch c.WaitStrategy {
	case "blocking", "timeout", "yielding":
	default:
		return fmt.Errorf("unknown wait strategy %q", c.WaitStrategy)
	}
	if c.WaitStrategy == "timeout" && c.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive for the timeout strategy")
	}
	return nil
}

// Load loads a configuration from a YAML file
func Load(filePath string, config interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller and validated
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Substitute environment variables
	content := string(data)
	content = substituteEnvVars(content)

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
