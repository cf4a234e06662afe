// Package scheduler triggers dispatch passes on a fixed interval.
package scheduler

import "time"

// Config defines the scheduler configuration.
type Config struct {
	// Interval is the time between passes. Keep it well under twice the
	// 14 minute firing window or timed reminders can fall between passes.
	Interval time.Duration `yaml:"interval"`
	// RunOnStart runs a pass as soon as the scheduler starts.
	RunOnStart bool `yaml:"run_on_start"`
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() *Config {
	return &Config{
		Interval:   15 * time.Minute,
		RunOnStart: true,
	}
}

// GetInterval returns the pass interval, falling back to the default.
func (c *Config) GetInterval() time.Duration {
	if c.Interval <= 0 {
		return DefaultConfig().Interval
	}
	return c.Interval
}
