package worker

import (
	"fmt"
	"time"
)

// Config controls how the artifact worker claims and runs jobs. Zero fields
// take the values from DefaultConfig when passed to New.
type Config struct {
	Concurrency       int           // goroutines claiming jobs in parallel
	PollInterval      time.Duration // idle wait between claim attempts
	JobTimeout        time.Duration // bound on one render-and-upload run
	ShutdownTimeout   time.Duration // how long Stop waits for in-flight jobs
	StaleJobThreshold time.Duration // age at which a running job is requeued on start
}

// DefaultConfig returns the settings used for any field left zero.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      2 * time.Second,
		JobTimeout:        2 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Concurrency == 0 {
		c.Concurrency = d.Concurrency
	}
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.StaleJobThreshold == 0 {
		c.StaleJobThreshold = d.StaleJobThreshold
	}
	return c
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > 100 {
		return fmt.Errorf("concurrency must be between 1 and 100, got %d", c.Concurrency)
	}

	minimums := []struct {
		name  string
		value time.Duration
		min   time.Duration
	}{
		{"poll interval", c.PollInterval, 10 * time.Millisecond},
		{"job timeout", c.JobTimeout, time.Second},
		{"shutdown timeout", c.ShutdownTimeout, time.Second},
		{"stale job threshold", c.StaleJobThreshold, time.Minute},
	}
	for _, m := range minimums {
		if m.value < m.min {
			return fmt.Errorf("%s must be at least %v, got %v", m.name, m.min, m.value)
		}
	}
	return nil
}
