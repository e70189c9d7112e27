// Package scopeconfig holds scopeprop's own runtime configuration —
// pool sizing, timeout defaults, and which transmitters a host wants
// active by default. It carries no infrastructure addresses; those
// belong to whatever host embeds scopeprop.
package scopeconfig

import (
	"encoding/json"
	"io"
)

// Config holds scopeprop's tunable defaults. Every field has a
// DefaultConfig value; hosts load a Config from JSON with Load and
// override what they need. No scopeprop package reads a Config on its
// own: the host passes each value to the call it applies to.
type Config struct {
	// ExecutorPoolSize is the concurrency for a host to pass to
	// executor.NewWorkerPool.
	ExecutorPoolSize int `json:"executor_pool_size"`

	// ExecutorCloseTimeoutMS is how long a host lets WorkerPool.Close
	// wait for in-flight tasks, applied as the deadline of the context
	// it passes to Close.
	ExecutorCloseTimeoutMS int `json:"executor_close_timeout_ms"`

	// StructuredJoinTimeoutMS is a timeout for a host to pass to
	// JoinTimeout or the *WithTimeout convenience functions, which
	// always take it as an explicit argument.
	StructuredJoinTimeoutMS int `json:"structured_join_timeout_ms"`

	// EnabledTransmitters lists transmitter names a host wants active;
	// empty means "everything currently registered". Selecting them
	// (for example through carrier.WithTransmitters) is up to the host.
	EnabledTransmitters []string `json:"enabled_transmitters"`

	// LogLevel is the minimum log level for a host to set on the
	// logrus logger behind scopelog.
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns scopeprop's built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ExecutorPoolSize:        16,
		ExecutorCloseTimeoutMS:  30_000,
		StructuredJoinTimeoutMS: 60_000,
		EnabledTransmitters:     nil,
		LogLevel:                "info",
	}
}

// Load reads a JSON document from r and overlays it onto
// DefaultConfig, so a host's config file only needs to name the
// fields it wants to change.
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	dec := json.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}
