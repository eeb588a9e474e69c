package goSessionSync

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goSessionSync APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Store    StoreConfig
	Sync     SyncConfig
	Notifier NotifierConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig names the origin-scoped storage area shared by every
// execution context of one deployment.
type StoreConfig struct {
	// RedisPrefix namespaces every key and the change channel.
	RedisPrefix string
	// Origin isolates independent storage areas. Contexts only converge
	// with peers of the same origin. Empty means the default origin.
	Origin string
}

/*
====================================
SYNC CONFIG
====================================
*/

// SyncConfig controls reconciliation behavior.
type SyncConfig struct {
	// DebounceWindow is the delay after a change signal during which
	// further signals coalesce into one reconciliation. It bounds both
	// the reload rate under write bursts and the staleness window of
	// every non-writing context.
	DebounceWindow time.Duration
}

/*
====================================
NOTIFIER CONFIG
====================================
*/

// NotifierConfig controls the role-change notice state machine.
type NotifierConfig struct {
	// AutoDismiss is how long a notice stays visible without an explicit
	// dismissal.
	AutoDismiss time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls async audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counter system.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration. The debounce and
// auto-dismiss durations match the original deployment's constants: short
// enough to feel instant, long enough to coalesce a login followed
// immediately by a role-administration write.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			RedisPrefix: "ss",
			Origin:      "",
		},
		Sync: SyncConfig{
			DebounceWindow: 100 * time.Millisecond,
		},
		Notifier: NotifierConfig{
			AutoDismiss: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for values that would break the
// convergence or notification contracts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.RedisPrefix) == "" {
		return errors.New("Store RedisPrefix must not be empty")
	}
	if strings.ContainsAny(c.Store.RedisPrefix, " \t\n") {
		return errors.New("Store RedisPrefix must not contain whitespace")
	}
	if c.Sync.DebounceWindow <= 0 {
		return errors.New("Sync DebounceWindow must be positive")
	}
	if c.Notifier.AutoDismiss <= 0 {
		return errors.New("Notifier AutoDismiss must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("Audit BufferSize must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All sections are plain values today; the clone exists so later
	// reference-typed fields cannot alias caller state.
	return cfg
}
