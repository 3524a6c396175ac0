package ax25

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWindowSize         = 8
	DefaultMTU                = 200
	DefaultRetransmitTimeout  = 10 * time.Second
	DefaultKeepaliveTimeout   = 30 * time.Second
	DefaultBurstReceiveTimeout = 3 * time.Second
	DefaultBurstReceiveOffset = 3 * time.Second
)

// Config bundles the tunables spec.md §6.4 lists as recognized session
// options, plus two ambient additions (Modulo, Logger) spec.md leaves to
// the implementation's own configuration layer.
type Config struct {
	MyCall    Address
	TheirCall Address

	WindowSize           int
	MTU                  int
	RetransmitTimeout    time.Duration
	KeepaliveTimeout     time.Duration
	BurstReceiveTimeout  time.Duration
	BurstReceiveOffset   time.Duration

	// Modulo is carried explicitly rather than derived from WindowSize,
	// per the Open Question in spec.md §9 about keeping the control
	// codec's modulus independently configurable. The session always
	// runs Modulo8 (spec Non-goals).
	Modulo Modulo

	Logger *logrus.Logger
}

// DefaultConfig returns the spec.md §6.4 defaults.
func DefaultConfig() Config {
	return Config{
		WindowSize:          DefaultWindowSize,
		MTU:                 DefaultMTU,
		RetransmitTimeout:   DefaultRetransmitTimeout,
		KeepaliveTimeout:    DefaultKeepaliveTimeout,
		BurstReceiveTimeout: DefaultBurstReceiveTimeout,
		BurstReceiveOffset:  DefaultBurstReceiveOffset,
		Modulo:              Modulo8,
		Logger:              defaultLogger,
	}
}

// ConfigOption follows the teacher's ClientOption pattern (client_option.go)
// adapted from a chained setter object to the variadic functional-option
// form, the more common shape for this number of independent knobs.
type ConfigOption func(*Config)

func WithWindowSize(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.WindowSize = n
		}
	}
}

func WithMTU(n int) ConfigOption {
	return func(c *Config) {
		if n > 0 {
			c.MTU = n
		}
	}
}

func WithRetransmitTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.RetransmitTimeout = d
		}
	}
}

func WithKeepaliveTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.KeepaliveTimeout = d
		}
	}
}

func WithBurstReceiveTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.BurstReceiveTimeout = d
		}
	}
}

func WithBurstReceiveOffset(d time.Duration) ConfigOption {
	return func(c *Config) {
		if d > 0 {
			c.BurstReceiveOffset = d
		}
	}
}

func WithModulo(m Modulo) ConfigOption {
	return func(c *Config) { c.Modulo = m }
}

func WithLogger(lg *logrus.Logger) ConfigOption {
	return func(c *Config) {
		if lg != nil {
			c.Logger = lg
		}
	}
}
