package authcore

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config defines the engine configuration. Instances are configured
// before Build and treated as immutable afterwards.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Policy   PasswordPolicy
	Reset    ResetConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls session token issuance. Secret is mandatory:
// there is no development default and Build fails closed without one.
type TokenConfig struct {
	Secret   []byte
	Lifetime time.Duration // default 30 days
	Issuer   string
	Leeway   time.Duration // clock-skew allowance on verification, max 2 minutes
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls the one-way hasher.
type PasswordConfig struct {
	Cost int // bcrypt work factor, default 10
}

// ResetConfig controls the password reset subsystem. When Enabled, the
// Builder requires a redis client to hold the one-shot challenges.
type ResetConfig struct {
	Enabled     bool
	TTL         time.Duration // default 15 minutes
	MaxAttempts int           // default 5
	RedisPrefix string        // default "ar"
}

// AuditConfig controls dispatcher buffering behavior.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables in-process counters and optional latency
// histograms. When Enabled is false all metric operations are no-ops.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. The signing secret
// is intentionally absent; Build refuses to proceed until one is set.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Lifetime: 30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Cost: 10,
		},
		Policy: PolicyStandard,
		Reset: ResetConfig{
			Enabled:     false,
			TTL:         15 * time.Minute,
			MaxAttempts: 5,
			RedisPrefix: "ar",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate checks the configuration for fatal problems. A missing
// signing secret is a [ConfigurationError]: the engine never signs with
// a guessable default.
func (c Config) Validate() error {
	if len(c.Token.Secret) == 0 {
		return &ConfigurationError{Reason: "signing secret is required"}
	}
	if c.Token.Lifetime < 0 {
		return &ConfigurationError{Reason: "token lifetime must not be negative"}
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return &ConfigurationError{Reason: "token leeway must be between 0 and 2 minutes"}
	}
	if c.Password.Cost != 0 && (c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost) {
		return &ConfigurationError{Reason: "password cost out of range"}
	}
	switch c.Policy {
	case PolicyStandard, PolicyStrict:
	default:
		return &ConfigurationError{Reason: "unknown password policy"}
	}
	if c.Reset.Enabled {
		if c.Reset.TTL <= 0 {
			return &ConfigurationError{Reason: "reset TTL must be positive"}
		}
		if c.Reset.MaxAttempts <= 0 {
			return &ConfigurationError{Reason: "reset max attempts must be positive"}
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
