package relq

import "time"

// Config holds settings shared by every adapter's sweeper and ephemeral
// policy. Backend-specific settings (connection strings, table names, Redis
// key prefixes) live in each adapter's own Config type; load this one with
// pkg/config.Load[Config] alongside the backend-specific one.
type Config struct {
	EphemeralDisabled bool          `env:"RELQ_EPHEMERAL_DISABLED" envDefault:"false"`
	EphemeralMaxSize  int           `env:"RELQ_EPHEMERAL_MAX_SIZE" envDefault:"0"`
	SweepInterval     time.Duration `env:"RELQ_SWEEP_INTERVAL" envDefault:"30s"`
	OrphanThreshold   time.Duration `env:"RELQ_ORPHAN_THRESHOLD" envDefault:"5m"`
}

// EphemeralPolicy builds the EphemeralPolicy this configuration describes.
func (c Config) EphemeralPolicy() EphemeralPolicy {
	return EphemeralPolicy{
		Disabled: c.EphemeralDisabled,
		MaxSize:  c.EphemeralMaxSize,
	}
}
