package practicesession

import "math/rand"

// SessionConfig holds optional knobs for a practice session.
type SessionConfig struct {
	Rand *rand.Rand // nil = time-seeded source; set for reproducible draws
}

// DefaultConfig returns a config with no overrides.
func DefaultConfig() SessionConfig {
	return SessionConfig{
		Rand: nil,
	}
}
