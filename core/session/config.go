package session

import (
	"time"

	"github.com/dmitrymomot/sessionkit/core/config"
)

// Config holds session manager configuration.
// A non-positive timeout disables that check for new sessions.
type Config struct {
	// Timeouts applied to new sessions
	IdleTimeout     time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"15m"`
	AbsoluteTimeout time.Duration `env:"SESSION_ABSOLUTE_TIMEOUT" envDefault:"30m"`

	// Policy
	DeleteInvalidSessions bool `env:"SESSION_DELETE_INVALID" envDefault:"true"`
	AutoTouch             bool `env:"SESSION_AUTO_TOUCH" envDefault:"false"`

	// Background validation
	ValidationEnabled         bool          `env:"SESSION_VALIDATION_ENABLED" envDefault:"true"`
	ValidationInterval        time.Duration `env:"SESSION_VALIDATION_INTERVAL" envDefault:"1h"`
	ValidationConcurrency     int           `env:"SESSION_VALIDATION_CONCURRENCY" envDefault:"8"`
	ValidationShutdownTimeout time.Duration `env:"SESSION_VALIDATION_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the defaults used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:               15 * time.Minute,
		AbsoluteTimeout:           30 * time.Minute,
		DeleteInvalidSessions:     true,
		AutoTouch:                 false,
		ValidationEnabled:         true,
		ValidationInterval:        time.Hour,
		ValidationConcurrency:     8,
		ValidationShutdownTimeout: 30 * time.Second,
	}
}

// LoadConfig reads Config from the environment and an optional .env file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
