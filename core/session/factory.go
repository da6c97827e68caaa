package session

import "time"

type simpleFactory struct {
	idleTimeout     time.Duration
	absoluteTimeout time.Duration
	clock           func() time.Time
}

// NewFactory returns a Factory that stamps new sessions with clock() and
// fills missing timeouts from cfg. A nil clock means time.Now.
func NewFactory(cfg Config, clock func() time.Time) Factory {
	if clock == nil {
		clock = time.Now
	}
	return &simpleFactory{
		idleTimeout:     cfg.IdleTimeout,
		absoluteTimeout: cfg.AbsoluteTimeout,
		clock:           clock,
	}
}

func (f *simpleFactory) CreateSession(sctx Context) (*Session, error) {
	idle := sctx.IdleTimeout
	if idle == 0 {
		idle = f.idleTimeout
	}
	absolute := sctx.AbsoluteTimeout
	if absolute == 0 {
		absolute = f.absoluteTimeout
	}
	return New(f.clock(), sctx.Host, idle, absolute), nil
}
