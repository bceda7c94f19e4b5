package replica

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Config bounds payloads and the receiver's buffer for payloads that arrive
// before their object is spawned.
type Config struct {
	// MaxEntries is the number of fields a payload may carry.
	MaxEntries int `mapstructure:"max-entries"`
	// MaxDeltaSize is the size in bytes of a single field delta.
	MaxDeltaSize int `mapstructure:"max-delta-size"`
	// PendingGrace is how long a payload for an unknown object is kept.
	PendingGrace time.Duration `mapstructure:"pending-grace"`
	// PendingLimit is the number of unknown objects with buffered payloads.
	PendingLimit int `mapstructure:"pending-limit"`
	// PendingPerObject is the number of payloads buffered per unknown object.
	PendingPerObject int `mapstructure:"pending-per-object"`
	// TombstoneLimit is the number of despawned ids remembered in order to
	// drop their late payloads.
	TombstoneLimit int `mapstructure:"tombstone-limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:       256,
		MaxDeltaSize:     64 << 10,
		PendingGrace:     2 * time.Second,
		PendingLimit:     1024,
		PendingPerObject: 16,
		TombstoneLimit:   4096,
	}
}

type options struct {
	logger *zap.Logger
	clock  clockwork.Clock
}

func newOptions(opts []Opt) options {
	o := options{
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Opt configures Registry, Aggregator and Applier.
type Opt func(*options)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets the clock used for sync intervals and the pending buffer
// grace window.
func WithClock(clock clockwork.Clock) Opt {
	return func(o *options) {
		o.clock = clock
	}
}
