package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-netstate/dispatch"
	"github.com/spacemeshos/go-netstate/replica"
)

// Role decides which side of replication a session runs.
type Role string

const (
	// Host owns authoritative state and sends payloads.
	Host Role = "host"
	// Client mirrors state received from the host.
	Client Role = "client"
)

// ProtocolVersion is sent in Hello and must match on both sides.
const ProtocolVersion = 1

type Config struct {
	Role Role `mapstructure:"role"`
	// TickInterval is the period of aggregation on the host and of pending
	// buffer sweeps on clients.
	TickInterval time.Duration  `mapstructure:"tick-interval"`
	Version      uint32         `mapstructure:"version"`
	Replica      replica.Config `mapstructure:"replica"`
}

func DefaultConfig() Config {
	return Config{
		Role:         Host,
		TickInterval: 50 * time.Millisecond,
		Version:      ProtocolVersion,
		Replica:      replica.DefaultConfig(),
	}
}

type options struct {
	logger  *zap.Logger
	replica *zap.Logger
	clock   clockwork.Clock
	id      uuid.UUID
	schema  []dispatch.Key
}

// Opt configures a Session.
type Opt func(*options)

func WithLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.logger = logger
	}
}

// WithReplicaLogger sets the logger of the registry, aggregator and applier.
// By default it is a named child of the session logger.
func WithReplicaLogger(logger *zap.Logger) Opt {
	return func(o *options) {
		o.replica = logger
	}
}

// WithClock sets the clock driving Run and the pending buffer.
func WithClock(clock clockwork.Clock) Opt {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSessionID sets the id a host announces. By default a random one is
// generated.
func WithSessionID(id uuid.UUID) Opt {
	return func(o *options) {
		o.id = id
	}
}

// WithSchema lists the keys the application resolves from the table. New
// fails unless all of them are registered.
func WithSchema(keys ...dispatch.Key) Opt {
	return func(o *options) {
		o.schema = append(o.schema, keys...)
	}
}
