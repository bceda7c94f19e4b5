// Package log builds the zap loggers used across netstate and provides
// fields for replication identifiers.
package log

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ConsoleEncoder represents logging with plain text.
	ConsoleEncoder = "console"
	// JSONEncoder represents logging with JSON.
	JSONEncoder = "json"
)

// NewEncoder returns the encoder named by kind.
func NewEncoder(kind string) (zapcore.Encoder, error) {
	switch kind {
	case ConsoleEncoder, "":
		return zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), nil
	case JSONEncoder:
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), nil
	}
	return nil, fmt.Errorf("unknown log encoder %q", kind)
}

// NewWithLevel creates a logger writing to w with a fixed level and with a set of (optional) hooks.
func NewWithLevel(w io.Writer, module string,
	level zap.AtomicLevel,
	encoder zapcore.Encoder,
	hooks ...func(zapcore.Entry) error,
) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(zapcore.RegisterHooks(core, hooks...)).Named(module)
}

// New creates a stdout logger for the given level and encoder names.
func New(module, level, encoder string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	enc, err := NewEncoder(encoder)
	if err != nil {
		return nil, err
	}
	return NewWithLevel(os.Stdout, module, lvl, enc), nil
}

// Named returns a child logger of l for a module with its own level.
// An empty level inherits the parent's.
func Named(l *zap.Logger, module, level string) (*zap.Logger, error) {
	l = l.Named(module)
	if level == "" {
		return l, nil
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level for %s: %w", module, err)
	}
	return l.WithOptions(addDynamicLevel(&lvl)), nil
}

func addDynamicLevel(level *zap.AtomicLevel) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &coreWithLevel{
			Core: core,
			lvl:  level,
		}
	})
}

type coreWithLevel struct {
	zapcore.Core
	lvl *zap.AtomicLevel
}

func (c *coreWithLevel) Enabled(level zapcore.Level) bool {
	return c.lvl.Enabled(level)
}

func (c *coreWithLevel) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.lvl.Enabled(e.Level) {
		return ce
	}
	return ce.AddCore(e, c.Core)
}

func (c *coreWithLevel) With(fields []zapcore.Field) zapcore.Core {
	return &coreWithLevel{Core: c.Core.With(fields), lvl: c.lvl}
}
