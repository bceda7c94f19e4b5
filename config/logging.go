package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-netstate/log"
)

const defaultLoggingLevel = zapcore.InfoLevel

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder              string `mapstructure:"log-encoder"`
	AppLoggerLevel       string `mapstructure:"app"`
	SessionLoggerLevel   string `mapstructure:"session"`
	ReplicaLoggerLevel   string `mapstructure:"replica"`
	TransportLoggerLevel string `mapstructure:"transport"`
	DispatchLoggerLevel  string `mapstructure:"dispatch"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:              log.ConsoleEncoder,
		AppLoggerLevel:       defaultLoggingLevel.String(),
		SessionLoggerLevel:   defaultLoggingLevel.String(),
		ReplicaLoggerLevel:   zapcore.WarnLevel.String(),
		TransportLoggerLevel: zapcore.WarnLevel.String(),
		DispatchLoggerLevel:  zapcore.WarnLevel.String(),
	}
}
