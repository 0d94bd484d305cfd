package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Sugar *zap.SugaredLogger

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func GetLogger() *zap.SugaredLogger {
	if Sugar == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = level
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		logger, err := cfg.Build()
		if err != nil {
			logger = zap.NewNop()
		}
		Sugar = logger.Sugar()
	}
	return Sugar
}

// SetLevel changes the level of the shared logger. Unknown names keep the current level.
func SetLevel(name string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return
	}
	level.SetLevel(l)
}

func Sync() {
	if Sugar != nil {
		_ = Sugar.Sync()
	}
}
