package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the production JSON logger. Unknown levels fall back to info.
func New(service, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(strings.TrimSpace(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(service); s != "" {
		log = log.With(zap.String("service", s))
	}
	return log, nil
}
