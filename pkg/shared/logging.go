package shared

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a console logger at the requested level. An empty level
// means info.
func NewLogger(level string) (*zap.Logger, error) {
	parsed := zapcore.InfoLevel
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		if err := parsed.UnmarshalText([]byte(strings.ToLower(trimmed))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(parsed)
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
