package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "statuscheck.log"

// New builds a JSON logger. With a directory the output goes to a rotating
// file in it, otherwise to stderr so stdout stays free for the report.
func New(level, logDir string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zapcore.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}

	var w zapcore.WriteSyncer
	if logDir == "" {
		w = zapcore.Lock(os.Stderr)
	} else {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, err
		}
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logDir, FileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, lvl)
	return zap.New(core), nil
}
