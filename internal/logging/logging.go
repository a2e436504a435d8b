// Package logging builds the zap loggers handed to every component.
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrInvalidLogLevel is returned for level names zap does not know.
var ErrInvalidLogLevel = errors.New("invalid log level")

// FileConfig controls log file rotation.
type FileConfig struct {
	Filename   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Config describes the logger to build.
type Config struct {
	// Level is a zap level name: debug, info, warn, error. Empty means info.
	Level string
	// Debug switches to the console encoder and forces debug level.
	Debug bool
	// File, when set, writes to a rotated file instead of stderr.
	File *FileConfig
}

// DefaultFileConfig returns rotation settings for filename.
func DefaultFileConfig(filename string) *FileConfig {
	return &FileConfig{
		Filename:   filename,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
}

// ParseLevel maps a level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrInvalidLogLevel, name)
	}
	return lvl, nil
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		lvl = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if cfg.Debug {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(ec)
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	var sink zapcore.WriteSyncer
	if cfg.File != nil && cfg.File.Filename != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(lvl))

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Debug {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...).Named("cipherlink"), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
