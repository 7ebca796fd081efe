package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string // debug, info, warn, error
	OutputPath string // stdout, stderr, or file path
	Format     string // json or console

	// AutomationDir, when set, tees every entry into a dated
	// automation_YYYYMMDD.log file under this directory.
	AutomationDir string
}

// LogSink owns the logger and every file handle opened for it.
// Close must be called once on shutdown.
type LogSink struct {
	Logger *zap.Logger
	files  []io.Closer
}

// Close flushes the logger and closes the underlying files
func (s *LogSink) Close() error {
	if s == nil {
		return nil
	}
	_ = s.Logger.Sync()

	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = nil
	return firstErr
}

// NewLogger creates a new structured logger.
// Use NewLogSink when the caller needs to release file handles.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	sink, err := NewLogSink(cfg)
	if err != nil {
		return nil, err
	}
	return sink.Logger, nil
}

// NewLogSink builds the logger described by cfg
func NewLogSink(cfg LoggerConfig) (*LogSink, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	sink := &LogSink{}

	primary, err := sink.writerFor(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg.Format, cfg.OutputPath), primary, level),
	}

	if cfg.AutomationDir != "" {
		path := AutomationLogPath(cfg.AutomationDir, time.Now())
		automation, err := sink.openFile(path)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
		// The dated file always gets plain text, regardless of the console format.
		cores = append(cores, zapcore.NewCore(newEncoder("text", path), automation, zapcore.DebugLevel))
	}

	sink.Logger = zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel))

	return sink, nil
}

// AutomationLogPath returns the dated automation log file for t
func AutomationLogPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("automation_%s.log", t.Format("20060102")))
}

func newEncoder(format, output string) zapcore.Encoder {
	var encoderConfig zapcore.EncoderConfig
	if format == "json" {
		encoderConfig = zap.NewProductionEncoderConfig()
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		if output == "stdout" || output == "stderr" || output == "" {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func (s *LogSink) writerFor(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "stdout", "":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	default:
		return s.openFile(output)
	}
}

func (s *LogSink) openFile(path string) (zapcore.WriteSyncer, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, file)
	return zapcore.AddSync(file), nil
}

// NewDevelopmentLogger creates a logger suitable for development
// Deprecated: Use NewLogger with explicit config instead
func NewDevelopmentLogger() (*zap.Logger, error) {
	return NewLogger(LoggerConfig{
		Level:      "debug",
		OutputPath: "stdout",
		Format:     "console",
	})
}
