package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines the configuration for the logger.
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, console
	EnableColor bool   // only honoured in console mode
}

const coloredConsole = "colored-console"

var (
	globalLogger *zap.Logger
	atom         zap.AtomicLevel
	once         sync.Once
	mu           sync.RWMutex
)

func init() {
	_ = zap.RegisterEncoder(coloredConsole, func(cfg zapcore.EncoderConfig) (zapcore.Encoder, error) {
		return NewColoredConsoleEncoder(cfg), nil
	})
}

// DefaultConfig returns a configuration derived from LOG_* environment variables.
func DefaultConfig() Config {
	return Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "console"),
		EnableColor: shouldEnableColor(),
	}
}

func encoderFor(cfg Config) (string, zapcore.EncoderConfig) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		if cfg.EnableColor {
			encoding = coloredConsole
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	return encoding, encoderConfig
}

// Build constructs a logger from cfg without touching the global one.
func Build(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	encoding, encoderConfig := encoderFor(cfg)

	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapConfig := zap.Config{
		Level:             level,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: cfg.Level != "debug",
	}

	l, err := zapConfig.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, level, err
	}
	return l, level, nil
}

// NewWriter builds a logger writing to w, for tools whose stdout carries data.
func NewWriter(cfg Config, w io.Writer) *zap.Logger {
	encoding, encoderConfig := encoderFor(cfg)

	var enc zapcore.Encoder
	switch encoding {
	case "json":
		enc = zapcore.NewJSONEncoder(encoderConfig)
	case coloredConsole:
		enc = NewColoredConsoleEncoder(encoderConfig)
	default:
		enc = zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), parseLevel(cfg.Level)))
}

// Initialize sets up the global logger once. Later calls are no-ops.
func Initialize(cfg Config) {
	once.Do(func() {
		l, level, err := Build(cfg)
		if err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
		mu.Lock()
		globalLogger, atom = l, level
		mu.Unlock()
	})
}

// Get returns the global logger, initializing it with defaults when unset.
func Get() *zap.Logger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l == nil {
		Initialize(DefaultConfig())
		mu.RLock()
		l = globalLogger
		mu.RUnlock()
	}
	return l
}

// SetLevel changes the global level at runtime.
func SetLevel(lvl string) {
	Get()
	atom.SetLevel(parseLevel(lvl))
}

// With creates a child logger and adds structured context to it.
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}

func Info(msg string, fields ...zap.Field) {
	Get().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Get().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	Get().Fatal(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Get().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Get().Warn(msg, fields...)
}

func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.ToLower(value)
	}
	return fallback
}

func parseLevel(lvl string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(lvl))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// shouldEnableColor checks NO_COLOR (https://no-color.org/) and then LOG_COLOR.
func shouldEnableColor() bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	if val := os.Getenv("LOG_COLOR"); val != "" {
		return val == "true" || val == "1"
	}
	return true
}
