package log

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// rotation limits for the file writer
const (
	fileMaxSizeMB  = 5
	fileMaxBackups = 10
	fileMaxAgeDays = 14
)

var (
	logger zerolog.Logger
	once   sync.Once
)

type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	fileName string
	console  bool
	level    zerolog.Level
	out      io.Writer
}

func WithFileLogger(fileName string) LoggerOption {
	return func(c *loggerConfig) {
		c.fileName = fileName
	}
}

func WithConsoleLogger() LoggerOption {
	return func(c *loggerConfig) {
		c.console = true
	}
}

// WithOutput sends plain JSON lines to w in addition to any other writer.
func WithOutput(w io.Writer) LoggerOption {
	return func(c *loggerConfig) {
		c.out = w
	}
}

// WithLevelName sets the level from its name ("debug", "warn", ...). Unknown names keep the default.
func WithLevelName(name string) LoggerOption {
	return func(c *loggerConfig) {
		if name == "" {
			return
		}
		if level, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
			c.level = level
		}
	}
}

// New builds a logger tagged with the service name. Stdout is used when no writer is configured.
func New(serviceName string, opts ...LoggerOption) zerolog.Logger {
	c := &loggerConfig{level: zerolog.InfoLevel}
	for _, opt := range opts {
		opt(c)
	}

	var writers []io.Writer
	if c.console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	if c.fileName != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   c.fileName,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			MaxAge:     fileMaxAgeDays,
			Compress:   true,
		})
	}
	if c.out != nil {
		writers = append(writers, c.out)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(c.level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Init sets the process-wide logger once; later calls are ignored.
func Init(serviceName string, opts ...LoggerOption) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = New(serviceName, opts...)
	})
}

func GetLogger() zerolog.Logger {
	return logger
}
