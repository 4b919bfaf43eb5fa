package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct {
	zl zerolog.Logger
}

type Config struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format     string `yaml:"format" env:"LOG_FORMAT"` // json or console
	Output     string `yaml:"output" env:"LOG_OUTPUT"` // stdout, stderr, or file path
	TimeFormat string `yaml:"time_format"`
	// Service is stamped on every line when set.
	Service string `yaml:"service"`
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zctx := zerolog.New(output).With().Timestamp().CallerWithSkipFrameCount(3)
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return &Logger{zl: zctx.Logger()}, nil
}

// NewWriter builds a JSON logger over w, mostly for tests.
func NewWriter(w io.Writer) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func openOutput(out string) (io.Writer, error) {
	switch out {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	file, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return file, nil
}

// With returns a child logger that always carries fields.
func (l *Logger) With(fields ...Field) *Logger {
	zctx := l.zl.With()
	for _, f := range fields {
		zctx = f.context(zctx)
	}
	return &Logger{zl: zctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { write(l.zl.Error(), msg, fields) }

func write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		f.event(e)
	}
	e.Msg(msg)
}

// Field is one structured key/value pair. Build it with the constructors
// below so the value keeps its JSON type.
type Field struct {
	key   string
	value interface{}
}

func (f Field) event(e *zerolog.Event) {
	switch v := f.value.(type) {
	case string:
		e.Str(f.key, v)
	case int:
		e.Int(f.key, v)
	case int64:
		e.Int64(f.key, v)
	case float64:
		e.Float64(f.key, v)
	case bool:
		e.Bool(f.key, v)
	case errValue:
		if v.err != nil {
			e.AnErr(f.key, v.err)
		}
	default:
		e.Interface(f.key, v)
	}
}

func (f Field) context(c zerolog.Context) zerolog.Context {
	switch v := f.value.(type) {
	case string:
		return c.Str(f.key, v)
	case int:
		return c.Int(f.key, v)
	case int64:
		return c.Int64(f.key, v)
	case float64:
		return c.Float64(f.key, v)
	case bool:
		return c.Bool(f.key, v)
	case errValue:
		if v.err == nil {
			return c
		}
		return c.AnErr(f.key, v.err)
	default:
		return c.Interface(f.key, v)
	}
}

type errValue struct{ err error }

func String(key, value string) Field          { return Field{key, value} }
func Int(key string, value int) Field         { return Field{key, value} }
func Int64(key string, value int64) Field     { return Field{key, value} }
func Float64(key string, value float64) Field { return Field{key, value} }
func Bool(key string, value bool) Field       { return Field{key, value} }
func Any(key string, value interface{}) Field { return Field{key, value} }
func Error(err error) Field                   { return Field{"error", errValue{err}} }

// Duration logs d in whole milliseconds.
func Duration(key string, d time.Duration) Field {
	return Field{key, int(d / time.Millisecond)}
}

func Strings(key string, value []string) Field {
	return Field{key, strings.Join(value, ", ")}
}
