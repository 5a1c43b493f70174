// Package logging sets up zerolog for the rcx tools and adapts it to the
// Logger interface of the library packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select where log output goes.
type Options struct {
	// Console receives human readable output; nil disables it
	Console io.Writer

	// File is an optional log file, rotated at 1 MB
	File string

	// Debug enables debug level output
	Debug bool
}

// Init configures the global zerolog logger and returns it. The returned
// closer flushes and closes the log file, if any.
func Init(opts Options) (zerolog.Logger, io.Closer, error) {
	var writers []io.Writer
	var file *lumberjack.Logger

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o750); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    1,
			MaxBackups: 2,
		}
		writers = append(writers, file)
	}

	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.TimeOnly,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	log.Logger = log.Output(io.MultiWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()

	return log.Logger, closer{file: file}, nil
}

type closer struct {
	file *lumberjack.Logger
}

func (c closer) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// Adapter implements the Debug/Info/Error logger of the library packages on
// top of a zerolog.Logger. Key/value pairs become event fields.
type Adapter struct {
	logger zerolog.Logger
}

// NewAdapter wraps logger.
func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

func (a *Adapter) Debug(msg string, keysAndValues ...interface{}) {
	a.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error().Fields(keysAndValues).Msg(msg)
}

// LogError writes err at error level. At debug level the stack captured by
// merry is attached as well.
func LogError(logger zerolog.Logger, err error, msg string) {
	ev := logger.Error().Stack().Err(err)
	if logger.GetLevel() <= zerolog.DebugLevel {
		if stack := merry.Stacktrace(err); stack != "" {
			ev = ev.Str("trace", stack)
		}
	}
	ev.Msg(msg)
}
