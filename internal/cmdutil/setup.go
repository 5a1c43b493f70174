package cmdutil

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-rcx/internal/config"
	"github.com/moffa90/go-rcx/internal/logging"
)

// Session is the configuration and logger of one tool run.
type Session struct {
	Config config.Values
	Logger zerolog.Logger

	closer io.Closer
}

// Setup loads the config on top of defaults, applies the flags that were
// set on the command line and starts logging on the app's error writer.
func Setup(c *cli.Context, fs afero.Fs, defaults config.Values) (*Session, error) {
	vals, err := config.LoadWithDefaults(fs, c.String(FlagConfig), defaults)
	if err != nil {
		return nil, err
	}

	ApplyFlags(c, &vals)
	if err := config.Validate(vals); err != nil {
		return nil, err
	}

	logger, closer, err := logging.Init(logging.Options{
		Console: c.App.ErrWriter,
		File:    vals.LogFile,
		Debug:   vals.DebugLogging,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("device", vals.Device).
		Int("attempts", vals.Attempts).
		Int("chunk_size", vals.ChunkSize).
		Msg("configuration loaded")

	return &Session{Config: vals, Logger: logger, closer: closer}, nil
}

// ApplyFlags copies explicitly set flags over vals.
func ApplyFlags(c *cli.Context, vals *config.Values) {
	if c.IsSet(FlagDevice) {
		vals.Device = c.String(FlagDevice)
	}
	if c.IsSet(FlagAttempts) {
		vals.Attempts = c.Int(FlagAttempts)
	}
	if c.IsSet(FlagChunkSize) {
		vals.ChunkSize = c.Int(FlagChunkSize)
	}
	if c.IsSet(FlagStripZeros) {
		vals.StripZeros = c.Bool(FlagStripZeros)
	}
	if c.IsSet(FlagDebug) {
		vals.DebugLogging = c.Bool(FlagDebug)
	}
	if c.IsSet(FlagLogFile) {
		vals.LogFile = c.String(FlagLogFile)
	}
}

// Adapter returns the session logger for the library packages.
func (s *Session) Adapter() *logging.Adapter {
	return logging.NewAdapter(s.Logger)
}

// Close closes the log file.
func (s *Session) Close() error {
	return s.closer.Close()
}
