package download

import (
	"github.com/jonboulle/clockwork"

	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
)

// Config holds the downloader configuration.
type Config struct {
	// ProgressCallback is called during a download to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Trace receives every link attempt (optional)
	Trace link.TraceFunc

	// Clock measures elapsed time
	Clock clockwork.Clock

	// ChunkSize is the number of image bytes per transfer block
	ChunkSize int

	// Attempts is the number of attempts per command
	Attempts int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Clock:     clockwork.NewRealClock(),
		ChunkSize: protocol.DefaultChunkSize,
		Attempts:  link.DefaultAttempts,
	}
}

// Option is a functional option for configuring the Downloader.
type Option func(*Config)

// WithProgressCallback sets a callback function to track download progress.
//
// Example:
//
//	dl := download.New(port,
//	    download.WithProgressCallback(func(p download.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for download and link operations.
//
// Example:
//
//	dl := download.New(port, download.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTrace sets a callback receiving every link attempt.
func WithTrace(fn link.TraceFunc) Option {
	return func(c *Config) {
		c.Trace = fn
	}
}

// WithClock replaces the clock used for elapsed time. Tests pass a
// clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithChunkSize sets the number of image bytes per transfer block.
// Default is 200. Values outside 1..protocol.MaxChunkSize are ignored.
//
// Example:
//
//	dl := download.New(port, download.WithChunkSize(100))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= protocol.MaxChunkSize {
			c.ChunkSize = size
		}
	}
}

// WithAttempts sets the number of attempts per command.
// Default is 5. Values below 1 are ignored.
//
// Example:
//
//	dl := download.New(port, download.WithAttempts(10))
func WithAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.Attempts = attempts
		}
	}
}
