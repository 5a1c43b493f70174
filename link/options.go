package link

import "github.com/moffa90/go-rcx/protocol"

// DefaultAttempts is the number of attempts per exchange.
const DefaultAttempts = 5

// Config holds the link configuration.
type Config struct {
	// Attempts is the maximum number of send/receive cycles per exchange
	Attempts int

	// Logger is used for logging failed attempts (optional)
	Logger Logger

	// Trace is called after every attempt (optional)
	Trace TraceFunc
}

func defaultConfig() Config {
	return Config{
		Attempts: DefaultAttempts,
	}
}

// Option is a functional option for configuring a Link.
type Option func(*Config)

// WithAttempts sets the maximum number of attempts per exchange.
// Values below 1 are ignored.
//
// Example:
//
//	l := link.New(port, link.WithAttempts(1))
func WithAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.Attempts = attempts
		}
	}
}

// WithLogger sets a logger for failed attempts.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTrace sets a callback receiving every attempt, for diagnostic dumps.
//
// Example:
//
//	l := link.New(port, link.WithTrace(func(a link.Attempt) {
//	    fmt.Printf("attempt %d: %s\n", a.Number, a.Reply.Outcome)
//	}))
func WithTrace(fn TraceFunc) Option {
	return func(c *Config) {
		c.Trace = fn
	}
}

// Attempt describes one send/receive cycle.
type Attempt struct {
	// Number counts attempts from 1
	Number int

	// Frame is the frame that was written
	Frame []byte

	// Received is everything read back, echo included
	Received []byte

	// Reply is the classification of Received
	Reply protocol.Reply
}

// TraceFunc receives every attempt. The slices belong to the callback.
type TraceFunc func(Attempt)

// Logger is an optional logging interface that can be provided to a Link.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
