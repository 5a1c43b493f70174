package transport

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ansel1/merry/v2"
	"go.bug.st/serial"
)

// EnvDevice names the environment variable overriding the tower device.
const EnvDevice = "RCX_IR"

// Serial line defaults of the IR tower.
const (
	DefaultBaudRate    = 2400
	DefaultDataBits    = 8
	DefaultByteTimeout = 100 * time.Millisecond
)

// DefaultDevice returns the compiled-in tower device for this platform.
func DefaultDevice() string {
	if runtime.GOOS == "windows" {
		return "COM1"
	}
	return "/dev/ttyS0"
}

// DevicePath returns $RCX_IR, or DefaultDevice when it is unset.
func DevicePath() string {
	if dev := os.Getenv(EnvDevice); dev != "" {
		return dev
	}
	return DefaultDevice()
}

// Settings describe the serial line to the tower.
type Settings struct {
	// Device is the serial device path
	Device string

	// BaudRate is the line speed; the tower talks 2400 baud
	BaudRate int

	// ByteTimeout ends a receive sequence when no byte arrives in time
	ByteTimeout time.Duration
}

// DefaultSettings returns the tower settings with the device taken from
// DevicePath.
func DefaultSettings() Settings {
	return Settings{
		Device:      DevicePath(),
		BaudRate:    DefaultBaudRate,
		ByteTimeout: DefaultByteTimeout,
	}
}

// Mode returns the serial mode for s: 8 data bits, odd parity, one stop bit.
func (s Settings) Mode() *serial.Mode {
	baud := s.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: DefaultDataBits,
		Parity:   serial.OddParity,
		StopBits: serial.OneStopBit,
	}
}

// SerialPort defines the serial port operations used here (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory is the default factory that opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	factory SerialPortFactory
}

// WithPortFactory replaces the function used to open the serial port.
func WithPortFactory(f SerialPortFactory) Option {
	return func(c *openConfig) {
		if f != nil {
			c.factory = f
		}
	}
}

// Port is an open connection to the IR tower. A Read that times out
// returns 0 bytes and a nil error, which ends a receive sequence.
type Port struct {
	port   SerialPort
	device string
}

// Open opens the tower described by s.
//
// Example:
//
//	port, err := transport.Open(transport.DefaultSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
func Open(s Settings, opts ...Option) (*Port, error) {
	cfg := openConfig{factory: DefaultSerialPortFactory}
	for _, opt := range opts {
		opt(&cfg)
	}

	if s.Device == "" {
		return nil, merry.New("no tower device configured")
	}

	port, err := cfg.factory(s.Device, s.Mode())
	if err != nil {
		return nil, merry.Wrap(fmt.Errorf("open %s: %w", s.Device, err))
	}

	timeout := s.ByteTimeout
	if timeout <= 0 {
		timeout = DefaultByteTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		_ = port.Close()
		return nil, merry.Wrap(fmt.Errorf("set read timeout on %s: %w", s.Device, err))
	}

	return &Port{port: port, device: s.Device}, nil
}

// Device returns the device path the port was opened on.
func (p *Port) Device() string {
	return p.device
}

func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port.
func (p *Port) Close() error {
	return p.port.Close()
}
