// Package config loads the settings shared by the rcx command line tools.
//
// Values start from the built-in defaults, a TOML file is read on top of
// them, and $RCX_IR overrides the device. Command line flags are applied by
// the caller afterwards and checked again with Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
	"github.com/moffa90/go-rcx/transport"
)

// EnvConfig names the environment variable pointing at a config file.
const EnvConfig = "RCX_CONFIG"

// Values are the tool settings.
type Values struct {
	Device        string `toml:"device" validate:"required"`
	BaudRate      int    `toml:"baud_rate" validate:"oneof=2400 4800"`
	ByteTimeoutMS int    `toml:"byte_timeout_ms" validate:"min=1,max=10000"`
	Attempts      int    `toml:"attempts" validate:"min=1,max=100"`
	ChunkSize     int    `toml:"chunk_size" validate:"chunksize"`
	StripZeros    bool   `toml:"strip_zeros"`
	DebugLogging  bool   `toml:"debug_logging"`
	LogFile       string `toml:"log_file,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() Values {
	return Values{
		Device:        transport.DefaultDevice(),
		BaudRate:      transport.DefaultBaudRate,
		ByteTimeoutMS: int(transport.DefaultByteTimeout / time.Millisecond),
		Attempts:      link.DefaultAttempts,
		ChunkSize:     protocol.DefaultChunkSize,
	}
}

// ByteTimeout returns the byte timeout as a duration.
func (v Values) ByteTimeout() time.Duration {
	return time.Duration(v.ByteTimeoutMS) * time.Millisecond
}

// Settings returns the serial settings for the tower.
func (v Values) Settings() transport.Settings {
	return transport.Settings{
		Device:      v.Device,
		BaudRate:    v.BaudRate,
		ByteTimeout: v.ByteTimeout(),
	}
}

// Load reads the config file at path, or at $RCX_CONFIG when path is empty.
// Without either the defaults are used. $RCX_IR overrides the device.
func Load(fs afero.Fs, path string) (Values, error) {
	return LoadWithDefaults(fs, path, Defaults())
}

// LoadWithDefaults is Load starting from defaults instead of Defaults().
func LoadWithDefaults(fs afero.Fs, path string, defaults Values) (Values, error) {
	vals := defaults

	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return Values{}, fmt.Errorf("failed to read config file: %w", err)
		}

		// Start with defaults, then unmarshal file values on top.
		err = toml.Unmarshal(data, &vals)
		if err != nil {
			return Values{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if dev := os.Getenv(transport.EnvDevice); dev != "" {
		vals.Device = dev
	}

	if err := Validate(vals); err != nil {
		return Values{}, err
	}

	return vals, nil
}

// Save writes vals to path as TOML.
func Save(fs afero.Fs, path string, vals Values) error {
	data, err := toml.Marshal(&vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("chunksize", validateChunkSize)
	return v
}

// validateChunkSize checks that a transfer block fits in one frame.
func validateChunkSize(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 1 && n <= protocol.MaxChunkSize
}

// Validate checks vals and names every offending key.
func Validate(vals Values) error {
	err := validate.Struct(vals)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
