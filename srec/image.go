package srec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/moffa90/go-rcx/protocol"
	"github.com/spf13/afero"
)

// RCX firmware window.
const (
	// DefaultBase is the first address of the firmware window
	DefaultBase = 0x8000

	// DefaultSize is the length of the firmware window in bytes
	DefaultSize = 0x4C00
)

// libraryVersion marks an S0 header of a firmware image padded with zeros.
// Images carrying it are trimmed to their last non-zero byte.
const libraryVersion = "?LIB_VERSION_L00"

// Image is a firmware image ready for download.
type Image struct {
	// Base is the first address of the window the image was built in
	Base uint32

	// LoadAddress is where the firmware starts; Base unless a start
	// address record overrides it
	LoadAddress uint32

	// Data holds the image bytes from Base up to the image length
	Data []byte

	// Skipped counts records dropped for a bad checksum
	Skipped int
}

// Len returns the image length in bytes.
func (img *Image) Len() int {
	return len(img.Data)
}

// Checksum returns the 16-bit sum of the image bytes.
func (img *Image) Checksum() uint16 {
	return protocol.Sum16(img.Data)
}

// WarningFunc is called for every record skipped during an image build.
type WarningFunc func(line int, err error)

type buildConfig struct {
	base       uint32
	size       uint32
	stripZeros bool
	warn       WarningFunc
}

// Option configures an image build.
type Option func(*buildConfig)

// WithWindow sets the address window images are built in.
// Default is DefaultBase and DefaultSize.
func WithWindow(base, size uint32) Option {
	return func(c *buildConfig) {
		if size > 0 {
			c.base = base
			c.size = size
		}
	}
}

// WithStripZeros trims trailing zero bytes from the image even without a
// library version header.
func WithStripZeros(strip bool) Option {
	return func(c *buildConfig) {
		c.stripZeros = strip
	}
}

// WithWarning sets a callback for records skipped because of a bad checksum.
//
// Example:
//
//	img, err := srec.ParseReader(r, srec.WithWarning(func(line int, err error) {
//	    log.Printf("skipping line %d: %v", line, err)
//	}))
func WithWarning(fn WarningFunc) Option {
	return func(c *buildConfig) {
		c.warn = fn
	}
}

// Load builds an image from an S-record file.
//
// Example:
//
//	img, err := srec.Load(afero.NewOsFs(), "firm0309.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes at 0x%04X\n", img.Len(), img.LoadAddress)
func Load(fs afero.Fs, path string, opts ...Option) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f, opts...)
}

// ParseReader builds an image from S-records read from r.
//
// Data records (S1, S2, S3) are copied into the window and must fit inside
// it. Start address records (S7, S8, S9) set the load address. Records with
// a bad checksum are skipped and reported through WithWarning; every other
// decode error aborts with a *LineError.
func ParseReader(r io.Reader, opts ...Option) (*Image, error) {
	cfg := buildConfig{
		base: DefaultBase,
		size: DefaultSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	window := make([]byte, cfg.size)
	img := &Image{
		Base:        cfg.base,
		LoadAddress: cfg.base,
	}
	strip := cfg.stripZeros
	high := 0

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Skip empty lines
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := Decode(line)
		if errors.Is(err, ErrInvalidChecksum) {
			img.Skipped++
			if cfg.warn != nil {
				cfg.warn(lineNum, err)
			}
			continue
		}
		if err != nil {
			return nil, &LineError{Line: lineNum, Err: err}
		}

		switch rec.Type {
		case 0:
			if bytes.Equal(rec.Data, []byte(libraryVersion)) {
				strip = true
			}

		case 1, 2, 3:
			end := uint64(rec.Address) + uint64(len(rec.Data))
			if rec.Address < cfg.base || end > uint64(cfg.base)+uint64(cfg.size) {
				return nil, &LineError{Line: lineNum, Err: fmt.Errorf(
					"%w: data at 0x%04X-0x%04X outside 0x%04X-0x%04X",
					ErrAddressOutOfRange, rec.Address, end, cfg.base, cfg.base+cfg.size)}
			}
			offset := int(rec.Address - cfg.base)
			copy(window[offset:], rec.Data)
			high = max(high, offset+len(rec.Data))

		case 7, 8, 9:
			if rec.Address < cfg.base || uint64(rec.Address) > uint64(cfg.base)+uint64(cfg.size) {
				return nil, &LineError{Line: lineNum, Err: fmt.Errorf(
					"%w: start address 0x%04X outside 0x%04X-0x%04X",
					ErrAddressOutOfRange, rec.Address, cfg.base, cfg.base+cfg.size)}
			}
			img.LoadAddress = rec.Address
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	length := high
	if strip {
		for length > 0 && window[length-1] == 0 {
			length--
		}
	}
	if length == 0 {
		return nil, ErrEmptyImage
	}

	img.Data = window[:length:length]

	return img, nil
}

// Write encodes img as S-records: an S0 header, S1 data records of
// MaxDataSize bytes and an S9 record carrying the load address.
func Write(w io.Writer, img *Image) error {
	bw := bufio.NewWriter(w)

	records := make([]Record, 0, 2+(img.Len()+MaxDataSize-1)/MaxDataSize)
	records = append(records, Record{Type: 0, Data: []byte("rcx")})
	for off := 0; off < img.Len(); off += MaxDataSize {
		end := min(off+MaxDataSize, img.Len())
		records = append(records, Record{
			Type:    1,
			Address: img.Base + uint32(off),
			Data:    img.Data[off:end],
		})
	}
	records = append(records, Record{Type: 9, Address: img.LoadAddress})

	for _, rec := range records {
		line, err := Encode(rec)
		if err != nil {
			return err
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
