package srec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(l ...string) string {
	return strings.Join(l, "\n") + "\n"
}

func TestParseReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		opts        []Option
		loadAddress uint32
		data        []byte
		skipped     int
	}{
		{
			name:        "single data record",
			content:     lines("S0060000726378AC", "S1078000010203046E", "S90380007C"),
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "high water mark keeps zeros",
			content:     lines("S1078000010203046E", "S10780040000000074"),
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:        "library version header strips zeros",
			content:     lines("S01300003F4C49425F56455253494F4E5F4C303046", "S1078000010203046E", "S10780040000000074"),
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "strip option",
			content:     lines("S1078000010203046E", "S10780040000000074"),
			opts:        []Option{WithStripZeros(true)},
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "gap is zero filled",
			content:     lines("S1078000010203046E", "S1058010AABB05"),
			loadAddress: 0x8000,
			data: []byte{
				0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0xAA, 0xBB,
			},
		},
		{
			name:        "start address overrides load address",
			content:     lines("S1078000010203046E", "S90380106C"),
			loadAddress: 0x8010,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "32-bit start address",
			content:     lines("S1078000010203046E", "S705000080007A"),
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "bad checksum is skipped",
			content:     lines("S1078000010203046E", "S1058010AABB06"),
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
			skipped:     1,
		},
		{
			name:        "blank lines and CRLF",
			content:     "S1078000010203046E\r\n\r\n   \nS5030003F9\r\n",
			loadAddress: 0x8000,
			data:        []byte{0x01, 0x02, 0x03, 0x04},
		},
		{
			name:        "24 and 32-bit data records",
			content:     lines("S20600802005064E", "S306000080300742"),
			loadAddress: 0x8000,
			data:        append(append(make([]byte, 0x20), 0x05, 0x06), append(make([]byte, 0x0E), 0x07)...),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			img, err := ParseReader(strings.NewReader(tt.content), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, uint32(DefaultBase), img.Base)
			assert.Equal(t, tt.loadAddress, img.LoadAddress)
			assert.Equal(t, tt.data, img.Data)
			assert.Equal(t, len(tt.data), img.Len())
			assert.Equal(t, tt.skipped, img.Skipped)
		})
	}
}

func TestParseReaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		line    int
		wantErr error
	}{
		{name: "invalid type", content: lines("S1078000010203046E", "S4078000010203046E"), line: 2, wantErr: ErrInvalidType},
		{name: "invalid character", content: lines("S10780000102030G6E"), line: 1, wantErr: ErrInvalidChar},
		{name: "not a record", content: lines("", "hello"), line: 2, wantErr: ErrInvalidHeader},
		{name: "data past the window", content: lines("S106CBFE0102032A"), line: 1, wantErr: ErrAddressOutOfRange},
		{name: "data before the window", content: lines("S1047FFF017C"), line: 1, wantErr: ErrAddressOutOfRange},
		{name: "start address past the window", content: lines("S1078000010203046E", "S903CC012F"), line: 2, wantErr: ErrAddressOutOfRange},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseReader(strings.NewReader(tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var lineErr *LineError
			require.ErrorAs(t, err, &lineErr)
			assert.Equal(t, tt.line, lineErr.Line)
			assert.Contains(t, err.Error(), "line ")
		})
	}
}

func TestParseReaderEmptyImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		opts    []Option
	}{
		{name: "no records", content: ""},
		{name: "header only", content: lines("S0060000726378AC", "S90380007C")},
		{name: "only zeros when stripping", content: lines("S10780040000000074"), opts: []Option{WithStripZeros(true)}},
		{name: "only skipped records", content: lines("S1078000010203046F")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseReader(strings.NewReader(tt.content), tt.opts...)
			assert.ErrorIs(t, err, ErrEmptyImage)
		})
	}
}

func TestParseReaderWarning(t *testing.T) {
	t.Parallel()

	var warned []int
	img, err := ParseReader(
		strings.NewReader(lines("S1078000010203046F", "S1078000010203046E", "S1058010AABB06")),
		WithWarning(func(line int, err error) {
			assert.ErrorIs(t, err, ErrInvalidChecksum)
			warned = append(warned, line)
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, warned)
	assert.Equal(t, 2, img.Skipped)
}

func TestParseReaderWindow(t *testing.T) {
	t.Parallel()

	img, err := ParseReader(strings.NewReader(lines(validS1)), WithWindow(0x0000, 0x100))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), img.Base)
	assert.Equal(t, 16, img.Len())

	_, err = ParseReader(strings.NewReader(lines("S1078000010203046E")), WithWindow(0x0000, 0x100))
	assert.ErrorIs(t, err, ErrAddressOutOfRange)
}

func TestImageChecksum(t *testing.T) {
	t.Parallel()

	img := &Image{Data: []byte{0xFF, 0xFF, 0x02}}
	assert.Equal(t, uint16(0x0200), img.Checksum())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/firmware/prog.srec",
		[]byte(lines("S1078000010203046E", "S90380106C")), 0o644))

	img, err := Load(fs, "/firmware/prog.srec")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, img.Data)
	assert.Equal(t, uint32(0x8010), img.LoadAddress)

	_, err = Load(fs, "/firmware/missing.srec")
	assert.ErrorContains(t, err, "failed to open file")
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i*7 + 1)
	}
	img := &Image{Base: DefaultBase, LoadAddress: 0x8010, Data: data}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img))
	assert.True(t, strings.HasPrefix(buf.String(), "S0"))

	got, err := ParseReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.LoadAddress, got.LoadAddress)
	assert.Equal(t, img.Data, got.Data)
	assert.Equal(t, img.Checksum(), got.Checksum())
}
