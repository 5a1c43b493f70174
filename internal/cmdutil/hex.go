package cmdutil

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump layout: offset, 16 bytes per line, an extra space every 4 bytes.
const (
	lineSize  = 16
	groupSize = 4
)

// ParseHexBytes parses request bytes given as hexadecimal arguments such as
// "10", "0x51" or "f". Every argument must hold one byte.
func ParseHexBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for i, arg := range args {
		digits := strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		v, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not a hex byte", i+1, arg)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// Dump writes data as offset-prefixed hex lines:
//
//	0000: 55 ff 00 65  9a 01 fe  ...
func Dump(w io.Writer, data []byte) error {
	var b strings.Builder
	for i := 0; i < len(data); i += lineSize {
		end := min(i+lineSize, len(data))
		fmt.Fprintf(&b, "%04x: ", i)
		for j, c := range data[i:end] {
			fmt.Fprintf(&b, "%02x ", c)
			if (j+1)%groupSize == 0 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
