package srec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Record format limits.
const (
	// MaxCount is the largest byte count a record may declare
	MaxCount = 37

	// MaxDataSize is the largest number of data bytes in one record
	MaxDataSize = 32

	// minLineLength is "S" + type + count(2)
	minLineLength = 4
)

// addressLength maps a record type to its address width in bytes.
// Types 4 and 6 are unused.
var addressLength = [10]int{
	0: 2, 1: 2, 2: 3, 3: 4,
	5: 2, 7: 4, 8: 3, 9: 2,
}

// Record is one decoded S-record line.
type Record struct {
	// Type is the record type, 0 to 9
	Type byte

	// Address is the record address; its width depends on Type
	Address uint32

	// Data holds at most MaxDataSize bytes
	Data []byte
}

// AddressLen returns the address width in bytes for the record type, or 0
// for an unknown type.
func (r Record) AddressLen() int {
	return AddressLen(r.Type)
}

// Count returns the byte count field of the encoded record: address, data
// and checksum bytes.
func (r Record) Count() int {
	return r.AddressLen() + len(r.Data) + 1
}

// AddressLen returns the address width in bytes for record type t, or 0 for
// an unknown type.
func AddressLen(t byte) int {
	if int(t) >= len(addressLength) {
		return 0
	}
	return addressLength[t]
}

// Decode parses a single S-record line. Trailing line terminators are
// ignored. Checks run in this order and the first failure is returned:
// header, characters, type, short line, long line, checksum.
//
// Example:
//
//	rec, err := srec.Decode("S1130000285F245F2212226A000424290008237C2A")
//	// rec.Type == 1, rec.Address == 0x0000, len(rec.Data) == 16
func Decode(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	if len(line) < minLineLength || line[0] != 'S' {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
	}

	for i := 1; i < len(line); i++ {
		if !isHex(line[i]) {
			return Record{}, fmt.Errorf("%w: %q at column %d", ErrInvalidChar, line[i], i+1)
		}
	}

	typ := line[1] - '0'
	if AddressLen(typ) == 0 {
		return Record{}, fmt.Errorf("%w: S%c", ErrInvalidType, line[1])
	}

	addrLen := AddressLen(typ)
	count := int(hexByte(line[2], line[3]))

	if len(line) < 2*addrLen+6 || len(line) < 2*count+4 {
		return Record{}, fmt.Errorf("%w: %d characters for count 0x%02X", ErrTooShort, len(line), count)
	}
	if count > MaxCount || len(line) > 2*count+4 {
		return Record{}, fmt.Errorf("%w: %d characters for count 0x%02X", ErrTooLong, len(line), count)
	}
	if dataLen := count - addrLen - 1; dataLen > MaxDataSize {
		return Record{}, fmt.Errorf("%w: %d data bytes (max %d)", ErrTooLong, dataLen, MaxDataSize)
	}

	raw, err := hex.DecodeString(line[2:])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidChar, err)
	}

	var sum byte
	for _, b := range raw {
		sum += b
	}
	if sum != 0xFF {
		return Record{}, fmt.Errorf("%w: sum 0x%02X", ErrInvalidChecksum, sum)
	}

	var addr uint32
	for _, b := range raw[1 : 1+addrLen] {
		addr = addr<<8 | uint32(b)
	}

	data := raw[1+addrLen : len(raw)-1]
	rec := Record{
		Type:    typ,
		Address: addr,
		Data:    make([]byte, len(data)),
	}
	copy(rec.Data, data)

	return rec, nil
}

// Encode formats r as an S-record line without a line terminator.
// It fails for unknown types, more than MaxDataSize data bytes or an
// address that does not fit the type's address width.
func Encode(r Record) (string, error) {
	addrLen := r.AddressLen()
	if addrLen == 0 {
		return "", fmt.Errorf("%w: S%d", ErrInvalidType, r.Type)
	}
	if len(r.Data) > MaxDataSize {
		return "", fmt.Errorf("%w: %d data bytes (max %d)", ErrTooLong, len(r.Data), MaxDataSize)
	}
	if addrLen < 4 && r.Address >= 1<<(8*addrLen) {
		return "", fmt.Errorf("%w: 0x%X does not fit in %d bytes", ErrAddressOutOfRange, r.Address, addrLen)
	}

	raw := make([]byte, 0, 1+addrLen+len(r.Data)+1)
	raw = append(raw, byte(r.Count()))
	for i := addrLen - 1; i >= 0; i-- {
		raw = append(raw, byte(r.Address>>(8*i)))
	}
	raw = append(raw, r.Data...)

	var sum byte
	for _, b := range raw {
		sum += b
	}
	raw = append(raw, ^sum)

	return fmt.Sprintf("S%d%s", r.Type, strings.ToUpper(hex.EncodeToString(raw))), nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func hexNibble(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

func hexByte(hi, lo byte) byte {
	return hexNibble(hi)<<4 | hexNibble(lo)
}
