package srec

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

var recordTypes = []byte{0, 1, 2, 3, 5, 7, 8, 9}

func recordGen() *rapid.Generator[Record] {
	return rapid.Custom(func(t *rapid.T) Record {
		typ := rapid.SampledFrom(recordTypes).Draw(t, "type")
		width := AddressLen(typ)
		var addr uint32
		if width == 4 {
			addr = rapid.Uint32().Draw(t, "address")
		} else {
			addr = rapid.Uint32Range(0, 1<<(8*width)-1).Draw(t, "address")
		}
		data := rapid.SliceOfN(rapid.Byte(), 0, MaxDataSize).Draw(t, "data")
		return Record{Type: typ, Address: addr, Data: data}
	})
}

// TestPropertyRecordRoundTrip verifies decode(encode(r)) == r.
func TestPropertyRecordRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		rec := recordGen().Draw(t, "record")

		line, err := Encode(rec)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := Decode(line)
		if err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}

		if got.Type != rec.Type || got.Address != rec.Address || !bytes.Equal(got.Data, rec.Data) {
			t.Fatalf("round trip mismatch: %+v -> %q -> %+v", rec, line, got)
		}
		if got.Count() != rec.Count() {
			t.Fatalf("count = %d, want %d", got.Count(), rec.Count())
		}
	})
}

// TestPropertyCountMismatch verifies that a byte count disagreeing with the
// line length is always reported as too short or too long.
func TestPropertyCountMismatch(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		rec := recordGen().Draw(t, "record")
		line, err := Encode(rec)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		count := rec.Count()
		wrong := rapid.IntRange(0, 0xFF).Filter(func(c int) bool { return c != count }).Draw(t, "count")
		corrupted := line[:2] + fmt.Sprintf("%02X", wrong) + line[4:]

		_, err = Decode(corrupted)
		if wrong < count && !errors.Is(err, ErrTooLong) {
			t.Fatalf("count 0x%02X < 0x%02X: got %v, want too long", wrong, count, err)
		}
		if wrong > count && !errors.Is(err, ErrTooShort) {
			t.Fatalf("count 0x%02X > 0x%02X: got %v, want too short", wrong, count, err)
		}
	})
}

// TestPropertyDroppedCharacter verifies that removing hex digits from a
// record never decodes silently.
func TestPropertyDroppedCharacter(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		rec := recordGen().Draw(t, "record")
		line, _ := Encode(rec)

		cut := rapid.IntRange(1, len(line)-4).Draw(t, "cut")
		_, err := Decode(line[:len(line)-cut])
		if err == nil {
			t.Fatalf("truncated line %q decoded", line[:len(line)-cut])
		}
		if !errors.Is(err, ErrTooShort) && !errors.Is(err, ErrInvalidHeader) {
			t.Fatalf("truncated line %q: got %v, want too short", line[:len(line)-cut], err)
		}
	})
}
