package protocol

// Variant selects one of the two framings spoken over the IR tower.
// The zero value is not usable; use VariantDownload or VariantRequestReply.
type Variant struct {
	name string

	// header is sent verbatim ahead of the payload
	header []byte

	// irLayer means the frame is a plain packet (header, payload, single
	// checksum byte) that the IR layer encodes by following every byte
	// after the first with its complement. Otherwise the payload and the
	// checksum are complemented directly behind a three byte header.
	irLayer bool

	// shortEcho reports a truncated echo as ShortEcho instead of BadEcho
	shortEcho bool
}

// VariantDownload frames firmware download commands:
//
//	[55][FF][00][P0][~P0]...[Pn][~Pn][SUM][~SUM]
var VariantDownload = Variant{
	name:   "download",
	header: []byte{HeaderStart, HeaderSync, HeaderSyncComplement},
}

// VariantRequestReply frames single requests to the RCX executive.
// The packet is:
//
//	[55][FF][P0]...[Pn][SUM]
//
// and every byte after the first goes out followed by its complement.
var VariantRequestReply = Variant{
	name:      "request-reply",
	header:    []byte{HeaderStart, HeaderSync},
	irLayer:   true,
	shortEcho: true,
}

// String returns the variant name.
func (v Variant) String() string {
	return v.name
}

// MaxPayload returns the largest payload Encode accepts for this variant.
func (v Variant) MaxPayload() int {
	return maxPayload
}

// Encode builds the frame for payload. The checksum is the 8-bit sum of the
// payload bytes before any complement encoding. Encode never truncates: a
// payload whose frame would exceed MaxFrameSize is rejected with a
// *PayloadTooLargeError.
//
// Example:
//
//	frame, err := protocol.Encode([]byte{0x65, 0x01, 0x03, 0x05, 0x07, 0x0B}, protocol.VariantDownload)
//	// 55 FF 00 65 9A 01 FE 03 FC 05 FA 07 F8 0B F4 80 7F
func Encode(payload []byte, v Variant) ([]byte, error) {
	if len(v.header) == 0 {
		return nil, ErrUnknownVariant
	}
	if len(payload) > v.MaxPayload() {
		return nil, &PayloadTooLargeError{Size: len(payload), Max: v.MaxPayload()}
	}

	checksum := Sum8(payload)

	if v.irLayer {
		packet := make([]byte, 0, len(v.header)+len(payload)+1)
		packet = append(packet, v.header...)
		packet = append(packet, payload...)
		packet = append(packet, checksum)
		return irEncode(packet), nil
	}

	frame := make([]byte, 0, len(v.header)+2*len(payload)+2)
	frame = append(frame, v.header...)
	for _, b := range payload {
		frame = append(frame, b, ^b)
	}
	frame = append(frame, checksum, ^checksum)

	return frame, nil
}

// irEncode sends the first byte as is and every following byte together
// with its complement.
func irEncode(packet []byte) []byte {
	if len(packet) == 0 {
		return nil
	}

	out := make([]byte, 0, 2*len(packet)-1)
	out = append(out, packet[0])
	for _, b := range packet[1:] {
		out = append(out, b, ^b)
	}
	return out
}

// irDecode reverses irEncode. ok is false when a complement does not match
// or the last byte is unpaired.
func irDecode(data []byte) (packet []byte, ok bool) {
	if len(data) == 0 {
		return nil, false
	}

	rest, _, ok := complementPairs(data[1:])
	if !ok {
		return nil, false
	}

	packet = make([]byte, 0, len(rest)+1)
	packet = append(packet, data[0])
	return append(packet, rest...), true
}
