package protocol

// Sum8 returns the 8-bit wraparound sum of data.
// Frame and transfer block checksums use it.
func Sum8(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Sum16 returns the 16-bit wraparound sum of data.
// The download announce carries it as the image checksum.
func Sum16(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// complementPairs checks byte pairs (b, ^b) and returns the first byte of
// each pair together with their 8-bit sum. ok is false when a pair does not
// match or a byte is left unpaired.
func complementPairs(data []byte) (decoded []byte, sum byte, ok bool) {
	if len(data)%2 != 0 {
		return nil, 0, false
	}

	decoded = make([]byte, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		if data[i] != ^data[i+1] {
			return nil, 0, false
		}
		decoded = append(decoded, data[i])
		sum += data[i]
	}

	return decoded, sum, true
}
