// Package srec decodes and encodes Motorola S-records and builds RCX
// firmware images from them.
//
// # Record Format
//
// Each record is one line of text:
//
//	S[TYPE][COUNT(2)][ADDRESS(4|6|8)][DATA(2 per byte)][CHECKSUM(2)]
//
// COUNT covers the address, data and checksum bytes. CHECKSUM is the one's
// complement of the 8-bit sum of the count, address and data bytes.
//
//	Type  Address  Use
//	S0    16 bit   header
//	S1    16 bit   data
//	S2    24 bit   data
//	S3    32 bit   data
//	S5    16 bit   record count
//	S7    32 bit   start address
//	S8    24 bit   start address
//	S9    16 bit   start address
//
// # Images
//
// ParseReader and Load place data records in the RCX firmware window
// (0x8000, 0x4C00 bytes) and return an Image:
//
//	img, err := srec.Load(afero.NewOsFs(), "firm0309.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("load 0x%04X, %d bytes, checksum 0x%04X\n",
//	    img.LoadAddress, img.Len(), img.Checksum())
//
// # Error Handling
//
// Decode returns errors wrapping ErrInvalidHeader, ErrInvalidChar,
// ErrInvalidType, ErrTooShort, ErrTooLong or ErrInvalidChecksum. While
// building an image, checksum failures skip the record; every other error
// stops the build with a *LineError naming the line.
package srec
