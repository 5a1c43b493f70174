package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildEraseCmd constructs the payload that erases the resident firmware.
//
// Payload structure:
//
//	[65][01][03][05][07][0B]
func BuildEraseCmd() []byte {
	cmd := make([]byte, 0, 1+len(eraseKey))
	cmd = append(cmd, OpErase)
	return append(cmd, eraseKey...)
}

// BuildAnnounceCmd constructs the payload that starts a download.
// loadAddr is where the image is placed and checksum is the 16-bit sum of
// every image byte.
//
// Payload structure:
//
//	[75][ADDR_L][ADDR_H][SUM_L][SUM_H][00]
func BuildAnnounceCmd(loadAddr uint16, checksum uint16) []byte {
	cmd := make([]byte, 6)
	cmd[0] = OpAnnounce
	binary.LittleEndian.PutUint16(cmd[1:3], loadAddr)
	binary.LittleEndian.PutUint16(cmd[3:5], checksum)
	cmd[5] = 0x00
	return cmd
}

// BuildTransferCmd constructs the payload for one image block.
//
// The opcode toggles bit 3 with the low bit of block. The block number field
// carries block, except on the last block where it carries LastBlock.
//
// Payload structure:
//
//	[45|T<<3][BLOCK_L][BLOCK_H][SIZE_L][SIZE_H][DATA...][SUM]
//
// Returns an error if data is empty or larger than MaxChunkSize.
func BuildTransferCmd(block uint16, last bool, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("transfer block cannot be empty")
	}
	if len(data) > MaxChunkSize {
		return nil, fmt.Errorf("transfer block too large: %d bytes (max %d)", len(data), MaxChunkSize)
	}

	number := block
	if last {
		number = LastBlock
	}

	cmd := make([]byte, 5, transferOverhead+len(data))
	cmd[0] = OpTransfer
	if block&1 == 1 {
		cmd[0] |= transferToggle
	}
	binary.LittleEndian.PutUint16(cmd[1:3], number)
	binary.LittleEndian.PutUint16(cmd[3:5], uint16(len(data)))
	cmd = append(cmd, data...)
	cmd = append(cmd, Sum8(data))

	return cmd, nil
}

// BuildUnlockCmd constructs the payload that unlocks and starts the
// downloaded firmware.
//
// Payload structure:
//
//	[A5][4C][45][47][4F][AE]
func BuildUnlockCmd() []byte {
	cmd := make([]byte, 0, 1+len(unlockKey))
	cmd = append(cmd, OpUnlock)
	return append(cmd, unlockKey...)
}
