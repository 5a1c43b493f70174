// Package rcxsim simulates an IR tower with an RCX in front of it.
//
// The Device echoes every frame written to it like the tower does and then
// answers the way the RCX ROM answers download and executive commands. It
// keeps the downloaded image so tests can check what arrived, and it can be
// told to misbehave on upcoming writes to exercise retries.
package rcxsim

import (
	"bytes"
	"encoding/binary"

	"github.com/moffa90/go-rcx/protocol"
)

// Transfer status bytes returned by the ROM.
const (
	StatusOK            = 0x00
	StatusNotReady      = 0x01
	StatusBlockChecksum = 0x03
	StatusImageChecksum = 0x04
)

// Fault disturbs the handling of a single write.
type Fault int

const (
	// None handles the write normally
	None Fault = iota

	// Silent returns nothing, not even the echo
	Silent

	// EchoOnly returns the echo; the RCX did not hear the command
	EchoOnly

	// CorruptEcho damages the last echoed byte; the command is lost
	CorruptEcho

	// CorruptReply changes a reply byte and its complement so only the
	// checksum catches it; the command is executed
	CorruptReply

	// BreakComplement damages the complement of the first reply byte;
	// the command is executed
	BreakComplement

	// ExtraByte appends a byte to an otherwise valid reply; the command
	// is executed
	ExtraByte
)

// Block records one transfer command accepted by the device.
type Block struct {
	Number uint16
	Toggle bool
	Size   int
}

// Device is an in-memory tower and RCX. It is not safe for concurrent use.
type Device struct {
	pending []byte
	faults  []Fault
	frames  [][]byte

	erased      bool
	announced   bool
	loadAddress uint16
	checksum    uint16
	image       []byte
	blocks      []Block
	lastToggle  int
	running     bool
}

// New returns a device with resident firmware and no download in progress.
func New() *Device {
	return &Device{lastToggle: -1}
}

// Inject queues faults for the next writes, one per write.
func (d *Device) Inject(faults ...Fault) {
	d.faults = append(d.faults, faults...)
}

// Write handles one frame from the host.
func (d *Device) Write(p []byte) (int, error) {
	frame := append([]byte(nil), p...)
	d.frames = append(d.frames, frame)

	fault := None
	if len(d.faults) > 0 {
		fault = d.faults[0]
		d.faults = d.faults[1:]
	}

	switch fault {
	case Silent:
		d.pending = nil
		return len(p), nil
	case EchoOnly:
		d.pending = append([]byte(nil), frame...)
		return len(p), nil
	case CorruptEcho:
		d.pending = append([]byte(nil), frame...)
		d.pending[len(d.pending)-1] ^= 0xFF
		return len(p), nil
	}

	d.pending = append([]byte(nil), frame...)

	// A frame without its echo decodes like a reply.
	cmd := protocol.Validate(nil, frame, protocol.VariantDownload)
	if !cmd.OK() || len(cmd.Payload) == 0 {
		return len(p), nil
	}

	reply := d.handle(cmd.Payload)
	if reply == nil {
		return len(p), nil
	}
	if fault == ExtraByte {
		reply = append(reply, 0x00)
	}

	encoded, err := protocol.Encode(reply, protocol.VariantDownload)
	if err != nil {
		return 0, err
	}
	switch fault {
	case CorruptReply:
		encoded[3] ^= 0x01
		encoded[4] = ^encoded[3]
	case BreakComplement:
		encoded[4] ^= 0x01
	}

	d.pending = append(d.pending, encoded...)
	return len(p), nil
}

// Read returns pending echo and reply bytes, and 0 bytes once they are
// drained, like a serial port whose read timed out.
func (d *Device) Read(p []byte) (int, error) {
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Close does nothing.
func (d *Device) Close() error {
	return nil
}

// handle executes a command payload and returns the reply payload, or nil
// for commands the ROM does not answer.
func (d *Device) handle(cmd []byte) []byte {
	op := cmd[0]
	ack := ^op

	switch op &^ 0x08 {
	case protocol.OpErase:
		if !bytes.Equal(cmd, protocol.BuildEraseCmd()) {
			return nil
		}
		d.erased = true
		d.announced = false
		d.running = false
		d.image = nil
		d.blocks = nil
		return []byte{ack}

	case protocol.OpAnnounce:
		if len(cmd) != 6 {
			return nil
		}
		if !d.erased {
			return []byte{ack, StatusNotReady}
		}
		d.announced = true
		d.loadAddress = binary.LittleEndian.Uint16(cmd[1:3])
		d.checksum = binary.LittleEndian.Uint16(cmd[3:5])
		d.image = d.image[:0]
		d.blocks = nil
		d.lastToggle = -1
		return []byte{ack, StatusOK}

	case protocol.OpTransfer:
		return []byte{ack, d.transfer(cmd)}

	case protocol.OpUnlock:
		if !bytes.Equal(cmd, protocol.BuildUnlockCmd()) {
			return nil
		}
		d.running = true
		return append([]byte{ack}, protocol.UnlockBanner...)

	default:
		// executive requests are acknowledged with the complemented opcode
		return []byte{ack}
	}
}

func (d *Device) transfer(cmd []byte) byte {
	if !d.announced {
		return StatusNotReady
	}
	if len(cmd) < 7 {
		return StatusBlockChecksum
	}

	number := binary.LittleEndian.Uint16(cmd[1:3])
	size := int(binary.LittleEndian.Uint16(cmd[3:5]))
	if len(cmd) != 6+size {
		return StatusBlockChecksum
	}
	data := cmd[5 : 5+size]
	if protocol.Sum8(data) != cmd[len(cmd)-1] {
		return StatusBlockChecksum
	}

	toggle := int(cmd[0]>>3) & 1
	if toggle == d.lastToggle && len(d.blocks) > 0 && d.blocks[len(d.blocks)-1].Number == number {
		// repeated block whose acknowledgement was lost
		return StatusOK
	}

	d.lastToggle = toggle
	d.image = append(d.image, data...)
	d.blocks = append(d.blocks, Block{Number: number, Toggle: toggle == 1, Size: size})

	if number == protocol.LastBlock && protocol.Sum16(d.image) != d.checksum {
		return StatusImageChecksum
	}
	return StatusOK
}

// Frames returns every frame written so far.
func (d *Device) Frames() [][]byte {
	return d.frames
}

// Erased reports whether the firmware was erased.
func (d *Device) Erased() bool {
	return d.erased
}

// LoadAddress returns the announced load address.
func (d *Device) LoadAddress() uint16 {
	return d.loadAddress
}

// Checksum returns the announced image checksum.
func (d *Device) Checksum() uint16 {
	return d.checksum
}

// Image returns a copy of the bytes received so far.
func (d *Device) Image() []byte {
	return append([]byte(nil), d.image...)
}

// Blocks returns the accepted transfer blocks in order.
func (d *Device) Blocks() []Block {
	return append([]Block(nil), d.blocks...)
}

// Running reports whether the downloaded firmware was unlocked.
func (d *Device) Running() bool {
	return d.running
}
