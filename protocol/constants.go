package protocol

// Frame header bytes shared by both variants.
const (
	// HeaderStart is the first header byte (0x55)
	HeaderStart = 0x55

	// HeaderSync is the second header byte (0xFF)
	HeaderSync = 0xFF

	// HeaderSyncComplement closes the three byte download header (0x00)
	HeaderSyncComplement = 0x00
)

// MaxFrameSize bounds every byte sequence handled by this package: encoded
// frames, received sequences and decoded payloads.
const MaxFrameSize = 4096

// maxPayload is the largest payload whose encoded frame fits in
// MaxFrameSize for both variants: 3 + 2n + 2 <= 4096.
const maxPayload = (MaxFrameSize - 5) / 2

// Opcodes understood by the RCX ROM during a firmware download.
const (
	// OpErase deletes the resident firmware
	OpErase = 0x65

	// OpAnnounce starts a download at a load address with an image checksum
	OpAnnounce = 0x75

	// OpTransfer carries one image block. Bit 3 toggles between blocks.
	OpTransfer = 0x45

	// OpUnlock unlocks the downloaded firmware and starts it
	OpUnlock = 0xA5

	// transferToggle is the opcode bit carrying the low bit of the block number
	transferToggle = 0x08
)

// Fixed command arguments.
var (
	// eraseKey follows OpErase
	eraseKey = []byte{0x01, 0x03, 0x05, 0x07, 0x0B}

	// unlockKey follows OpUnlock ("LEGO" and the registered sign)
	unlockKey = []byte{0x4C, 0x45, 0x47, 0x4F, 0xAE}
)

// UnlockBanner is the text the ROM returns after a successful unlock.
const UnlockBanner = "Just a bit off the block!"

// Expected reply payload sizes, complemented opcode included.
const (
	// EraseReplySize is the reply size for OpErase (1 byte)
	EraseReplySize = 1

	// AnnounceReplySize is the reply size for OpAnnounce (2 bytes)
	AnnounceReplySize = 2

	// TransferReplySize is the reply size for OpTransfer (2 bytes)
	TransferReplySize = 2

	// UnlockReplySize is the reply size for OpUnlock (26 bytes)
	UnlockReplySize = 1 + len(UnlockBanner)
)

// Transfer block layout.
const (
	// DefaultChunkSize is the default number of image bytes per transfer block
	DefaultChunkSize = 200

	// transferOverhead is opcode(1) + block(2) + size(2) + checksum(1)
	transferOverhead = 6

	// MaxChunkSize is the largest block whose transfer command still fits in a frame
	MaxChunkSize = maxPayload - transferOverhead

	// LastBlock is the block number carried by the final transfer block
	LastBlock = 0
)
