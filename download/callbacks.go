package download

import (
	"time"

	"github.com/moffa90/go-rcx/link"
)

// Download phases reported through Progress.Phase.
const (
	PhaseErasing      = "erasing"
	PhaseAnnouncing   = "announcing"
	PhaseTransferring = "transferring"
	PhaseUnlocking    = "unlocking"
	PhaseComplete     = "complete"
)

// Progress contains information about the download progress.
// Passed to ProgressCallback during a download.
type Progress struct {
	// Phase describes the current step:
	//   "erasing"      - Erasing the resident firmware
	//   "announcing"   - Announcing load address and checksum
	//   "transferring" - Transferring image blocks
	//   "unlocking"    - Unlocking and starting the firmware
	//   "complete"     - Download completed successfully
	Phase string

	// CurrentBlock is the number of blocks transferred so far
	CurrentBlock int

	// TotalBlocks is the number of transfer blocks in the image
	TotalBlocks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesSent is the number of image bytes transferred so far
	BytesSent int

	// TotalBytes is the image length
	TotalBytes int

	// ElapsedTime is the time elapsed since the download started
	ElapsedTime time.Duration
}

// ProgressCallback is called during a download to report progress.
// Implementations should return quickly; the IR link waits on them.
//
// Example:
//
//	dl := download.New(port,
//	    download.WithProgressCallback(func(p download.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Block %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is the logging interface shared with the link package.
type Logger = link.Logger
