package download

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
	"github.com/moffa90/go-rcx/srec"
)

// Downloader installs firmware images on an RCX.
// It runs the ROM download sequence over a link.Link using the download
// framing: erase, announce, transfer blocks, unlock.
//
// Downloader is not safe for concurrent use.
type Downloader struct {
	link   *link.Link
	config Config
}

// New creates a new Downloader talking to the IR tower rw.
//
// Example:
//
//	port, _ := transport.Open(transport.DefaultSettings())
//	dl := download.New(port,
//	    download.WithProgressCallback(progressFunc),
//	    download.WithChunkSize(200),
//	)
func New(rw io.ReadWriter, opts ...Option) *Downloader {
	if rw == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	l := link.New(rw,
		link.WithAttempts(cfg.Attempts),
		link.WithLogger(cfg.Logger),
		link.WithTrace(cfg.Trace),
	)

	return &Downloader{
		link:   l,
		config: cfg,
	}
}

// Blocks returns the number of transfer blocks an image of n bytes needs.
func (d *Downloader) Blocks(n int) int {
	return (n + d.config.ChunkSize - 1) / d.config.ChunkSize
}

// Download performs the complete download sequence:
//  1. Erase the resident firmware
//  2. Announce the load address and image checksum
//  3. Transfer the image in blocks of the configured chunk size
//  4. Unlock and start the new firmware
//
// The first step that does not get a valid reply of the expected size ends
// the download with a *StepError. ctx is checked between steps and blocks.
//
// Example:
//
//	img, _ := srec.Load(afero.NewOsFs(), "firm0309.srec")
//	err := dl.Download(context.Background(), img)
func (d *Downloader) Download(ctx context.Context, img *srec.Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}
	if img.Len() == 0 {
		return srec.ErrEmptyImage
	}
	if img.LoadAddress > 0xFFFF {
		return &AddressError{Address: img.LoadAddress}
	}

	start := d.config.Clock.Now()
	total := d.Blocks(img.Len())
	progress := Progress{TotalBlocks: total, TotalBytes: img.Len()}

	// Phase 1: Erase
	progress.Phase = PhaseErasing
	d.reportProgress(progress, start)

	if err := d.checkContext(ctx); err != nil {
		return err
	}
	if err := d.Erase(ctx); err != nil {
		return err
	}

	// Phase 2: Announce
	progress.Phase = PhaseAnnouncing
	progress.Percentage = 2
	d.reportProgress(progress, start)

	if err := d.checkContext(ctx); err != nil {
		return err
	}
	if err := d.Announce(ctx, uint16(img.LoadAddress), img.Checksum()); err != nil {
		return err
	}

	d.logDebug("download announced",
		"load_address", fmt.Sprintf("0x%04X", img.LoadAddress),
		"checksum", fmt.Sprintf("0x%04X", img.Checksum()),
		"bytes", img.Len(),
		"blocks", total,
	)

	// Phase 3: Transfer
	progress.Phase = PhaseTransferring
	progress.Percentage = 4
	d.reportProgress(progress, start)

	data := img.Data
	for block := 1; len(data) > 0; block++ {
		if err := d.checkContext(ctx); err != nil {
			return err
		}

		n := min(d.config.ChunkSize, len(data))
		last := n == len(data)
		if err := d.Transfer(ctx, block, last, data[:n]); err != nil {
			return err
		}
		data = data[n:]

		// Report progress (4% to 96%)
		progress.CurrentBlock = block
		progress.BytesSent += n
		progress.Percentage = 4 + float64(block)/float64(total)*92
		d.reportProgress(progress, start)
	}

	// Phase 4: Unlock
	progress.Phase = PhaseUnlocking
	progress.Percentage = 96
	d.reportProgress(progress, start)

	if err := d.checkContext(ctx); err != nil {
		return err
	}
	banner, err := d.Unlock(ctx)
	if err != nil {
		return err
	}

	progress.Phase = PhaseComplete
	progress.Percentage = 100
	d.reportProgress(progress, start)

	d.logInfo("download complete",
		"bytes", img.Len(),
		"blocks", total,
		"banner", banner,
		"elapsed", d.config.Clock.Since(start).String(),
	)

	return nil
}

// Erase deletes the firmware resident on the RCX.
func (d *Downloader) Erase(ctx context.Context) error {
	_, err := d.exchange(ctx, StepErase, 0, protocol.BuildEraseCmd(), protocol.EraseReplySize)
	return err
}

// Announce starts a download of an image with the given 16-bit checksum
// to loadAddr.
func (d *Downloader) Announce(ctx context.Context, loadAddr, checksum uint16) error {
	_, err := d.exchange(ctx, StepAnnounce, 0, protocol.BuildAnnounceCmd(loadAddr, checksum), protocol.AnnounceReplySize)
	return err
}

// Transfer sends one image block. Blocks are numbered from 1; the block
// marked last carries the terminal block number instead.
func (d *Downloader) Transfer(ctx context.Context, block int, last bool, data []byte) error {
	if block < 1 || block > 0xFFFF {
		return fmt.Errorf("block number %d out of range", block)
	}

	cmd, err := protocol.BuildTransferCmd(uint16(block), last, data)
	if err != nil {
		return fmt.Errorf("build block %d: %w", block, err)
	}

	reply, err := d.exchange(ctx, StepTransfer, block, cmd, protocol.TransferReplySize)
	if err != nil {
		return err
	}

	// the ROM status is informational; a complete reply ends the step
	if status := reply.Payload[1]; status != 0 {
		d.logError("transfer status", "block", block, "status", status)
	}
	return nil
}

// Unlock unlocks and starts the downloaded firmware and returns the banner
// the ROM answers with. Any OK reply of the unlock size completes the step;
// an unexpected opcode byte is only logged.
func (d *Downloader) Unlock(ctx context.Context) (string, error) {
	reply, err := d.exchange(ctx, StepUnlock, 0, protocol.BuildUnlockCmd(), protocol.UnlockReplySize)
	if err != nil {
		return "", err
	}

	// the firmware is running once a reply of the unlock size arrived
	banner, err := protocol.ParseUnlockReply(reply.Payload)
	if err != nil {
		d.logError("unexpected unlock reply", "error", err.Error())
		return string(reply.Payload[1:]), nil
	}
	return banner, nil
}

// exchange runs one step through the link and turns a failed or wrong sized
// reply into a *StepError.
func (d *Downloader) exchange(ctx context.Context, step Step, block int, cmd []byte, size int) (protocol.Reply, error) {
	reply, err := d.link.SendReceive(ctx, cmd, protocol.VariantDownload)
	if err != nil {
		if block > 0 {
			return reply, fmt.Errorf("%s block %d: %w", step, block, err)
		}
		return reply, fmt.Errorf("%s: %w", step, err)
	}

	reply = protocol.CheckReplySize(reply, size)
	if !reply.OK() {
		d.logError("step failed",
			"step", string(step),
			"block", block,
			"outcome", reply.Outcome.String(),
		)
		return reply, &StepError{Step: step, Block: block, Outcome: reply.Outcome}
	}

	return reply, nil
}

func (d *Downloader) checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}
	return nil
}

// reportProgress calls the progress callback if configured.
func (d *Downloader) reportProgress(p Progress, start time.Time) {
	if d.config.ProgressCallback != nil {
		p.ElapsedTime = d.config.Clock.Since(start)
		d.config.ProgressCallback(p)
	}
}

// logDebug logs a debug message if a logger is configured.
func (d *Downloader) logDebug(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (d *Downloader) logInfo(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (d *Downloader) logError(msg string, keysAndValues ...interface{}) {
	if d.config.Logger != nil {
		d.config.Logger.Error(msg, keysAndValues...)
	}
}
