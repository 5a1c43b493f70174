package download

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-rcx/internal/rcxsim"
	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
	"github.com/moffa90/go-rcx/srec"
)

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// unlockPort echoes every frame and answers it with an unlock reply whose
// first byte is reply.
type unlockPort struct {
	reply   byte
	pending []byte
}

func (p *unlockPort) Write(b []byte) (int, error) {
	payload := append([]byte{p.reply}, protocol.UnlockBanner...)
	frame, err := protocol.Encode(payload, protocol.VariantDownload)
	if err != nil {
		return 0, err
	}
	p.pending = append(append([]byte(nil), b...), frame...)
	return len(b), nil
}

func (p *unlockPort) Read(b []byte) (int, error) {
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

type brokenPort struct {
	err error
}

func (p *brokenPort) Read([]byte) (int, error)  { return 0, nil }
func (p *brokenPort) Write([]byte) (int, error) { return 0, p.err }

func testImage(n int) *srec.Image {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 1)
	}
	return &srec.Image{Base: srec.DefaultBase, LoadAddress: srec.DefaultBase, Data: data}
}

func TestNew(t *testing.T) {
	t.Parallel()

	dl := New(rcxsim.New())
	assert.Equal(t, protocol.DefaultChunkSize, dl.config.ChunkSize)
	assert.Equal(t, link.DefaultAttempts, dl.link.Attempts())
	assert.Equal(t, 5, dl.Blocks(1000))
	assert.Equal(t, 6, dl.Blocks(1001))

	dl = New(rcxsim.New(), WithChunkSize(300), WithAttempts(2))
	assert.Equal(t, 4, dl.Blocks(1000))
	assert.Equal(t, 2, dl.link.Attempts())

	dl = New(rcxsim.New(), WithChunkSize(0), WithChunkSize(protocol.MaxChunkSize+1), WithAttempts(0))
	assert.Equal(t, protocol.DefaultChunkSize, dl.config.ChunkSize, "invalid chunk sizes are ignored")
	assert.Equal(t, link.DefaultAttempts, dl.link.Attempts())

	assert.Panics(t, func() { New(nil) })
}

func TestDownload(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	img := testImage(1000)

	logger := &MockLogger{}
	dl := New(dev, WithLogger(logger))
	require.NoError(t, dl.Download(context.Background(), img))

	assert.Equal(t, img.Data, dev.Image())
	assert.Equal(t, uint16(0x8000), dev.LoadAddress())
	assert.Equal(t, img.Checksum(), dev.Checksum())
	assert.True(t, dev.Running())

	blocks := dev.Blocks()
	require.Len(t, blocks, 5)
	var toggles []bool
	var numbers []uint16
	for _, b := range blocks {
		toggles = append(toggles, b.Toggle)
		numbers = append(numbers, b.Number)
		assert.Equal(t, 200, b.Size)
	}
	assert.Equal(t, []bool{true, false, true, false, true}, toggles)
	assert.Equal(t, []uint16{1, 2, 3, 4, protocol.LastBlock}, numbers)

	assert.Len(t, dev.Frames(), 8, "erase, announce, 5 blocks, unlock")
	assert.Contains(t, logger.infoMsgs, "download complete")
	assert.Empty(t, logger.errorMsgs)
}

func TestDownloadShortLastBlock(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	img := testImage(450)

	require.NoError(t, New(dev).Download(context.Background(), img))

	blocks := dev.Blocks()
	require.Len(t, blocks, 3)
	assert.Equal(t, 50, blocks[2].Size)
	assert.Equal(t, uint16(protocol.LastBlock), blocks[2].Number)
	assert.Equal(t, img.Data, dev.Image())
}

func TestDownloadSingleBlock(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	img := testImage(10)

	require.NoError(t, New(dev).Download(context.Background(), img))
	assert.Equal(t, []rcxsim.Block{{Number: protocol.LastBlock, Toggle: true, Size: 10}}, dev.Blocks())
}

func TestDownloadLargestChunk(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	img := testImage(protocol.MaxChunkSize)

	require.NoError(t, New(dev, WithChunkSize(protocol.MaxChunkSize)).Download(context.Background(), img))
	assert.Equal(t, img.Data, dev.Image())
	assert.Len(t, dev.Frames(), 4, "no step needed a second attempt")
	assert.True(t, dev.Running())
}

func TestDownloadRetriesThroughInterference(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	// erase ok, announce lost once, block 1 acknowledgement corrupted,
	// block 2 echo corrupted, unlock complement broken
	dev.Inject(rcxsim.None, rcxsim.Silent, rcxsim.None, rcxsim.CorruptReply, rcxsim.None,
		rcxsim.CorruptEcho, rcxsim.None, rcxsim.BreakComplement)

	var attempts []link.Attempt
	img := testImage(400)
	dl := New(dev, WithTrace(func(a link.Attempt) { attempts = append(attempts, a) }))
	require.NoError(t, dl.Download(context.Background(), img))

	assert.Equal(t, img.Data, dev.Image(), "a repeated block is stored once")
	assert.Len(t, dev.Blocks(), 2)
	assert.True(t, dev.Running())
	assert.Len(t, attempts, 9)
	assert.Len(t, dev.Frames(), 9)
}

func TestDownloadAbortsOnFailedStep(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	dev.Inject(rcxsim.None,
		rcxsim.Silent, rcxsim.EchoOnly, rcxsim.Silent, rcxsim.CorruptEcho, rcxsim.EchoOnly)

	logger := &MockLogger{}
	err := New(dev, WithLogger(logger)).Download(context.Background(), testImage(1000))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepAnnounce, stepErr.Step)
	assert.Equal(t, 0, stepErr.Block)
	assert.Equal(t, protocol.EchoOKNoResponse, stepErr.Outcome, "the last attempt is reported")

	assert.Len(t, dev.Frames(), 6, "nothing is sent after the failed step")
	assert.Empty(t, dev.Blocks())
	assert.False(t, dev.Running())
	assert.Contains(t, logger.errorMsgs, "step failed")
}

func TestDownloadWrongReplySize(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	dev.Inject(rcxsim.None, rcxsim.None, rcxsim.None, rcxsim.ExtraByte)

	err := New(dev).Download(context.Background(), testImage(1000))

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepTransfer, stepErr.Step)
	assert.Equal(t, 2, stepErr.Block)
	assert.Equal(t, protocol.BadAnswer, stepErr.Outcome)
	assert.Len(t, dev.Frames(), 4, "a complete reply is not retried")
}

func TestDownloadProgress(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	var calls []Progress
	dl := New(rcxsim.New(), WithClock(clock), WithProgressCallback(func(p Progress) {
		calls = append(calls, p)
		clock.Advance(time.Second)
	}))

	require.NoError(t, dl.Download(context.Background(), testImage(1000)))

	var phases []string
	for i, p := range calls {
		phases = append(phases, p.Phase)
		assert.Equal(t, time.Duration(i)*time.Second, p.ElapsedTime)
		assert.Equal(t, 5, p.TotalBlocks)
		assert.Equal(t, 1000, p.TotalBytes)
	}
	assert.Equal(t, []string{
		PhaseErasing, PhaseAnnouncing,
		PhaseTransferring, PhaseTransferring, PhaseTransferring,
		PhaseTransferring, PhaseTransferring, PhaseTransferring,
		PhaseUnlocking, PhaseComplete,
	}, phases)

	last := calls[len(calls)-1]
	assert.Equal(t, 100.0, last.Percentage)
	assert.Equal(t, 5, last.CurrentBlock)
	assert.Equal(t, 1000, last.BytesSent)

	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Percentage, calls[i-1].Percentage)
	}
}

func TestDownloadCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := rcxsim.New()
	dl := New(dev, WithProgressCallback(func(p Progress) {
		if p.CurrentBlock == 2 {
			cancel()
		}
	}))

	err := dl.Download(ctx, testImage(1000))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, dev.Blocks(), 2)
	assert.False(t, dev.Running())
}

func TestDownloadInvalidImage(t *testing.T) {
	t.Parallel()

	dev := rcxsim.New()
	dl := New(dev)

	assert.Error(t, dl.Download(context.Background(), nil))
	assert.ErrorIs(t, dl.Download(context.Background(), &srec.Image{}), srec.ErrEmptyImage)

	img := testImage(10)
	img.LoadAddress = 0x10000
	var addrErr *AddressError
	assert.ErrorAs(t, dl.Download(context.Background(), img), &addrErr)

	assert.Empty(t, dev.Frames(), "nothing is sent for an invalid image")
}

func TestDownloadTransportError(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("tower unplugged")
	err := New(&brokenPort{err: errBroken}).Download(context.Background(), testImage(10))
	assert.ErrorIs(t, err, errBroken)
	assert.ErrorContains(t, err, "erase")
	assert.False(t, protocol.IsProtocolError(err))
}

func TestSteps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dev := rcxsim.New()
	dl := New(dev)

	require.NoError(t, dl.Erase(ctx))
	require.NoError(t, dl.Announce(ctx, 0x8000, protocol.Sum16([]byte{0x01, 0x02})))
	require.NoError(t, dl.Transfer(ctx, 1, false, []byte{0x01}))
	require.NoError(t, dl.Transfer(ctx, 2, true, []byte{0x02}))

	banner, err := dl.Unlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.UnlockBanner, banner)
	assert.Equal(t, []byte{0x01, 0x02}, dev.Image())

	assert.Error(t, dl.Transfer(ctx, 0, false, []byte{0x01}))
	assert.Error(t, dl.Transfer(ctx, 1, false, nil))
}

func TestUnlockUnexpectedOpcode(t *testing.T) {
	t.Parallel()

	logger := &MockLogger{}
	dl := New(&unlockPort{reply: 0x00}, WithLogger(logger))

	banner, err := dl.Unlock(context.Background())
	require.NoError(t, err, "an OK reply of the unlock size completes the step")
	assert.Equal(t, protocol.UnlockBanner, banner)
	assert.Contains(t, logger.errorMsgs, "unexpected unlock reply")
}

func TestTransferStatusIsLogged(t *testing.T) {
	t.Parallel()

	logger := &MockLogger{}
	dl := New(rcxsim.New(), WithLogger(logger))

	// no download announced: the ROM answers with a non-zero status
	require.NoError(t, dl.Transfer(context.Background(), 1, true, []byte{0x01}))
	assert.Contains(t, logger.errorMsgs, "transfer status")
}
