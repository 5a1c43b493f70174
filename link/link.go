package link

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-rcx/protocol"
)

// Link exchanges frames with an RCX through an echoing IR tower.
// Each exchange writes one frame, collects everything the tower returns
// until a read comes back empty, and classifies it with protocol.Validate.
//
// A Link owns its transport and is not safe for concurrent use.
type Link struct {
	rw     io.ReadWriter
	config Config
}

// New creates a Link over rw with the given options.
// rw.Read must return 0 bytes once nothing arrived within the byte timeout;
// a serial port with a read timeout behaves this way.
//
// Example:
//
//	port, _ := transport.Open(transport.DefaultSettings())
//	l := link.New(port, link.WithAttempts(5))
func New(rw io.ReadWriter, opts ...Option) *Link {
	if rw == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Link{
		rw:     rw,
		config: cfg,
	}
}

// Attempts returns the number of attempts per exchange.
func (l *Link) Attempts() int {
	return l.config.Attempts
}

// SendReceive sends payload framed with variant v and returns the first OK
// reply. When every attempt fails the reply of the last attempt is returned
// with a nil error; callers decide what a failed exchange means.
//
// Every attempt writes the same frame. The returned error is only set for
// transport failures, an oversized payload or a cancelled context; none of
// these are retried. ctx is checked before each attempt, never during one.
//
// Example:
//
//	reply, err := l.SendReceive(ctx, []byte{0x10}, protocol.VariantRequestReply)
//	if err != nil {
//	    return err
//	}
//	if !reply.OK() {
//	    fmt.Println(reply.Outcome.Message())
//	}
func (l *Link) SendReceive(ctx context.Context, payload []byte, v protocol.Variant) (reply protocol.Reply, err error) {
	defer deferWrap(&err)

	frame, err := protocol.Encode(payload, v)
	if err != nil {
		return protocol.Reply{}, err
	}

	reply = protocol.Reply{Outcome: protocol.NoEcho}
	for attempt := 1; attempt <= l.config.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return reply, fmt.Errorf("cancelled: %w", err)
		}

		if err := l.send(frame); err != nil {
			return reply, fmt.Errorf("write frame: %w", err)
		}

		received, err := l.receive(len(frame) + protocol.MaxFrameSize)
		if err != nil {
			return reply, fmt.Errorf("read reply: %w", err)
		}

		reply = protocol.Validate(frame, received, v)
		l.trace(attempt, frame, received, reply)

		if reply.OK() {
			return reply, nil
		}

		l.logDebug("attempt failed",
			"attempt", attempt,
			"of", l.config.Attempts,
			"variant", v.String(),
			"outcome", reply.Outcome.String(),
			"received", len(received),
		)
	}

	return reply, nil
}

// send writes the whole frame.
func (l *Link) send(frame []byte) error {
	n, err := l.rw.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return io.ErrShortWrite
	}
	return nil
}

// receive reads single bytes until a read returns nothing or io.EOF.
// At most limit bytes are kept: the echo of the frame plus a reply of up to
// protocol.MaxFrameSize bytes.
func (l *Link) receive(limit int) ([]byte, error) {
	received := make([]byte, 0, 64)
	var b [1]byte

	for len(received) < limit {
		n, err := l.rw.Read(b[:])
		if n > 0 {
			received = append(received, b[0])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	return received, nil
}

// trace reports an attempt to the trace callback if configured.
func (l *Link) trace(number int, frame, received []byte, reply protocol.Reply) {
	if l.config.Trace == nil {
		return
	}
	l.config.Trace(Attempt{
		Number:   number,
		Frame:    append([]byte(nil), frame...),
		Received: received,
		Reply:    reply,
	})
}

// logDebug logs a debug message if a logger is configured.
func (l *Link) logDebug(msg string, keysAndValues ...interface{}) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, keysAndValues...)
	}
}
