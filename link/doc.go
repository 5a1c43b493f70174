// Package link turns the lossy IR channel into a send/receive primitive.
//
// SendReceive frames a payload, writes it, collects the echo and the reply
// and classifies them. Failed attempts are repeated with the identical
// frame up to a bound (5 by default):
//
//	l := link.New(port, link.WithLogger(logger))
//	reply, err := l.SendReceive(ctx, protocol.BuildEraseCmd(), protocol.VariantDownload)
//	switch {
//	case err != nil:
//	    // transport failure, not retried
//	case !reply.OK():
//	    // every attempt failed; reply holds the last outcome
//	}
package link
