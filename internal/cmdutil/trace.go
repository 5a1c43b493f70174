package cmdutil

import (
	"fmt"
	"io"

	"github.com/moffa90/go-rcx/link"
)

// DumpTrace returns a trace callback that writes every attempt to w as hex.
func DumpTrace(w io.Writer) link.TraceFunc {
	return func(a link.Attempt) {
		fmt.Fprintf(w, "attempt %d: %s\nsent:\n", a.Number, a.Reply.Outcome)
		_ = Dump(w, a.Frame)
		fmt.Fprintln(w, "received:")
		_ = Dump(w, a.Received)
	}
}
