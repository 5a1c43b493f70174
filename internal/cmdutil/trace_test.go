package cmdutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
)

func TestDumpTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	DumpTrace(&buf)(link.Attempt{
		Number:   2,
		Frame:    []byte{0x55, 0xFF, 0x00},
		Received: nil,
		Reply:    protocol.Reply{Outcome: protocol.NoEcho},
	})

	assert.Equal(t, "attempt 2: no echo\nsent:\n0000: 55 ff 00 \nreceived:\n", buf.String())
}
