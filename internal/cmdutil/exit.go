package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-rcx/protocol"
)

// Exit codes of the rcx tools.
const (
	ExitOK       = 0
	ExitFatal    = 1
	ExitProtocol = 2
)

// osExit is replaced in tests.
var osExit = os.Exit

// ExitCode maps err to an exit code: protocol failures are ExitProtocol,
// every other error is ExitFatal.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case protocol.IsProtocolError(err):
		return ExitProtocol
	default:
		return ExitFatal
	}
}

// Fail converts err into a cli.ExitCoder carrying its one line message and
// exit code. A nil err stays nil.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	return cli.Exit(err.Error(), ExitCode(err))
}

// Fatalf returns a cli.ExitCoder with ExitFatal.
func Fatalf(format string, args ...interface{}) error {
	return cli.Exit(fmt.Sprintf(format, args...), ExitFatal)
}

// ExitErrHandler prints the message of an exit error and exits with its
// code. Unexpected errors exit with ExitFatal.
func ExitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	w := errWriter(c)
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		osExit(code)
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	osExit(ExitFatal)
}

func errWriter(c *cli.Context) io.Writer {
	if c != nil && c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
