// Command rcxsend sends one request to an RCX through the IR tower and
// prints the reply.
//
// Usage:
//
//	rcxsend [options] <byte> [byte ...]
//
// Bytes are hexadecimal; "rcxsend 10" sends the alive request. The request
// is sent once unless --attempts asks for more.
//
// Exit codes:
//   - 0: a valid reply was printed
//   - 1: bad arguments, tower not available
//   - 2: no valid reply
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-rcx/internal/cmdutil"
	"github.com/moffa90/go-rcx/internal/config"
	"github.com/moffa90/go-rcx/internal/logging"
	"github.com/moffa90/go-rcx/link"
	"github.com/moffa90/go-rcx/protocol"
	"github.com/moffa90/go-rcx/transport"
)

// version is set via ldflags at build time.
var version = "dev"

// defaultAttempts sends a request once; repeating a request can repeat its
// effect on the RCX.
const defaultAttempts = 1

func main() {
	if err := newApp(afero.NewOsFs(), openTower).Run(os.Args); err != nil {
		os.Exit(cmdutil.ExitFatal)
	}
}

type towerOpener func(vals config.Values) (io.ReadWriteCloser, error)

func openTower(vals config.Values) (io.ReadWriteCloser, error) {
	port, err := transport.Open(vals.Settings())
	if err != nil {
		return nil, err
	}
	return port, nil
}

func newApp(fs afero.Fs, open towerOpener) *cli.App {
	return &cli.App{
		Name:           "rcxsend",
		Usage:          "Send a request to an RCX and print the reply",
		ArgsUsage:      "<byte> [byte ...]",
		Version:        version,
		ExitErrHandler: cmdutil.ExitErrHandler,
		Flags:          cmdutil.CommonFlags(defaultAttempts),
		Action: func(c *cli.Context) error {
			return run(c, fs, open)
		},
	}
}

func run(c *cli.Context, fs afero.Fs, open towerOpener) error {
	if c.NArg() < 1 {
		return cmdutil.Fatalf("usage: %s byte [byte ...]", c.App.Name)
	}

	request, err := cmdutil.ParseHexBytes(c.Args().Slice())
	if err != nil {
		return cmdutil.Fatalf("%v", err)
	}
	if len(request) > protocol.VariantRequestReply.MaxPayload() {
		return cmdutil.Fatalf("request too long: %d bytes", len(request))
	}

	defaults := config.Defaults()
	defaults.Attempts = defaultAttempts

	session, err := cmdutil.Setup(c, fs, defaults)
	if err != nil {
		return cmdutil.Fail(err)
	}
	defer func() { _ = session.Close() }()

	tower, err := open(session.Config)
	if err != nil {
		logging.LogError(session.Logger, err, "failed to open tower")
		return cmdutil.Fail(err)
	}
	defer func() { _ = tower.Close() }()

	opts := []link.Option{
		link.WithAttempts(session.Config.Attempts),
		link.WithLogger(session.Adapter()),
	}
	if c.Bool(cmdutil.FlagDump) {
		opts = append(opts, link.WithTrace(cmdutil.DumpTrace(c.App.Writer)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reply, err := link.New(tower, opts...).SendReceive(ctx, request, protocol.VariantRequestReply)
	if err != nil {
		logging.LogError(session.Logger, err, "request failed")
		return cmdutil.Fail(err)
	}
	if err := reply.Err("request"); err != nil {
		return cmdutil.Fail(err)
	}

	return cmdutil.Fail(cmdutil.Dump(c.App.Writer, reply.Payload))
}
