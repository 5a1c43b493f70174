// Command rcxdl downloads an S-record firmware image to an RCX through the
// IR tower.
//
// Usage:
//
//	rcxdl [options] <image.srec>
//
// Exit codes:
//   - 0: firmware downloaded and unlocked
//   - 1: bad arguments, unreadable image, tower not available
//   - 2: a download step failed on the IR link
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-rcx/download"
	"github.com/moffa90/go-rcx/internal/cmdutil"
	"github.com/moffa90/go-rcx/internal/config"
	"github.com/moffa90/go-rcx/internal/logging"
	"github.com/moffa90/go-rcx/srec"
	"github.com/moffa90/go-rcx/transport"
)

// version is set via ldflags at build time.
var version = "dev"

const flagDryRun = "dry-run"

func main() {
	if err := newApp(afero.NewOsFs(), openTower).Run(os.Args); err != nil {
		// ExitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(cmdutil.ExitFatal)
	}
}

// towerOpener opens the IR tower described by the config.
type towerOpener func(vals config.Values) (io.ReadWriteCloser, error)

func openTower(vals config.Values) (io.ReadWriteCloser, error) {
	port, err := transport.Open(vals.Settings())
	if err != nil {
		return nil, err
	}
	return port, nil
}

func newApp(fs afero.Fs, open towerOpener) *cli.App {
	flags := append(cmdutil.CommonFlags(config.Defaults().Attempts), cmdutil.DownloadFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:  flagDryRun,
		Usage: "Load the image and print a summary without talking to the tower",
	})

	return &cli.App{
		Name:           "rcxdl",
		Usage:          "Download firmware to an RCX through the IR tower",
		ArgsUsage:      "<image.srec>",
		Version:        version,
		ExitErrHandler: cmdutil.ExitErrHandler,
		Flags:          flags,
		Action: func(c *cli.Context) error {
			return run(c, fs, open)
		},
	}
}

func run(c *cli.Context, fs afero.Fs, open towerOpener) error {
	if c.NArg() != 1 {
		return cmdutil.Fatalf("usage: %s [options] <image.srec>", c.App.Name)
	}
	path := c.Args().First()

	session, err := cmdutil.Setup(c, fs, config.Defaults())
	if err != nil {
		return cmdutil.Fail(err)
	}
	defer func() { _ = session.Close() }()

	logger := session.Logger
	vals := session.Config

	img, err := srec.Load(fs, path,
		srec.WithStripZeros(vals.StripZeros),
		srec.WithWarning(func(line int, err error) {
			logger.Warn().Int("line", line).Err(err).Msg("skipping record")
		}),
	)
	if err != nil {
		return cmdutil.Fatalf("%s: %v", path, err)
	}

	fmt.Fprintf(c.App.Writer, "%s: %d bytes, load address 0x%04x, checksum 0x%04x\n",
		path, img.Len(), img.LoadAddress, img.Checksum())
	if img.Skipped > 0 {
		fmt.Fprintf(c.App.Writer, "%d records skipped for bad checksums\n", img.Skipped)
	}

	if c.Bool(flagDryRun) {
		return nil
	}

	tower, err := open(vals)
	if err != nil {
		logging.LogError(logger, err, "failed to open tower")
		return cmdutil.Fail(err)
	}
	defer func() { _ = tower.Close() }()

	opts := []download.Option{
		download.WithAttempts(vals.Attempts),
		download.WithChunkSize(vals.ChunkSize),
		download.WithLogger(session.Adapter()),
	}
	if c.Bool(cmdutil.FlagDump) {
		opts = append(opts, download.WithTrace(cmdutil.DumpTrace(c.App.Writer)))
	}
	if bar := newProgressBar(c, img.Len(), vals.DebugLogging); bar != nil {
		opts = append(opts, download.WithProgressCallback(func(p download.Progress) {
			bar.Describe(p.Phase)
			_ = bar.Set(p.BytesSent)
			if p.Phase == download.PhaseComplete {
				_ = bar.Finish()
			}
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dl := download.New(tower, opts...)
	if err := dl.Download(ctx, img); err != nil {
		logging.LogError(logger, err, "download failed")
		return cmdutil.Fail(err)
	}

	fmt.Fprintln(c.App.Writer, "firmware downloaded")
	return nil
}

// newProgressBar returns a progress bar on stderr when it is a terminal and
// debug output is off.
func newProgressBar(c *cli.Context, total int, debug bool) *progressbar.ProgressBar {
	if debug || c.Bool(cmdutil.FlagDump) {
		return nil
	}
	f, ok := c.App.ErrWriter.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(f),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(download.PhaseErasing),
		progressbar.OptionShowBytes(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(f) }),
	)
}
