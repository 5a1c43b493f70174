// Package cmdutil holds the command line plumbing shared by rcxdl and
// rcxsend: flags, config and logging setup, hex arguments and dumps, and
// exit codes.
package cmdutil

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-rcx/internal/config"
)

// Flag names.
const (
	FlagDevice     = "device"
	FlagConfig     = "config"
	FlagAttempts   = "attempts"
	FlagChunkSize  = "chunk-size"
	FlagStripZeros = "strip-zeros"
	FlagDump       = "dump"
	FlagDebug      = "debug"
	FlagLogFile    = "log-file"
)

// CommonFlags returns the flags both tools accept. defaultAttempts is only
// shown in the help; the value comes from the config.
//
// Flags are built on every call because urfave/cli keeps parse state in them.
func CommonFlags(defaultAttempts int) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagDevice,
			Aliases: []string{"d"},
			Usage:   "IR tower serial device (default $RCX_IR or the platform default)",
		},
		&cli.StringFlag{
			Name:    FlagConfig,
			Aliases: []string{"c"},
			Usage:   "TOML config file",
			EnvVars: []string{config.EnvConfig},
		},
		&cli.IntFlag{
			Name:        FlagAttempts,
			Aliases:     []string{"a"},
			Usage:       "Send attempts per command",
			DefaultText: strconv.Itoa(defaultAttempts),
		},
		&cli.BoolFlag{
			Name:  FlagDump,
			Usage: "Print every frame sent and every byte received",
		},
		&cli.BoolFlag{
			Name:  FlagDebug,
			Usage: "Enable debug logging",
		},
		&cli.StringFlag{
			Name:  FlagLogFile,
			Usage: "Also write logs to this file",
		},
	}
}

// DownloadFlags returns the flags only rcxdl accepts.
func DownloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        FlagChunkSize,
			Usage:       "Image bytes per transfer block",
			DefaultText: "200",
		},
		&cli.BoolFlag{
			Name:  FlagStripZeros,
			Usage: "Drop trailing zero bytes from the image",
		},
	}
}
