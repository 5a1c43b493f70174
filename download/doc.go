// Package download installs firmware images on a LEGO RCX through an IR tower.
//
// # Overview
//
// The RCX ROM accepts new firmware with a fixed command sequence:
//   - Erase the resident firmware
//   - Announce the load address and the 16-bit sum of the image
//   - Transfer the image in numbered blocks
//   - Unlock and start the new firmware
//
// Every command goes through a link.Link with the download framing, so each
// one is retried on its own when the infrared channel garbles it.
//
// # Basic Usage
//
//	port, err := transport.Open(transport.DefaultSettings())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	img, err := srec.Load(afero.NewOsFs(), "firm0309.srec")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dl := download.New(port)
//	if err := dl.Download(context.Background(), img); err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
//	dl := download.New(port,
//	    download.WithProgressCallback(func(p download.Progress) {
//	        fmt.Printf("[%s] %.1f%% - Block %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
//
// # Error Handling
//
// A command that never gets a valid reply of the expected size ends the
// download with a *StepError naming the step, the block and the outcome of
// the last attempt. It also unwraps to a *protocol.ProtocolError. Transport
// failures are returned wrapped and are never retried.
package download
