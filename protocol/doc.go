// Package protocol implements the framing spoken with an RCX over an
// echoing infrared tower.
//
// # Frame Overview
//
// Two framings share the same wire header. Firmware downloads use:
//
//	[55][FF][00][P0][~P0]...[Pn][~Pn][SUM][~SUM]
//
// Requests to the RCX executive are packets:
//
//	[55][FF][P0]...[Pn][SUM]
//
// that the IR layer transmits with every byte after the first followed by
// its complement. SUM is the 8-bit sum of the payload bytes.
//
// Pick a framing with VariantDownload or VariantRequestReply and build a
// frame with Encode:
//
//	frame, err := protocol.Encode(protocol.BuildEraseCmd(), protocol.VariantDownload)
//
// # Reply Validation
//
// The tower echoes every byte it sends, so a receive sequence starts with
// the frame just written. Validate strips the echo and checks the reply:
//
//	reply := protocol.Validate(frame, received, protocol.VariantDownload)
//	if !reply.OK() {
//	    return reply.Err("erase")
//	}
//
// Exactly one Outcome is produced per attempt and only OK carries a payload.
//
// # Command Builders
//
// The Build* functions return command payloads for the download sequence:
//
//	protocol.BuildEraseCmd()
//	protocol.BuildAnnounceCmd(0x8000, checksum)
//	protocol.BuildTransferCmd(1, false, block)
//	protocol.BuildUnlockCmd()
package protocol
