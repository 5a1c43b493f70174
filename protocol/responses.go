package protocol

import (
	"bytes"
	"fmt"
)

// Validate classifies the bytes received after sending frame sent with
// variant v. The tower echoes everything it transmits, so received starts
// with a copy of sent and the device reply, if any, follows it.
//
// Stages, each of which may end the classification:
//
//	echo         NoEcho, ShortEcho / BadEcho, EchoOKNoResponse
//	length       BadLength
//	header       BadHeader
//	complements  BadBitComplement
//	checksum     BadChecksum
//
// The returned payload is a fresh slice and is only set for OK.
func Validate(sent, received []byte, v Variant) Reply {
	reply, outcome := checkEcho(sent, received, v)
	if outcome != OK {
		return Reply{Outcome: outcome}
	}

	if v.irLayer {
		return checkPacket(reply, v)
	}
	return checkFrame(reply, v)
}

// checkEcho strips the echo of sent from received and returns what follows.
func checkEcho(sent, received []byte, v Variant) ([]byte, Outcome) {
	switch {
	case len(received) == 0:
		return nil, NoEcho
	case len(received) < len(sent):
		if v.shortEcho {
			return nil, ShortEcho
		}
		return nil, BadEcho
	case !bytes.Equal(received[:len(sent)], sent):
		return nil, BadEcho
	case len(received) == len(sent):
		return nil, EchoOKNoResponse
	}

	return received[len(sent):], OK
}

// checkFrame validates a reply in the download framing:
//
//	[55][FF][00][P0][~P0]...[SUM][~SUM]
func checkFrame(reply []byte, v Variant) Reply {
	headerLen := len(v.header)
	if len(reply) < headerLen+2 {
		return Reply{Outcome: BadLength}
	}
	if !bytes.Equal(reply[:headerLen], v.header) {
		return Reply{Outcome: BadHeader}
	}

	payload, sum, ok := complementPairs(reply[headerLen : len(reply)-2])
	if !ok {
		return Reply{Outcome: BadBitComplement}
	}

	checksum, complement := reply[len(reply)-2], reply[len(reply)-1]
	if checksum != ^complement || checksum != sum {
		return Reply{Outcome: BadChecksum}
	}

	return Reply{Outcome: OK, Payload: payload}
}

// checkPacket removes the IR layer and validates the packet underneath:
//
//	[55][FF][P0]...[Pn][SUM]
func checkPacket(reply []byte, v Variant) Reply {
	packet, ok := irDecode(reply)
	if !ok {
		return Reply{Outcome: BadBitComplement}
	}

	headerLen := len(v.header)
	if len(packet) < headerLen+1 {
		return Reply{Outcome: BadLength}
	}
	if !bytes.Equal(packet[:headerLen], v.header) {
		return Reply{Outcome: BadHeader}
	}

	body := packet[headerLen : len(packet)-1]
	if packet[len(packet)-1] != Sum8(body) {
		return Reply{Outcome: BadChecksum}
	}

	payload := make([]byte, len(body))
	copy(payload, body)

	return Reply{Outcome: OK, Payload: payload}
}

// CheckReplySize reclassifies an OK reply whose payload is not size bytes
// long as BadAnswer.
func CheckReplySize(r Reply, size int) Reply {
	if r.Outcome == OK && len(r.Payload) != size {
		return Reply{Outcome: BadAnswer}
	}
	return r
}

// ParseUnlockReply returns the banner text of an unlock reply.
//
// Reply structure:
//
//	[~A5][BANNER(25)]
func ParseUnlockReply(payload []byte) (string, error) {
	if len(payload) != UnlockReplySize {
		return "", fmt.Errorf("invalid unlock reply length: got %d, expected %d", len(payload), UnlockReplySize)
	}
	if payload[0] != ^byte(OpUnlock) {
		return "", fmt.Errorf("invalid unlock reply opcode: got 0x%02X, expected 0x%02X", payload[0], ^byte(OpUnlock))
	}
	return string(payload[1:]), nil
}
