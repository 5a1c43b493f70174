package protocol

import "strconv"

// Outcome classifies one send/receive attempt.
type Outcome int

// Outcomes in the order the reply validator can produce them.
const (
	// OK means a well formed reply arrived; Reply.Payload holds it
	OK Outcome = iota

	// NoEcho means nothing at all was received
	NoEcho

	// ShortEcho means fewer bytes than were sent came back
	ShortEcho

	// BadEcho means the echo differs from the frame that was sent
	BadEcho

	// EchoOKNoResponse means the echo was intact but the device did not answer
	EchoOKNoResponse

	// BadLength means the reply is too short to hold a header and checksum
	BadLength

	// BadHeader means the reply does not start with the frame header
	BadHeader

	// BadBitComplement means a byte was not followed by its complement
	BadBitComplement

	// BadChecksum means the reply checksum does not match its payload
	BadChecksum

	// BadAnswer means a valid reply had an unexpected length
	BadAnswer
)

// Outcomes lists every outcome value.
func Outcomes() []Outcome {
	return []Outcome{
		OK, NoEcho, ShortEcho, BadEcho, EchoOKNoResponse,
		BadLength, BadHeader, BadBitComplement, BadChecksum, BadAnswer,
	}
}

// Message returns a one line description of the outcome.
func (o Outcome) Message() string {
	switch o {
	case OK:
		return "reply ok"
	case NoEcho:
		return "no echo"
	case ShortEcho:
		return "short echo"
	case BadEcho:
		return "bad echo"
	case EchoOKNoResponse:
		return "echo ok, no response"
	case BadLength:
		return "bad length"
	case BadHeader:
		return "bad header"
	case BadBitComplement:
		return "bad bit complement"
	case BadChecksum:
		return "bad checksum"
	case BadAnswer:
		return "bad answer"
	default:
		return ""
	}
}

func (o Outcome) String() string {
	if msg := o.Message(); msg != "" {
		return msg
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

// Reply is the classified result of one attempt. Payload is only set when
// Outcome is OK.
type Reply struct {
	Outcome Outcome
	Payload []byte
}

// OK reports whether the reply carries a valid payload.
func (r Reply) OK() bool {
	return r.Outcome == OK
}

// Err returns nil for an OK reply and a *ProtocolError naming operation
// otherwise.
func (r Reply) Err(operation string) error {
	if r.Outcome == OK {
		return nil
	}
	return &ProtocolError{Operation: operation, Outcome: r.Outcome}
}
