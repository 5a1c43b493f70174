package download

import (
	"fmt"

	"github.com/moffa90/go-rcx/protocol"
)

// Step names a command of the download sequence.
type Step string

// Download steps in the order they run.
const (
	StepErase    Step = "erase"
	StepAnnounce Step = "announce"
	StepTransfer Step = "transfer"
	StepUnlock   Step = "unlock"
)

// StepError reports the step that ended a download. The device has no
// undo; whatever the earlier steps changed stays changed.
type StepError struct {
	// Step is the command that failed
	Step Step

	// Block is the transfer block number counted from 1, 0 for other steps
	Block int

	// Outcome is the classification of the last attempt
	Outcome protocol.Outcome
}

func (e *StepError) Error() string {
	if e.Step == StepTransfer {
		return fmt.Sprintf("transfer of block %d failed: %s", e.Block, e.Outcome.Message())
	}
	return fmt.Sprintf("%s failed: %s", e.Step, e.Outcome.Message())
}

// Unwrap exposes the failure as a *protocol.ProtocolError.
func (e *StepError) Unwrap() error {
	return &protocol.ProtocolError{Operation: string(e.Step), Outcome: e.Outcome}
}

// AddressError indicates a load address the announce command cannot carry.
type AddressError struct {
	Address uint32
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("load address 0x%X does not fit in 16 bits", e.Address)
}
