package sim86

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedStream means the stream ended part way through an
	// instruction. It is fatal and no partial instruction is reported.
	ErrTruncatedStream = errors.New("truncated instruction stream")

	// ErrBadBranch means a taken branch would move the instruction pointer
	// before the start of the stream.
	ErrBadBranch = errors.New("branch target before start of stream")
)

// DecodeError annotates a fatal error with the instruction it happened in.
type DecodeError struct {
	Offset int64
	Opcode byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("instruction %08b at offset %d: %v", e.Opcode, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
