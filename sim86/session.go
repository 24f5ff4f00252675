package sim86

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// ErrStepLimit is returned when a session executes more instructions than
// Options.MaxSteps allows.
var ErrStepLimit = errors.New("step limit reached")

// Options configure a Session.
type Options struct {
	// Simulate executes each instruction against the machine state. When
	// false instructions are decoded only.
	Simulate bool

	// MaxSteps stops the session after that many instructions. Zero means no
	// limit.
	MaxSteps int

	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Record is one decoded, and possibly simulated, instruction.
type Record struct {
	Instruction

	Simulated bool
	Old, New  uint16
	Taken     bool

	FlagsBefore, FlagsAfter Flags

	Cycles      int
	TotalCycles int

	IPBefore, IPAfter int64
}

// State is the machine state reported at the end of a run.
type State struct {
	Registers Registers
	IP        int64
	Flags     Flags
	Cycles    int
}

// Session decodes and simulates a stream of instructions.
type Session struct {
	opts    Options
	log     logrus.FieldLogger
	dec     *Decoder
	machine *Machine
	steps   int
}

// NewSession prepares a session reading instructions from rs, starting at
// its current offset.
func NewSession(rs io.ReadSeeker, opts Options) (*Session, error) {
	r, err := NewReader(rs)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		opts:    opts,
		log:     log,
		dec:     NewDecoder(r, log),
		machine: &Machine{},
	}, nil
}

// Machine returns the machine state the session executes against.
func (s *Session) Machine() *Machine {
	return s.machine
}

// Skipped returns the unsupported bytes and instructions passed over so far.
func (s *Session) Skipped() []Skip {
	return s.dec.Skipped()
}

// IP returns the current instruction pointer.
func (s *Session) IP() int64 {
	return s.dec.Reader().Pos()
}

// State returns a copy of the registers, instruction pointer, flags and
// cycle count.
func (s *Session) State() State {
	return State{
		Registers: s.machine.Registers,
		IP:        s.IP(),
		Flags:     s.machine.Flags,
		Cycles:    s.machine.Cycles,
	}
}

// Step decodes the next instruction and, if simulating, executes it. It
// returns io.EOF at the clean end of the stream.
func (s *Session) Step() (*Record, error) {
	if s.opts.MaxSteps > 0 && s.steps >= s.opts.MaxSteps {
		return nil, ErrStepLimit
	}

	in, err := s.dec.Next()
	if err != nil {
		return nil, err
	}
	s.steps++

	m := s.machine
	rec := &Record{
		Instruction: *in,
		FlagsBefore: m.Flags,
		FlagsAfter:  m.Flags,
		TotalCycles: m.Cycles,
		IPBefore:    in.Offset,
		IPAfter:     in.Offset + int64(in.Length),
	}

	if s.opts.Simulate {
		e := m.Execute(in)
		rec.Simulated = e.Simulated
		rec.Old, rec.New = e.Old, e.New
		rec.Taken = e.Taken
		rec.Cycles = e.Cycles
		rec.TotalCycles = m.Cycles
		rec.FlagsAfter = m.Flags

		if e.Taken {
			if err := s.dec.Reader().SeekRelative(int64(e.Jump)); err != nil {
				return nil, &DecodeError{Offset: in.Offset, Opcode: in.Opcode, Err: err}
			}
			rec.IPAfter = s.IP()
		}
	}

	s.log.WithFields(logrus.Fields{
		"ip":       rec.IPBefore,
		"mnemonic": rec.Mnemonic,
		"cycles":   rec.Cycles,
	}).Debug("step")

	return rec, nil
}

// Run steps through the stream, calling fn for every record, until the
// stream ends cleanly, fn returns an error, or a fatal error occurs.
func (s *Session) Run(fn func(*Record) error) error {
	for {
		rec, err := s.Step()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
