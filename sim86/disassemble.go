package sim86

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Instruction is a decoded instruction. Src is nil when the source is an
// immediate. For jumps Immediate holds the sign-extended displacement.
type Instruction struct {
	Offset int64
	Length int
	Opcode byte

	Mnemonic string
	Family   Family
	Op       Operation
	Width    Width

	Dst Operand
	Src Operand

	Immediate    uint16
	HasImmediate bool
}

// Displacement returns the signed jump displacement of a jump instruction,
// relative to the end of the instruction.
func (in Instruction) Displacement() int16 {
	return int16(in.Immediate)
}

// String is a debug form for logs and test failures. Jumps show the raw
// displacement and memory immediates carry no size prefix; package render
// produces the NASM text.
func (in Instruction) String() string {
	switch {
	case in.Family == FamilyJump:
		return fmt.Sprintf("%s %d", in.Mnemonic, in.Displacement())
	case in.Src != nil:
		return fmt.Sprintf("%s %s, %s", in.Mnemonic, in.Dst, in.Src)
	}
	return fmt.Sprintf("%s %s, %d", in.Mnemonic, in.Dst, signed(in.Width, in.Immediate))
}

// Skip records a leading byte, or a whole instruction, that was passed over
// because it isn't supported.
type Skip struct {
	Offset int64
	Opcode byte
	Length int
}

// Decoder reads instructions from a Reader one at a time.
type Decoder struct {
	r     *Reader
	log   logrus.FieldLogger
	skips []Skip
}

// NewDecoder returns a decoder reading from r. A nil logger uses the logrus
// standard logger.
func NewDecoder(r *Reader, log logrus.FieldLogger) *Decoder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Decoder{r: r, log: log}
}

// Reader returns the underlying reader.
func (d *Decoder) Reader() *Reader {
	return d.r
}

// Skipped returns every skip recorded so far.
func (d *Decoder) Skipped() []Skip {
	return d.skips
}

func (d *Decoder) skip(offset int64, opcode byte, length int) {
	d.skips = append(d.skips, Skip{Offset: offset, Opcode: opcode, Length: length})
	d.log.WithFields(logrus.Fields{
		"offset": offset,
		"opcode": fmt.Sprintf("%08b", opcode),
		"length": length,
	}).Warn("unsupported instruction, skipping")
}

// Next decodes the next instruction. It returns io.EOF when the stream ends
// on an instruction boundary. Any other error is fatal.
func (d *Decoder) Next() (*Instruction, error) {
	for {
		start := d.r.Pos()
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}

		enc, ok := encoder.Lookup(b)
		if !ok {
			d.skip(start, b, 1)
			continue
		}

		in := &Instruction{
			Offset:   start,
			Opcode:   b,
			Mnemonic: enc.Mnemonic,
			Family:   enc.Family,
			Op:       enc.Operation,
		}

		switch enc.Family {
		case FamilyImmToReg:
			err = d.immToReg(enc, in)
		case FamilyImmToRM:
			err = d.immToRM(enc, in)
		case FamilyRMToRM:
			err = d.rmToRM(enc, in)
		case FamilyImmToAcc:
			err = d.immToAcc(enc, in)
		case FamilyJump:
			err = d.jump(in)
		}
		if err != nil {
			return nil, &DecodeError{Offset: start, Opcode: b, Err: truncated(err)}
		}
		in.Length = int(d.r.Pos() - start)

		if in.Mnemonic == "" {
			d.skip(start, b, in.Length)
			continue
		}

		return in, nil
	}
}

func field(enc Encoding, b byte, name string) byte {
	v, _ := enc.Field(b, name)
	return v
}

// immediate reads an immediate, sign-extending 8-bit values to 16 bits.
func (d *Decoder) immediate(wide bool) (uint16, error) {
	if wide {
		return d.r.ReadWord()
	}
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(int16(int8(b))), nil
}

// modRM reads the mod/reg/rm byte and any displacement that follows it.
func (d *Decoder) modRM(w byte) (reg byte, rm Operand, err error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	mod := b >> 6
	reg = (b >> 3) & 0b111
	rm, err = DecodeOperand(d.r, mod, w, b&0b111)
	return reg, rm, err
}

// [1011|w|reg] [data] [data if w = 1]
func (d *Decoder) immToReg(enc Encoding, in *Instruction) error {
	w := field(enc, in.Opcode, "W")
	in.Width = Width(w)
	in.Dst = Register{Width: in.Width, Index: field(enc, in.Opcode, "REG")}

	imm, err := d.immediate(w == 1)
	if err != nil {
		return err
	}
	in.Immediate, in.HasImmediate = imm, true
	return nil
}

// [100000|s|w] [mod|op|r/m] [disp-lo] [disp-hi] [data] [data if s:w = 01]
// [1100011|w]  [mod|000|r/m] [disp-lo] [disp-hi] [data] [data if w = 1]
func (d *Decoder) immToRM(enc Encoding, in *Instruction) error {
	w := field(enc, in.Opcode, "W")
	s, hasS := enc.Field(in.Opcode, "S")
	in.Width = Width(w)

	reg, rm, err := d.modRM(w)
	if err != nil {
		return err
	}
	in.Dst = rm

	if enc.Mnemonic == "-" {
		in.Mnemonic = aluOps[reg]
		in.Op = operations[in.Mnemonic]
	}

	wide := w == 1
	if hasS {
		wide = s == 0 && w == 1
	}
	imm, err := d.immediate(wide)
	if err != nil {
		return err
	}
	in.Immediate, in.HasImmediate = imm, true
	return nil
}

// [opcode|d|w] [mod|reg|r/m] [disp-lo] [disp-hi]
func (d *Decoder) rmToRM(enc Encoding, in *Instruction) error {
	w := field(enc, in.Opcode, "W")
	in.Width = Width(w)

	reg, rm, err := d.modRM(w)
	if err != nil {
		return err
	}
	regOp := Register{Width: in.Width, Index: reg}

	if field(enc, in.Opcode, "D") == 1 {
		in.Dst, in.Src = regOp, rm
	} else {
		in.Dst, in.Src = rm, regOp
	}
	return nil
}

// [opcode|w] [data] [data if w = 1]
func (d *Decoder) immToAcc(enc Encoding, in *Instruction) error {
	w := field(enc, in.Opcode, "W")
	in.Width = Width(w)
	in.Dst = Register{Width: in.Width, Index: AX}

	imm, err := d.immediate(w == 1)
	if err != nil {
		return err
	}
	in.Immediate, in.HasImmediate = imm, true
	return nil
}

// [opcode] [ip-inc8]
func (d *Decoder) jump(in *Instruction) error {
	in.Width = Byte
	disp, err := d.immediate(false)
	if err != nil {
		return err
	}
	in.Immediate, in.HasImmediate = disp, true
	return nil
}
