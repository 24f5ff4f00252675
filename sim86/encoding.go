package sim86

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	_ "embed"
)

var (
	//go:embed encodings.txt
	instructionEncodings string

	encoder = MustEncoder(instructionEncodings)
)

// Family groups the encodings that share an operand layout.
type Family byte

const (
	FamilyNone Family = iota
	FamilyImmToReg
	FamilyImmToRM
	FamilyRMToRM
	FamilyImmToAcc
	FamilyJump
)

var families = map[string]Family{
	"imm_reg": FamilyImmToReg,
	"imm_rm":  FamilyImmToRM,
	"rm_rm":   FamilyRMToRM,
	"imm_acc": FamilyImmToAcc,
	"jump":    FamilyJump,
}

func (f Family) String() string {
	for n, v := range families {
		if v == f {
			return n
		}
	}
	return "none"
}

// Operation is the effect an instruction has when simulated.
type Operation byte

const (
	OpNone Operation = iota
	OpMov
	OpAdd
	OpSub
	OpCmp
	OpJump
)

func (op Operation) String() string {
	switch op {
	case OpMov:
		return "mov"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpCmp:
		return "cmp"
	case OpJump:
		return "jump"
	}
	return "none"
}

var operations = map[string]Operation{
	"mov": OpMov,
	"add": OpAdd,
	"sub": OpSub,
	"cmp": OpCmp,
}

// aluOps maps the REG field of the immediate to register/memory family to a
// mnemonic. Empty entries are operations that aren't supported.
var aluOps = [8]string{
	0b000: "add",
	0b101: "sub",
	0b111: "cmp",
}

var sizes = map[string]int{
	"D":   1,
	"W":   1,
	"S":   1,
	"REG": 3,
}

func sizeOf(val string) int {
	if size, ok := sizes[val]; ok {
		return size
	}
	return len(val)
}

func isConst(val string) bool {
	_, ok := sizes[val]
	return !ok
}

// Encoder holds the parsed encoding table, most specific encoding first.
type Encoder struct {
	encodings []Encoding
}

// Encoding is one line of the encoding table.
type Encoding struct {
	Orig string

	Mnemonic  string
	Family    Family
	Operation Operation

	Mask    byte
	Pattern byte

	Parts []Part
}

// Part is a constant or a named field within the leading byte. Start counts
// from the most significant bit.
type Part struct {
	Name  string
	Start int
	Len   int

	IsConst bool
}

// Fixed is the number of constant bits in the encoding.
func (e Encoding) Fixed() int {
	return bits.OnesCount8(e.Mask)
}

// Matches reports whether b is an opcode of this encoding.
func (e Encoding) Matches(b byte) bool {
	return b&e.Mask == e.Pattern
}

// Field extracts the named field from b. ok is false if the encoding has no
// such field. Constant parts are not fields.
func (e Encoding) Field(b byte, name string) (v byte, ok bool) {
	for _, p := range e.Parts {
		if p.Name == name && !p.IsConst {
			return (b >> (8 - (p.Start + p.Len))) & mask(p.Len), true
		}
	}
	return 0, false
}

func (e Encoding) String() string {
	return fmt.Sprintf("%s %s %08b/%08b", e.Mnemonic, e.Family, e.Pattern, e.Mask)
}

// NewEncoder parses an encoding table. Every line must describe exactly 8
// bits and no byte may match more than one line.
func NewEncoder(instructionEncodings string) (Encoder, error) {
	var e Encoder
	for i, line := range strings.Split(instructionEncodings, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return Encoder{}, fmt.Errorf("line %d (%s): expected mnemonic, family and parts", i+1, line)
		}

		enc := Encoding{Orig: line, Mnemonic: fields[0]}

		family, ok := families[fields[1]]
		if !ok {
			return Encoder{}, fmt.Errorf("line %d (%s): unknown family %q", i+1, line, fields[1])
		}
		enc.Family = family

		switch {
		case family == FamilyJump:
			enc.Operation = OpJump
		case enc.Mnemonic != "-":
			enc.Operation, ok = operations[enc.Mnemonic]
			if !ok {
				return Encoder{}, fmt.Errorf("line %d (%s): unknown mnemonic %q", i+1, line, enc.Mnemonic)
			}
		}

		pi := 0
		for _, p := range strings.Split(fields[2], "_") {
			size := sizeOf(p)
			part := Part{
				Name:  p,
				Start: pi,
				Len:   size,
			}
			if isConst(p) {
				c, err := convert(p)
				if err != nil {
					return Encoder{}, fmt.Errorf("line %d (%s): %w", i+1, line, err)
				}
				part.IsConst = true
				shift := 8 - (pi + size)
				if shift >= 0 {
					enc.Mask |= mask(size) << shift
					enc.Pattern |= c << shift
				}
			}
			enc.Parts = append(enc.Parts, part)
			pi += size
		}
		if pi != 8 {
			return Encoder{}, fmt.Errorf("line %d (%s): parts %q don't equal 8 bits", i+1, line, fields[2])
		}

		e.encodings = append(e.encodings, enc)
	}

	sort.SliceStable(e.encodings, func(i, j int) bool {
		return e.encodings[i].Fixed() > e.encodings[j].Fixed()
	})

	if err := e.checkExclusive(); err != nil {
		return Encoder{}, err
	}

	return e, nil
}

// MustEncoder is like NewEncoder but panics if the table is invalid.
func MustEncoder(instructionEncodings string) Encoder {
	e, err := NewEncoder(instructionEncodings)
	if err != nil {
		panic(fmt.Sprintf("sim86: bad encoding table: %v", err))
	}
	return e
}

func (e Encoder) checkExclusive() error {
	for b := 0; b < 256; b++ {
		found := e.Decode(byte(b))
		if len(found) > 1 {
			return fmt.Errorf("%08b matches both %q and %q", b, found[0].Orig, found[1].Orig)
		}
	}
	return nil
}

// Decode returns every encoding matching b, most specific first.
func (e Encoder) Decode(b byte) []Encoding {
	var found []Encoding
	for _, enc := range e.encodings {
		if enc.Matches(b) {
			found = append(found, enc)
		}
	}
	return found
}

// Lookup returns the first, most specific, encoding matching b.
func (e Encoder) Lookup(b byte) (Encoding, bool) {
	for _, enc := range e.encodings {
		if enc.Matches(b) {
			return enc, true
		}
	}
	return Encoding{}, false
}

// Encodings returns the parsed table, most specific first.
func (e Encoder) Encodings() []Encoding {
	return e.encodings
}

func mask(length int) byte {
	return byte(1<<length - 1)
}

func convert(v string) (byte, error) {
	b := byte(0)
	for i, c := range v {
		switch c {
		case '1':
			b |= 1 << (len(v) - 1 - i)
		case '0':
		default:
			return 0, fmt.Errorf("invalid bit %q in %q", c, v)
		}
	}
	return b, nil
}
