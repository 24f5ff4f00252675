package sim86

// Width is the operand size selected by the W bit.
type Width byte

const (
	Byte Width = 0
	Word Width = 1
)

func (w Width) String() string {
	if w == Word {
		return "word"
	}
	return "byte"
}

// signed interprets v as a signed value of width w, sign-extended to 16 bits.
func signed(w Width, v uint16) int16 {
	if w == Byte {
		return int16(int8(v))
	}
	return int16(v)
}

// mask truncates v to width w.
func (w Width) mask(v uint16) uint16 {
	if w == Byte {
		return v & 0x00ff
	}
	return v
}

// Register indexes as encoded in the REG and R/M fields.
const (
	AX = iota
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

var registerNames = [2][8]string{
	Byte: {"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"},
	Word: {"ax", "cx", "dx", "bx", "sp", "bp", "si", "di"},
}

// RegisterName returns the assembler name of the register with index and
// width.
func RegisterName(w Width, index byte) string {
	return registerNames[w&1][index&7]
}

// Registers is the general purpose register file. Slots 0-3 are also
// addressable as independent low and high bytes.
type Registers [8]uint16

// slot returns the word slot and byte shift addressed by a register operand.
// shift is 0 for the low half and 8 for the high half.
func (r Register) slot() (index int, shift uint) {
	if r.Width == Word {
		return int(r.Index & 7), 0
	}
	if r.Index < 4 {
		return int(r.Index), 0
	}
	return int(r.Index - 4), 8
}

// Get returns the value of the register, zero-extended for byte registers.
func (regs *Registers) Get(r Register) uint16 {
	i, shift := r.slot()
	if r.Width == Word {
		return regs[i]
	}
	return (regs[i] >> shift) & 0x00ff
}

// Set writes v to the register. A byte write leaves the other half of the
// slot untouched.
func (regs *Registers) Set(r Register, v uint16) {
	i, shift := r.slot()
	if r.Width == Word {
		regs[i] = v
		return
	}
	regs[i] = regs[i]&^(0x00ff<<shift) | (v&0x00ff)<<shift
}
