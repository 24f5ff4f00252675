package sim86

// MemorySize is the size of the flat memory in bytes.
const MemorySize = 1 << 16

// Machine is the simulated machine state. It is owned by a single session and
// is only ever mutated by the handler of the instruction being executed.
type Machine struct {
	Registers Registers
	Memory    [MemorySize]byte
	Flags     Flags
	Cycles    int
}

// Effect is the outcome of executing one instruction.
type Effect struct {
	// Old and New hold the destination before and after the instruction.
	Old, New uint16

	Cycles int

	// Taken is set for a branch that redirects the instruction pointer by
	// Jump bytes.
	Taken bool
	Jump  int16

	// Simulated is false for instructions that are decoded only.
	Simulated bool
}

type handler func(m *Machine, in *Instruction) Effect

var handlers = [...]handler{
	OpMov:  execMov,
	OpAdd:  execAdd,
	OpSub:  execSub,
	OpCmp:  execCmp,
	OpJump: execJump,
}

// Execute applies in to the machine and adds its cost to the cycle counter.
// Taken branches are reported in the returned Effect; moving the stream is
// up to the caller.
func (m *Machine) Execute(in *Instruction) Effect {
	if int(in.Op) >= len(handlers) || handlers[in.Op] == nil {
		return Effect{}
	}
	e := handlers[in.Op](m, in)
	e.Simulated = true
	m.Cycles += e.Cycles
	return e
}

// load reads an operand. Memory is byte granular: a memory operand yields
// the byte at its effective address, zero-extended.
func (m *Machine) load(op Operand) uint16 {
	if r, ok := op.(Register); ok {
		return m.Registers.Get(r)
	}
	addr, _ := EffectiveAddress(op, &m.Registers)
	return uint16(m.Memory[addr])
}

// store writes an operand. Only the low byte reaches memory.
func (m *Machine) store(op Operand, v uint16) {
	if r, ok := op.(Register); ok {
		m.Registers.Set(r, v)
		return
	}
	addr, _ := EffectiveAddress(op, &m.Registers)
	m.Memory[addr] = byte(v)
}

func (m *Machine) source(in *Instruction) uint16 {
	if in.Src != nil {
		return m.load(in.Src)
	}
	return in.Width.mask(in.Immediate)
}

func execMov(m *Machine, in *Instruction) Effect {
	v := m.source(in)
	e := Effect{Old: m.load(in.Dst), Cycles: cycles(in)}
	m.store(in.Dst, v)
	e.New = m.load(in.Dst)
	if !IsMemory(in.Dst) {
		m.Flags.update(in.Width, e.New)
	}
	return e
}

func arith(m *Machine, in *Instruction, f func(a, b uint16) uint16) Effect {
	e := Effect{Old: m.load(in.Dst), Cycles: cycles(in)}
	res := in.Width.mask(f(e.Old, m.source(in)))
	m.store(in.Dst, res)
	e.New = m.load(in.Dst)

	// flags follow what was stored, which for memory is a single byte
	w := in.Width
	if IsMemory(in.Dst) {
		w = Byte
	}
	m.Flags.update(w, e.New)
	return e
}

func execAdd(m *Machine, in *Instruction) Effect {
	return arith(m, in, func(a, b uint16) uint16 { return a + b })
}

func execSub(m *Machine, in *Instruction) Effect {
	return arith(m, in, func(a, b uint16) uint16 { return a - b })
}

func execCmp(m *Machine, in *Instruction) Effect {
	dst := m.load(in.Dst)
	m.Flags.update(in.Width, in.Width.mask(dst-m.source(in)))
	return Effect{Old: dst, New: dst, Cycles: cycles(in)}
}

// branches holds the condition of every jump that is simulated. The rest of
// the jump family is decoded but never redirects.
var branches = map[string]func(f Flags) bool{
	"jne": func(f Flags) bool { return !f.Zero() },
}

func execJump(m *Machine, in *Instruction) Effect {
	cond, ok := branches[in.Mnemonic]
	taken := ok && cond(m.Flags)

	cost := jumpCycles[in.Mnemonic]
	if cost == (branchCost{}) {
		cost = jumpCyclesDefault
	}

	if taken {
		return Effect{Taken: true, Jump: in.Displacement(), Cycles: cost.taken}
	}
	return Effect{Cycles: cost.notTaken}
}
