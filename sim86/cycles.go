package sim86

// Instruction clocks, table 2-21 of the 8086 family user's manual. Memory
// forms add the effective address cost of the memory operand.
type cycleRow struct {
	regReg int
	regMem int // register destination, memory source
	memReg int // memory destination, register source
	regImm int
	memImm int
	accImm int
}

var cycleTable = map[Operation]cycleRow{
	OpMov: {regReg: 2, regMem: 8, memReg: 9, regImm: 4, memImm: 10, accImm: 4},
	OpAdd: {regReg: 3, regMem: 9, memReg: 16, regImm: 4, memImm: 17, accImm: 4},
	OpSub: {regReg: 3, regMem: 9, memReg: 16, regImm: 4, memImm: 17, accImm: 4},
	OpCmp: {regReg: 3, regMem: 9, memReg: 9, regImm: 4, memImm: 10, accImm: 4},
}

type branchCost struct {
	taken    int
	notTaken int
}

var jumpCyclesDefault = branchCost{taken: 16, notTaken: 4}

var jumpCycles = map[string]branchCost{
	"loop":   {taken: 17, notTaken: 5},
	"loopz":  {taken: 18, notTaken: 6},
	"loopnz": {taken: 19, notTaken: 5},
	"jcxz":   {taken: 18, notTaken: 6},
}

// cycles estimates the cost of a data transfer or arithmetic instruction.
func cycles(in *Instruction) int {
	row := cycleTable[in.Op]
	switch {
	case in.Family == FamilyImmToAcc:
		return row.accImm
	case in.Src == nil:
		if IsMemory(in.Dst) {
			return row.memImm + EACycles(in.Dst)
		}
		return row.regImm
	case IsMemory(in.Dst):
		return row.memReg + EACycles(in.Dst)
	case IsMemory(in.Src):
		return row.regMem + EACycles(in.Src)
	}
	return row.regReg
}
