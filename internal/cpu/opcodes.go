package cpu

// execFunc is the semantic effect of an opcode, applied on the cycle
// the addressing-mode machinery determines it's due.
type execFunc func(c *CPU)

// opcodeEntry is one row of the 256-entry dispatch table: everything
// fetch needs to know to build the rest of the instruction's micro-step
// queue. A zero-value entry (mnemonic == "") marks an opcode outside
// the official instruction set.
type opcodeEntry struct {
	mnemonic   string
	mode       AddressingMode
	access     accessKind
	exec       execFunc
	branchCond func(c *CPU) bool // set only for the eight relative branches
}

var opcodeTable [256]opcodeEntry

func op(code uint8, mnemonic string, mode AddressingMode, access accessKind, exec execFunc) {
	opcodeTable[code] = opcodeEntry{mnemonic: mnemonic, mode: mode, access: access, exec: exec}
}

func branch(code uint8, mnemonic string, cond func(c *CPU) bool) {
	opcodeTable[code] = opcodeEntry{mnemonic: mnemonic, mode: modeRelative, access: accessControl, branchCond: cond}
}

func control(code uint8, mnemonic string, mode AddressingMode) {
	opcodeTable[code] = opcodeEntry{mnemonic: mnemonic, mode: mode, access: accessControl}
}

func init() {
	// ADC
	op(0x69, "ADC", modeImmediate, accessRead, execADC)
	op(0x65, "ADC", modeZeroPage, accessRead, execADC)
	op(0x75, "ADC", modeZeroPageX, accessRead, execADC)
	op(0x6D, "ADC", modeAbsolute, accessRead, execADC)
	op(0x7D, "ADC", modeAbsoluteX, accessRead, execADC)
	op(0x79, "ADC", modeAbsoluteY, accessRead, execADC)
	op(0x61, "ADC", modeIndirectX, accessRead, execADC)
	op(0x71, "ADC", modeIndirectY, accessRead, execADC)

	// AND
	op(0x29, "AND", modeImmediate, accessRead, execAND)
	op(0x25, "AND", modeZeroPage, accessRead, execAND)
	op(0x35, "AND", modeZeroPageX, accessRead, execAND)
	op(0x2D, "AND", modeAbsolute, accessRead, execAND)
	op(0x3D, "AND", modeAbsoluteX, accessRead, execAND)
	op(0x39, "AND", modeAbsoluteY, accessRead, execAND)
	op(0x21, "AND", modeIndirectX, accessRead, execAND)
	op(0x31, "AND", modeIndirectY, accessRead, execAND)

	// ASL
	op(0x0A, "ASL", modeAccumulator, accessRMW, execASL)
	op(0x06, "ASL", modeZeroPage, accessRMW, execASL)
	op(0x16, "ASL", modeZeroPageX, accessRMW, execASL)
	op(0x0E, "ASL", modeAbsolute, accessRMW, execASL)
	op(0x1E, "ASL", modeAbsoluteX, accessRMW, execASL)

	// Branches
	branch(0x90, "BCC", condBCC)
	branch(0xB0, "BCS", condBCS)
	branch(0xF0, "BEQ", condBEQ)
	branch(0x30, "BMI", condBMI)
	branch(0xD0, "BNE", condBNE)
	branch(0x10, "BPL", condBPL)
	branch(0x50, "BVC", condBVC)
	branch(0x70, "BVS", condBVS)

	// BIT
	op(0x24, "BIT", modeZeroPage, accessRead, execBIT)
	op(0x2C, "BIT", modeAbsolute, accessRead, execBIT)

	// BRK
	control(0x00, "BRK", modeImplied)

	// CMP
	op(0xC9, "CMP", modeImmediate, accessRead, execCMP)
	op(0xC5, "CMP", modeZeroPage, accessRead, execCMP)
	op(0xD5, "CMP", modeZeroPageX, accessRead, execCMP)
	op(0xCD, "CMP", modeAbsolute, accessRead, execCMP)
	op(0xDD, "CMP", modeAbsoluteX, accessRead, execCMP)
	op(0xD9, "CMP", modeAbsoluteY, accessRead, execCMP)
	op(0xC1, "CMP", modeIndirectX, accessRead, execCMP)
	op(0xD1, "CMP", modeIndirectY, accessRead, execCMP)

	// CPX / CPY
	op(0xE0, "CPX", modeImmediate, accessRead, execCPX)
	op(0xE4, "CPX", modeZeroPage, accessRead, execCPX)
	op(0xEC, "CPX", modeAbsolute, accessRead, execCPX)
	op(0xC0, "CPY", modeImmediate, accessRead, execCPY)
	op(0xC4, "CPY", modeZeroPage, accessRead, execCPY)
	op(0xCC, "CPY", modeAbsolute, accessRead, execCPY)

	// DEC / DEX / DEY
	op(0xC6, "DEC", modeZeroPage, accessRMW, execDEC)
	op(0xD6, "DEC", modeZeroPageX, accessRMW, execDEC)
	op(0xCE, "DEC", modeAbsolute, accessRMW, execDEC)
	op(0xDE, "DEC", modeAbsoluteX, accessRMW, execDEC)
	op(0xCA, "DEX", modeImplied, accessRead, execDEX)
	op(0x88, "DEY", modeImplied, accessRead, execDEY)

	// EOR
	op(0x49, "EOR", modeImmediate, accessRead, execEOR)
	op(0x45, "EOR", modeZeroPage, accessRead, execEOR)
	op(0x55, "EOR", modeZeroPageX, accessRead, execEOR)
	op(0x4D, "EOR", modeAbsolute, accessRead, execEOR)
	op(0x5D, "EOR", modeAbsoluteX, accessRead, execEOR)
	op(0x59, "EOR", modeAbsoluteY, accessRead, execEOR)
	op(0x41, "EOR", modeIndirectX, accessRead, execEOR)
	op(0x51, "EOR", modeIndirectY, accessRead, execEOR)

	// Flag ops
	op(0x18, "CLC", modeImplied, accessRead, execCLC)
	op(0x38, "SEC", modeImplied, accessRead, execSEC)
	op(0x58, "CLI", modeImplied, accessRead, execCLI)
	op(0x78, "SEI", modeImplied, accessRead, execSEI)
	op(0xB8, "CLV", modeImplied, accessRead, execCLV)
	op(0xD8, "CLD", modeImplied, accessRead, execCLD)
	op(0xF8, "SED", modeImplied, accessRead, execSED)

	// INC / INX / INY
	op(0xE6, "INC", modeZeroPage, accessRMW, execINC)
	op(0xF6, "INC", modeZeroPageX, accessRMW, execINC)
	op(0xEE, "INC", modeAbsolute, accessRMW, execINC)
	op(0xFE, "INC", modeAbsoluteX, accessRMW, execINC)
	op(0xE8, "INX", modeImplied, accessRead, execINX)
	op(0xC8, "INY", modeImplied, accessRead, execINY)

	// JMP / JSR
	control(0x4C, "JMP", modeAbsolute)
	control(0x6C, "JMP", modeIndirect)
	control(0x20, "JSR", modeAbsolute)

	// LDA / LDX / LDY
	op(0xA9, "LDA", modeImmediate, accessRead, execLDA)
	op(0xA5, "LDA", modeZeroPage, accessRead, execLDA)
	op(0xB5, "LDA", modeZeroPageX, accessRead, execLDA)
	op(0xAD, "LDA", modeAbsolute, accessRead, execLDA)
	op(0xBD, "LDA", modeAbsoluteX, accessRead, execLDA)
	op(0xB9, "LDA", modeAbsoluteY, accessRead, execLDA)
	op(0xA1, "LDA", modeIndirectX, accessRead, execLDA)
	op(0xB1, "LDA", modeIndirectY, accessRead, execLDA)

	op(0xA2, "LDX", modeImmediate, accessRead, execLDX)
	op(0xA6, "LDX", modeZeroPage, accessRead, execLDX)
	op(0xB6, "LDX", modeZeroPageY, accessRead, execLDX)
	op(0xAE, "LDX", modeAbsolute, accessRead, execLDX)
	op(0xBE, "LDX", modeAbsoluteY, accessRead, execLDX)

	op(0xA0, "LDY", modeImmediate, accessRead, execLDY)
	op(0xA4, "LDY", modeZeroPage, accessRead, execLDY)
	op(0xB4, "LDY", modeZeroPageX, accessRead, execLDY)
	op(0xAC, "LDY", modeAbsolute, accessRead, execLDY)
	op(0xBC, "LDY", modeAbsoluteX, accessRead, execLDY)

	// LSR
	op(0x4A, "LSR", modeAccumulator, accessRMW, execLSR)
	op(0x46, "LSR", modeZeroPage, accessRMW, execLSR)
	op(0x56, "LSR", modeZeroPageX, accessRMW, execLSR)
	op(0x4E, "LSR", modeAbsolute, accessRMW, execLSR)
	op(0x5E, "LSR", modeAbsoluteX, accessRMW, execLSR)

	// NOP
	op(0xEA, "NOP", modeImplied, accessRead, execNOP)

	// ORA
	op(0x09, "ORA", modeImmediate, accessRead, execORA)
	op(0x05, "ORA", modeZeroPage, accessRead, execORA)
	op(0x15, "ORA", modeZeroPageX, accessRead, execORA)
	op(0x0D, "ORA", modeAbsolute, accessRead, execORA)
	op(0x1D, "ORA", modeAbsoluteX, accessRead, execORA)
	op(0x19, "ORA", modeAbsoluteY, accessRead, execORA)
	op(0x01, "ORA", modeIndirectX, accessRead, execORA)
	op(0x11, "ORA", modeIndirectY, accessRead, execORA)

	// Stack ops
	control(0x48, "PHA", modeImplied)
	control(0x08, "PHP", modeImplied)
	control(0x68, "PLA", modeImplied)
	control(0x28, "PLP", modeImplied)

	// ROL / ROR
	op(0x2A, "ROL", modeAccumulator, accessRMW, execROL)
	op(0x26, "ROL", modeZeroPage, accessRMW, execROL)
	op(0x36, "ROL", modeZeroPageX, accessRMW, execROL)
	op(0x2E, "ROL", modeAbsolute, accessRMW, execROL)
	op(0x3E, "ROL", modeAbsoluteX, accessRMW, execROL)

	op(0x6A, "ROR", modeAccumulator, accessRMW, execROR)
	op(0x66, "ROR", modeZeroPage, accessRMW, execROR)
	op(0x76, "ROR", modeZeroPageX, accessRMW, execROR)
	op(0x6E, "ROR", modeAbsolute, accessRMW, execROR)
	op(0x7E, "ROR", modeAbsoluteX, accessRMW, execROR)

	// RTI / RTS
	control(0x40, "RTI", modeImplied)
	control(0x60, "RTS", modeImplied)

	// SBC
	op(0xE9, "SBC", modeImmediate, accessRead, execSBC)
	op(0xE5, "SBC", modeZeroPage, accessRead, execSBC)
	op(0xF5, "SBC", modeZeroPageX, accessRead, execSBC)
	op(0xED, "SBC", modeAbsolute, accessRead, execSBC)
	op(0xFD, "SBC", modeAbsoluteX, accessRead, execSBC)
	op(0xF9, "SBC", modeAbsoluteY, accessRead, execSBC)
	op(0xE1, "SBC", modeIndirectX, accessRead, execSBC)
	op(0xF1, "SBC", modeIndirectY, accessRead, execSBC)

	// STA / STX / STY
	op(0x85, "STA", modeZeroPage, accessWrite, execSTA)
	op(0x95, "STA", modeZeroPageX, accessWrite, execSTA)
	op(0x8D, "STA", modeAbsolute, accessWrite, execSTA)
	op(0x9D, "STA", modeAbsoluteX, accessWrite, execSTA)
	op(0x99, "STA", modeAbsoluteY, accessWrite, execSTA)
	op(0x81, "STA", modeIndirectX, accessWrite, execSTA)
	op(0x91, "STA", modeIndirectY, accessWrite, execSTA)

	op(0x86, "STX", modeZeroPage, accessWrite, execSTX)
	op(0x96, "STX", modeZeroPageY, accessWrite, execSTX)
	op(0x8E, "STX", modeAbsolute, accessWrite, execSTX)

	op(0x84, "STY", modeZeroPage, accessWrite, execSTY)
	op(0x94, "STY", modeZeroPageX, accessWrite, execSTY)
	op(0x8C, "STY", modeAbsolute, accessWrite, execSTY)

	// Register transfers
	op(0xAA, "TAX", modeImplied, accessRead, execTAX)
	op(0xA8, "TAY", modeImplied, accessRead, execTAY)
	op(0xBA, "TSX", modeImplied, accessRead, execTSX)
	op(0x8A, "TXA", modeImplied, accessRead, execTXA)
	op(0x9A, "TXS", modeImplied, accessRead, execTXS)
	op(0x98, "TYA", modeImplied, accessRead, execTYA)
}
