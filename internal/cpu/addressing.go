package cpu

// AddressingMode identifies how an opcode's operand address is formed.
type AddressingMode int

const (
	modeImplied AddressingMode = iota
	modeAccumulator
	modeImmediate
	modeZeroPage
	modeZeroPageX
	modeZeroPageY
	modeAbsolute
	modeAbsoluteX
	modeAbsoluteY
	modeIndirect // JMP (ind) only
	modeIndirectX
	modeIndirectY
	modeRelative // branches
)

// accessKind distinguishes how the resolved address is used, since that
// changes both the cycle count and whether the page-cross short-circuit
// applies.
type accessKind int

const (
	accessRead accessKind = iota
	accessWrite
	accessRMW
	accessControl // JMP/JSR/RTS/RTI/BRK/stack ops/branches: built by control.go
)

// buildAddressingSteps returns the micro-step queue for every cycle
// after the opcode fetch. Control-flow instructions are dispatched to
// control.go; everything else goes through the generic addressing-mode
// machinery below.
func buildAddressingSteps(e opcodeEntry) []microStep {
	if e.access == accessControl {
		return buildControlSteps(e)
	}

	switch e.mode {
	case modeImplied, modeAccumulator:
		return []microStep{func(c *CPU) {
			c.read(c.PC) // dummy read of the next opcode byte, discarded
			e.exec(c)
		}}

	case modeImmediate:
		return []microStep{func(c *CPU) {
			c.operand = c.read(c.PC)
			c.PC++
			e.exec(c)
		}}

	case modeZeroPage:
		return buildZeroPage(e)
	case modeZeroPageX:
		return buildZeroPageIndexed(e, func(c *CPU) uint8 { return c.X })
	case modeZeroPageY:
		return buildZeroPageIndexed(e, func(c *CPU) uint8 { return c.Y })
	case modeAbsolute:
		return buildAbsolute(e)
	case modeAbsoluteX:
		return buildAbsoluteIndexed(e, func(c *CPU) uint8 { return c.X })
	case modeAbsoluteY:
		return buildAbsoluteIndexed(e, func(c *CPU) uint8 { return c.Y })
	case modeIndirectX:
		return buildIndirectX(e)
	case modeIndirectY:
		return buildIndirectY(e)
	}
	return nil
}

func buildZeroPage(e opcodeEntry) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
			c.targetAddr = uint16(c.addrLo)
		},
	}
	return appendFinalAccess(steps, e)
}

func buildZeroPageIndexed(e opcodeEntry, index func(*CPU) uint8) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.read(uint16(c.addrLo)) // dummy read before indexing
			c.targetAddr = uint16(c.addrLo + index(c))
		},
	}
	return appendFinalAccess(steps, e)
}

func buildAbsolute(e opcodeEntry) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.addrHi = c.read(c.PC)
			c.PC++
			c.targetAddr = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
	}
	return appendFinalAccess(steps, e)
}

func buildAbsoluteIndexed(e opcodeEntry, index func(*CPU) uint8) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.addrHi = c.read(c.PC)
			c.PC++
		},
	}

	// Speculative read at {addrHi, addrLo+idx mod 256}; short-circuits to
	// EXECUTE on this cycle if there's no page cross and the opcode is
	// not a store/RMW.
	steps = append(steps, func(c *CPU) {
		idx := index(c)
		lowSum := uint16(c.addrLo) + uint16(idx)
		wrapped := uint16(c.addrHi)<<8 | (lowSum & 0xFF)
		c.pageCrossed = lowSum > 0xFF
		full := (uint16(c.addrHi)<<8 | uint16(c.addrLo)) + uint16(idx)
		c.targetAddr = full

		if e.access == accessRead && !c.pageCrossed {
			c.operand = c.read(full)
			e.exec(c)
			return
		}
		c.read(wrapped) // dummy read at the uncorrected address
	})

	switch e.access {
	case accessRead:
		steps = append(steps, func(c *CPU) {
			c.operand = c.read(c.targetAddr)
			e.exec(c)
		})
	case accessWrite:
		steps = append(steps, func(c *CPU) {
			e.exec(c)
		})
	case accessRMW:
		steps = append(steps,
			func(c *CPU) { c.operand = c.read(c.targetAddr) },
			func(c *CPU) { c.write(c.targetAddr, c.operand) }, // dummy write-back
			func(c *CPU) { e.exec(c) },
		)
	}
	return steps
}

func buildIndirectX(e opcodeEntry) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.baseAddr = uint16(c.read(c.PC))
			c.PC++
		},
		func(c *CPU) {
			c.read(c.baseAddr) // dummy read of the base ZP address
		},
		func(c *CPU) {
			c.indexLo = c.read(uint16(uint8(c.baseAddr) + c.X))
		},
		func(c *CPU) {
			c.indexHi = c.read(uint16(uint8(c.baseAddr) + c.X + 1))
			c.targetAddr = uint16(c.indexHi)<<8 | uint16(c.indexLo)
		},
	}
	return appendFinalAccess(steps, e)
}

func buildIndirectY(e opcodeEntry) []microStep {
	steps := []microStep{
		func(c *CPU) {
			c.baseAddr = uint16(c.read(c.PC))
			c.PC++
		},
		func(c *CPU) {
			c.indexLo = c.read(c.baseAddr)
		},
		func(c *CPU) {
			c.indexHi = c.read(uint16(uint8(c.baseAddr) + 1))
		},
	}

	steps = append(steps, func(c *CPU) {
		lowSum := uint16(c.indexLo) + uint16(c.Y)
		wrapped := uint16(c.indexHi)<<8 | (lowSum & 0xFF)
		c.pageCrossed = lowSum > 0xFF
		full := (uint16(c.indexHi)<<8 | uint16(c.indexLo)) + uint16(c.Y)
		c.targetAddr = full

		if e.access == accessRead && !c.pageCrossed {
			c.operand = c.read(full)
			e.exec(c)
			return
		}
		c.read(wrapped)
	})

	switch e.access {
	case accessRead:
		steps = append(steps, func(c *CPU) {
			c.operand = c.read(c.targetAddr)
			e.exec(c)
		})
	case accessWrite:
		steps = append(steps, func(c *CPU) {
			e.exec(c)
		})
	case accessRMW:
		steps = append(steps,
			func(c *CPU) { c.operand = c.read(c.targetAddr) },
			func(c *CPU) { c.write(c.targetAddr, c.operand) },
			func(c *CPU) { e.exec(c) },
		)
	}
	return steps
}

// appendFinalAccess appends the cycles that actually touch the resolved
// address for non-indexed modes (ZP, ZP-indexed, absolute): a single
// read cycle, a single write cycle, or the three-cycle read/dummy-write/
// write-back RMW sequence.
func appendFinalAccess(steps []microStep, e opcodeEntry) []microStep {
	switch e.access {
	case accessRead:
		return append(steps, func(c *CPU) {
			c.operand = c.read(c.targetAddr)
			e.exec(c)
		})
	case accessWrite:
		return append(steps, func(c *CPU) {
			e.exec(c)
		})
	case accessRMW:
		return append(steps,
			func(c *CPU) { c.operand = c.read(c.targetAddr) },
			func(c *CPU) { c.write(c.targetAddr, c.operand) },
			func(c *CPU) { e.exec(c) },
		)
	}
	return steps
}
