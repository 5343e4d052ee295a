package cpu

// buildControlSteps builds the micro-step queue for every instruction
// whose cycle pattern doesn't fit the generic addressing-mode machinery:
// jumps, subroutine linkage, stack ops and conditional branches.
func buildControlSteps(e opcodeEntry) []microStep {
	switch e.mnemonic {
	case "JMP":
		if e.mode == modeIndirect {
			return buildJMPIndirect()
		}
		return buildJMPAbsolute()
	case "JSR":
		return buildJSR()
	case "RTS":
		return buildRTS()
	case "RTI":
		return buildRTI()
	case "BRK":
		return buildInterruptSequence(irqVector, true)
	case "PHA":
		return buildPHA()
	case "PHP":
		return buildPHP()
	case "PLA":
		return buildPLA()
	case "PLP":
		return buildPLP()
	default:
		return buildBranch(e)
	}
}

func buildJMPAbsolute() []microStep {
	return []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.addrHi = c.read(c.PC)
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
	}
}

// buildJMPIndirect reproduces the famous page-wrap bug: if the pointer's
// low byte is $FF, the high byte is fetched from the start of the same
// page rather than the next page.
func buildJMPIndirect() []microStep {
	return []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.addrHi = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.baseAddr = uint16(c.addrHi)<<8 | uint16(c.addrLo)
			c.indexLo = c.read(c.baseAddr)
		},
		func(c *CPU) {
			hiPtr := (c.baseAddr & 0xFF00) | ((c.baseAddr + 1) & 0x00FF)
			c.indexHi = c.read(hiPtr)
			c.PC = uint16(c.indexHi)<<8 | uint16(c.indexLo)
		},
	}
}

func buildJSR() []microStep {
	return []microStep{
		func(c *CPU) {
			c.addrLo = c.read(c.PC)
			c.PC++
		},
		func(c *CPU) {
			c.read(stackBase + uint16(c.SP)) // internal operation
		},
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			c.addrHi = c.read(c.PC)
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
	}
}

func buildRTS() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.read(stackBase + uint16(c.SP)) },
		func(c *CPU) { c.addrLo = c.pull() },
		func(c *CPU) {
			c.addrHi = c.pull()
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
		func(c *CPU) { c.PC++ },
	}
}

func buildRTI() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.read(stackBase + uint16(c.SP)) },
		func(c *CPU) {
			p := c.pull()
			c.P = (p &^ FlagB) | Flag5
		},
		func(c *CPU) { c.addrLo = c.pull() },
		func(c *CPU) {
			c.addrHi = c.pull()
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
	}
}

func buildPHA() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.push(c.A) },
	}
}

func buildPHP() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.push(c.P | FlagB | Flag5) },
	}
}

func buildPLA() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.read(stackBase + uint16(c.SP)) },
		func(c *CPU) {
			c.A = c.pull()
			c.setZN(c.A)
		},
	}
}

func buildPLP() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.read(stackBase + uint16(c.SP)) },
		func(c *CPU) {
			p := c.pull()
			c.P = (p &^ FlagB) | Flag5
		},
	}
}

// buildBranch reads the offset on the instruction's second cycle and
// decides there whether the branch is taken; a taken branch appends its
// own extra cycle(s) to the pending queue at run time rather than
// committing to a fixed length up front, since the outcome depends on
// flags set by whatever ran before it.
func buildBranch(e opcodeEntry) []microStep {
	return []microStep{func(c *CPU) {
		offset := c.read(c.PC)
		c.PC++
		if !e.branchCond(c) {
			return
		}

		oldPC := c.PC
		target := uint16(int32(oldPC) + int32(int8(offset)))
		wrongPage := (oldPC & 0xFF00) | (target & 0x00FF)
		crossed := (target & 0xFF00) != (oldPC & 0xFF00)

		c.pending = append(c.pending, func(c *CPU) {
			c.read(wrongPage)
			if !crossed {
				c.PC = target
				return
			}
			c.pending = append(c.pending, func(c *CPU) {
				c.read(wrongPage)
				c.PC = target
			})
		})
	}}
}
