package cpu

// buildResetSequence models the 7-cycle reset sequence: two internal
// reads, three cycles where real hardware performs phantom stack writes
// (the write line is held high so SP decrements without touching
// memory — modeled here as a no-op rather than also decrementing SP,
// since New already seeds SP at its post-reset value of $FD), then the
// vector fetch.
func buildResetSequence() []microStep {
	return []microStep{
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) { c.read(c.PC) },
		func(c *CPU) {},
		func(c *CPU) {},
		func(c *CPU) {},
		func(c *CPU) { c.addrLo = c.read(resetVec) },
		func(c *CPU) {
			c.addrHi = c.read(resetVec + 1)
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
			c.P |= FlagI
		},
	}
}

// buildInterruptSequence builds the 7-cycle NMI/IRQ/BRK sequence. BRK
// reads and discards a padding byte after the opcode (the "signature"
// byte debuggers use to identify the break) and pushes P with the B
// flag set; NMI/IRQ instead spend that cycle on an internal read and
// push P with B clear, per the pushed-flags convention.
func buildInterruptSequence(vector uint16, isBRK bool) []microStep {
	var steps []microStep
	if isBRK {
		steps = append(steps, func(c *CPU) {
			c.read(c.PC)
			c.PC++
		})
	} else {
		steps = append(steps,
			func(c *CPU) { c.read(c.PC) },
			func(c *CPU) { c.read(c.PC) },
		)
	}

	steps = append(steps,
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			p := (c.P &^ FlagB) | Flag5
			if isBRK {
				p |= FlagB
			}
			c.push(p)
			c.P |= FlagI
		},
		func(c *CPU) { c.addrLo = c.read(vector) },
		func(c *CPU) {
			c.addrHi = c.read(vector + 1)
			c.PC = uint16(c.addrHi)<<8 | uint16(c.addrLo)
		},
	)
	return steps
}
