// Package cpu implements a cycle-accurate 6502-family CPU core (no
// decimal mode), matching the NES's integration of the 2A03/2A07.
//
// tick() advances exactly one CPU cycle: FETCH reads the opcode and
// loads the instruction's cycle plan from a 256-entry compile-time
// table, DECODE runs the addressing-mode dependent reads that fill the
// instruction's latches, and EXECUTE applies the opcode's semantic
// effect. Every cycle-exact bus access goes through Bus.Read/Write so
// MMIO side effects (buffered PPU writes, open-bus shadow) are always
// observed at the correct cycle.
package cpu

import (
	"github.com/golang/glog"

	"github.com/rng999/nescore/internal/iobus"
)

// Status flag bit positions.
const (
	FlagC uint8 = 1 << 0 // Carry
	FlagZ uint8 = 1 << 1 // Zero
	FlagI uint8 = 1 << 2 // Interrupt disable
	FlagD uint8 = 1 << 3 // Decimal (inert on NES, toggleable)
	FlagB uint8 = 1 << 4 // Break (only meaningful in the pushed copy)
	Flag5 uint8 = 1 << 5 // Unused, always reads 1 when pushed
	FlagV uint8 = 1 << 6 // Overflow
	FlagN uint8 = 1 << 7 // Negative
)

const (
	stackBase = 0x0100
	nmiVector = 0xFFFA
	resetVec  = 0xFFFC
	irqVector = 0xFFFE
)

// IllegalOpcodePolicy selects what happens when the CPU decodes an
// opcode outside the official instruction set.
type IllegalOpcodePolicy int

const (
	// IllegalOpcodeNOP logs the opcode and executes a single-cycle NOP,
	// the permissive path the reference core takes so minor test-ROM
	// glitches don't halt emulation.
	IllegalOpcodeNOP IllegalOpcodePolicy = iota
	// IllegalOpcodeHalt stops the CPU from fetching further instructions.
	IllegalOpcodeHalt
)

// Bus is what the CPU core needs from the surrounding system: the 64
// KiB CPU address space.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Phase is the fetch/decode/execute tag driving the per-cycle state
// machine.
type Phase int

const (
	PhaseFetch Phase = iota
	PhaseDecode
	PhaseExecute
)

// microStep is one cycle's worth of work for the instruction currently
// in flight; the queue is built once at FETCH and popped one entry per
// subsequent Tick call.
type microStep func(c *CPU)

// CPU is a single 6502-family core.
type CPU struct {
	A, X, Y uint8
	SP      uint8
	PC      uint16
	P       uint8

	bus Bus

	// Internal latches, named per the data model.
	opcode     uint8
	addrLo     uint8
	addrHi     uint8
	indexLo    uint8
	indexHi    uint8
	baseAddr   uint16
	targetAddr uint16
	operand    uint8
	offset     uint8
	addressBus uint16
	dataBus    uint8

	pageCrossed bool
	accumulator bool // true when the current instruction addresses A directly

	phase   Phase
	pending []microStep

	cycles uint64

	halted  bool
	irqLine bool

	illegalPolicy IllegalOpcodePolicy
}

// New creates a CPU wired to bus. The caller must call Reset before the
// first Tick to load PC from the reset vector.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, SP: 0xFD, P: FlagI | Flag5}
}

// SetIllegalOpcodePolicy configures runtime behaviour on unofficial
// opcodes (a non-goal to implement, but encountering one must not
// silently corrupt state).
func (c *CPU) SetIllegalOpcodePolicy(p IllegalOpcodePolicy) { c.illegalPolicy = p }

// SetIRQLine sets the level-triggered IRQ input, asserted by the APU
// frame counter or (out of scope) a mapper.
func (c *CPU) SetIRQLine(asserted bool) { c.irqLine = asserted }

// Halted reports whether the CPU stopped after an illegal opcode under
// IllegalOpcodeHalt policy.
func (c *CPU) Halted() bool { return c.halted }

// Cycles returns the monotonic CPU cycle counter.
func (c *CPU) Cycles() uint64 { return c.cycles }

// Reset queues the 7-cycle reset sequence that loads PC from $FFFC/$FFFD.
func (c *CPU) Reset() {
	c.pending = buildResetSequence()
	c.phase = PhaseDecode
}

// Tick advances exactly one CPU cycle. shared carries the NMI request
// line and is otherwise untouched by the CPU except to consume a
// pending NMI.
func (c *CPU) Tick(shared *iobus.Shared) {
	c.cycles++

	if c.halted {
		return
	}

	if len(c.pending) > 0 {
		step := c.pending[0]
		c.pending = c.pending[1:]
		step(c)
		return
	}

	if shared.NMIPending {
		shared.NMIPending = false
		c.pending = buildInterruptSequence(nmiVector, false)
		c.phase = PhaseDecode
		c.runNext()
		return
	}
	if c.irqLine && c.P&FlagI == 0 {
		c.pending = buildInterruptSequence(irqVector, false)
		c.phase = PhaseDecode
		c.runNext()
		return
	}

	c.fetch()
}

// runNext executes the first queued micro-step immediately; used when
// an interrupt sequence replaces a would-be opcode fetch within the
// same Tick call that detected it.
func (c *CPU) runNext() {
	if len(c.pending) == 0 {
		return
	}
	step := c.pending[0]
	c.pending = c.pending[1:]
	step(c)
}

func (c *CPU) fetch() {
	c.phase = PhaseFetch
	c.opcode = c.bus.Read(c.PC)
	c.dataBus = c.opcode
	c.PC++

	entry := opcodeTable[c.opcode]
	if entry.mnemonic == "" {
		c.handleIllegalOpcode()
		return
	}

	c.phase = PhaseDecode
	c.pageCrossed = false
	c.accumulator = entry.mode == modeAccumulator
	c.pending = buildAddressingSteps(entry)
}

func (c *CPU) handleIllegalOpcode() {
	glog.V(1).Infof("cpu: illegal opcode $%02X at $%04X", c.opcode, c.PC-1)
	switch c.illegalPolicy {
	case IllegalOpcodeHalt:
		c.halted = true
	default:
		// Single-cycle NOP: the fetch itself already spent the cycle.
	}
}

func (c *CPU) read(address uint16) uint8 {
	c.addressBus = address
	c.dataBus = c.bus.Read(address)
	return c.dataBus
}

func (c *CPU) write(address uint16, value uint8) {
	c.addressBus = address
	c.dataBus = value
	c.bus.Write(address, value)
}

func (c *CPU) push(value uint8) {
	c.bus.Write(stackBase+uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pull() uint8 {
	c.SP++
	return c.bus.Read(stackBase + uint16(c.SP))
}

func (c *CPU) setZN(v uint8) {
	if v == 0 {
		c.P |= FlagZ
	} else {
		c.P &^= FlagZ
	}
	if v&0x80 != 0 {
		c.P |= FlagN
	} else {
		c.P &^= FlagN
	}
}

func (c *CPU) setFlag(flag uint8, set bool) {
	if set {
		c.P |= flag
	} else {
		c.P &^= flag
	}
}

// rmwOperand and storeRMW let a single exec function serve both the
// accumulator and memory forms of ASL/LSR/ROL/ROR, since the addressing
// framework resolves c.accumulator the same way for both.
func (c *CPU) rmwOperand() uint8 {
	if c.accumulator {
		return c.A
	}
	return c.operand
}

func (c *CPU) storeRMW(v uint8) {
	if c.accumulator {
		c.A = v
		return
	}
	c.write(c.targetAddr, v)
}
