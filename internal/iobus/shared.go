// Package iobus holds the small piece of state genuinely shared between
// the CPU and PPU cores: the NMI request line and the delayed-write
// buffer that makes CPU writes to PPU registers land on the correct PPU
// dot. It is owned by the bus package and passed as a mutable pointer
// into both cpu.CPU.Tick and ppu.PPU.Tick, rather than the two cores
// holding pointers to each other.
//
// Grounded on the original C core's CpuPpuShare struct, trimmed to the
// fields that actually cross the CPU/PPU boundary; everything else that
// struct held (register shadows, v/t/fine_x mirrors) is owned outright
// by the PPU in this implementation.
package iobus

// PendingWrite is the single-slot write-delay buffer described in the
// concurrency model: a CPU write to a PPU register is staged here and
// applied once Counter decrements to zero.
type PendingWrite struct {
	Valid   bool
	Counter int
	Address uint16
	Value   uint8
}

// Shared is the mutable state passed into both tick functions.
type Shared struct {
	// NMIPending is set by the PPU on the rising edge of its internal
	// NMI line and cleared by the CPU once it services the interrupt.
	NMIPending bool

	// Write is the staged MMIO write the CPU bus produces; the PPU
	// applies it to its own register state once Counter reaches 0.
	Write PendingWrite
}

// StageWrite buffers a CPU write to a PPU register. counter=2 for most
// registers, 5 for $2001 to model the extra 3-dot enable delay.
func (s *Shared) StageWrite(address uint16, value uint8, counter int) {
	s.Write = PendingWrite{Valid: true, Counter: counter, Address: address, Value: value}
}

// TickWriteBuffer decrements the pending write's counter by one PPU dot
// and reports the write once it is due, clearing it from the buffer.
func (s *Shared) TickWriteBuffer() (address uint16, value uint8, ready bool) {
	if !s.Write.Valid {
		return 0, 0, false
	}
	s.Write.Counter--
	if s.Write.Counter > 0 {
		return 0, 0, false
	}
	address, value = s.Write.Address, s.Write.Value
	s.Write.Valid = false
	return address, value, true
}
