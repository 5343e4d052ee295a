package cpu

import (
	"testing"

	"github.com/rng999/nescore/internal/iobus"
)

// testBus is a flat 64 KiB RAM image, enough to drive the CPU through
// cycle-accurate sequences without a cartridge or PPU in the loop.
type testBus struct {
	mem [0x10000]uint8
}

func (b *testBus) Read(address uint16) uint8        { return b.mem[address] }
func (b *testBus) Write(address uint16, value uint8) { b.mem[address] = value }

func newTestCPU() (*CPU, *testBus) {
	bus := &testBus{}
	c := New(bus)
	return c, bus
}

func runReset(c *CPU) {
	c.Reset()
	shared := &iobus.Shared{}
	for i := 0; i < 7; i++ {
		c.Tick(shared)
	}
}

func tickN(c *CPU, n int) {
	shared := &iobus.Shared{}
	for i := 0; i < n; i++ {
		c.Tick(shared)
	}
}

func TestReset_LoadsPCFromResetVector(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80

	runReset(c)

	if c.PC != 0x8000 {
		t.Fatalf("PC = $%04X, want $8000", c.PC)
	}
	if c.P&FlagI == 0 {
		t.Fatal("interrupt-disable flag should be set after reset")
	}
}

func TestADC_SignedOverflowSetsV(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	// LDA #$50; ADC #$50 -> $A0, signed overflow (positive+positive=negative).
	bus.mem[0x8000] = 0xA9
	bus.mem[0x8001] = 0x50
	bus.mem[0x8002] = 0x69
	bus.mem[0x8003] = 0x50
	tickN(c, 2)
	tickN(c, 2)

	if c.A != 0xA0 {
		t.Fatalf("A = $%02X, want $A0", c.A)
	}
	if c.P&FlagV == 0 {
		t.Fatal("expected overflow flag set")
	}
	if c.P&FlagC != 0 {
		t.Fatal("expected no carry out")
	}
	if c.P&FlagN == 0 {
		t.Fatal("expected negative flag set")
	}
}

func TestSBC_BorrowClearsCarry(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	// SEC; LDA #$10; SBC #$20 -> borrow, carry clears.
	bus.mem[0x8000] = 0x38
	bus.mem[0x8001] = 0xA9
	bus.mem[0x8002] = 0x10
	bus.mem[0x8003] = 0xE9
	bus.mem[0x8004] = 0x20
	tickN(c, 2)
	tickN(c, 2)
	tickN(c, 2)

	if c.A != 0xF0 {
		t.Fatalf("A = $%02X, want $F0", c.A)
	}
	if c.P&FlagC != 0 {
		t.Fatal("expected carry clear on borrow")
	}
}

func TestJMPIndirect_PageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	// JMP ($30FF): low byte at $30FF, high byte incorrectly read from
	// $3000 instead of $3100.
	bus.mem[0x8000] = 0x6C
	bus.mem[0x8001] = 0xFF
	bus.mem[0x8002] = 0x30
	bus.mem[0x30FF] = 0x34
	bus.mem[0x3000] = 0x12
	bus.mem[0x3100] = 0x56

	tickN(c, 5)

	if c.PC != 0x1234 {
		t.Fatalf("PC = $%04X, want $1234 (page-wrap bug target)", c.PC)
	}
}

func TestBranchNotTaken_TwoCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	bus.mem[0x8000] = 0xF0 // BEQ, Z currently clear -> not taken
	bus.mem[0x8001] = 0x10
	bus.mem[0x8002] = 0xEA

	tickN(c, 2)
	if c.PC != 0x8002 {
		t.Fatalf("PC = $%04X, want $8002 after untaken branch", c.PC)
	}
}

func TestBranchTaken_PageCrossAddsCycle(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0xF0
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	c.P |= FlagZ
	bus.mem[0x80F0] = 0xF0 // BEQ +$20 -> crosses from page $80 to $81
	bus.mem[0x80F1] = 0x20

	tickN(c, 4)

	if c.PC != 0x8112 {
		t.Fatalf("PC = $%04X, want $8112", c.PC)
	}
}

func TestRMW_FinalValueWritesBack(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	bus.mem[0x8000] = 0xE6 // INC $10
	bus.mem[0x8001] = 0x10
	bus.mem[0x0010] = 0x7F

	tickN(c, 5)

	if bus.mem[0x0010] != 0x80 {
		t.Fatalf("mem[$10] = $%02X, want $80", bus.mem[0x0010])
	}
	if c.P&FlagN == 0 {
		t.Fatal("expected negative flag set")
	}
}

func TestIllegalOpcode_NOPPolicyContinues(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	bus.mem[0x8000] = 0x02 // not in the official set
	bus.mem[0x8001] = 0xEA

	c.SetIllegalOpcodePolicy(IllegalOpcodeNOP)
	tickN(c, 1)

	if c.Halted() {
		t.Fatal("NOP policy should not halt the CPU")
	}
	if c.PC != 0x8001 {
		t.Fatalf("PC = $%04X, want $8001", c.PC)
	}
}

func TestIllegalOpcode_HaltPolicyStops(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	bus.mem[0x8000] = 0x02
	c.SetIllegalOpcodePolicy(IllegalOpcodeHalt)
	tickN(c, 1)

	if !c.Halted() {
		t.Fatal("expected CPU halted after illegal opcode under halt policy")
	}

	cyclesBefore := c.Cycles()
	tickN(c, 3)
	if c.Cycles() != cyclesBefore+3 {
		t.Fatal("Tick should keep counting cycles even while halted")
	}
}

func TestNMI_InterruptsFetchAndPushesStatus(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	bus.mem[nmiVector] = 0x00
	bus.mem[nmiVector+1] = 0x90
	runReset(c)

	bus.mem[0x8000] = 0xEA // would-be NOP, preempted by NMI

	shared := &iobus.Shared{NMIPending: true}
	c.Tick(shared)
	if shared.NMIPending {
		t.Fatal("CPU should consume the NMI request on the first cycle")
	}
	for i := 0; i < 6; i++ {
		c.Tick(&iobus.Shared{})
	}

	if c.PC != 0x9000 {
		t.Fatalf("PC = $%04X, want $9000 (NMI vector)", c.PC)
	}
	pushedStatus := bus.mem[stackBase+uint16(c.SP)+1]
	if pushedStatus&FlagB != 0 {
		t.Fatal("NMI must push status with B clear")
	}
}

func TestStackOps_PHPSetsBreakAndUnused_PLAClearsNeither(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[resetVec] = 0x00
	bus.mem[resetVec+1] = 0x80
	runReset(c)

	bus.mem[0x8000] = 0x08 // PHP
	bus.mem[0x8001] = 0x68 // PLA

	tickN(c, 3)
	pushed := bus.mem[stackBase+uint16(c.SP)+1]
	if pushed&(FlagB|Flag5) != FlagB|Flag5 {
		t.Fatalf("PHP should push B and bit5 set, got $%02X", pushed)
	}

	tickN(c, 4)
	if c.A != pushed {
		t.Fatalf("PLA pulled $%02X, want $%02X", c.A, pushed)
	}
}
