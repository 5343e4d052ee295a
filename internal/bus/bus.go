// Package bus wires the CPU, PPU, APU, cartridge, and controllers into
// a single system clock and owns everything that genuinely spans more
// than one of those cores: the 1-CPU:3-PPU dot interleaving, OAM DMA,
// and nametable-mirroring changes a running mapper makes.
package bus

import (
	"github.com/golang/glog"

	"github.com/rng999/nescore/internal/apu"
	"github.com/rng999/nescore/internal/cartridge"
	"github.com/rng999/nescore/internal/cpu"
	"github.com/rng999/nescore/internal/input"
	"github.com/rng999/nescore/internal/iobus"
	"github.com/rng999/nescore/internal/memory"
	"github.com/rng999/nescore/internal/ppu"
)

// ppuPort adapts ppu.PPU to memory.PPUPort: reads pass straight
// through, writes are staged into the shared write-delay buffer with
// the per-register landing delay the PPU's Tick loop drains.
type ppuPort struct {
	ppu    *ppu.PPU
	shared *iobus.Shared
}

func (p *ppuPort) ReadRegister(address uint16) uint8 { return p.ppu.ReadRegister(address) }

func (p *ppuPort) StageRegisterWrite(address uint16, value uint8) {
	counter := 2
	if address == 0x2001 {
		counter = 5
	}
	p.shared.StageWrite(address, value, counter)
}

// dmaState tracks an in-progress OAM DMA transfer one CPU cycle at a
// time: an alignment stall, then 256 alternating read/write half-cycles
// feeding the PPU's OAM one byte per pair.
type dmaState struct {
	active         bool
	page           uint8
	addrLo         uint8
	remaining      int
	haveByte       bool
	buffer         uint8
	dummyRemaining int
}

// Bus is the whole NES system clock: it owns every core and steps them
// together one CPU cycle (and its three PPU dots) at a time.
type Bus struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Input     *input.InputState
	CPUBus    *memory.CPUBus
	PPUMemory *memory.PPUMemory
	Cartridge *cartridge.Cartridge

	shared *iobus.Shared
	dma    dmaState
}

// New builds a fully wired system with no cartridge loaded; call
// LoadCartridge before Reset to run anything.
func New() *Bus {
	b := &Bus{shared: &iobus.Shared{}}

	b.PPU = ppu.New()
	b.APU = apu.New()
	b.Input = input.NewInputState()

	port := &ppuPort{ppu: b.PPU, shared: b.shared}
	b.CPUBus = memory.NewCPUBus(port, b.APU, nil)
	b.CPUBus.SetInputSystem(b.Input)
	b.CPUBus.SetDMACallback(b.triggerDMA)

	b.CPU = cpu.New(b.CPUBus)

	return b
}

// SetFrameCompleteCallback installs a callback invoked once per
// completed PPU frame, e.g. to blit the frame buffer to a display.
func (b *Bus) SetFrameCompleteCallback(callback func()) { b.PPU.SetFrameCompleteCallback(callback) }

// SetIllegalOpcodePolicy translates the host's "nop"/"halt" config
// string into a cpu.IllegalOpcodePolicy and applies it to the CPU core.
// Unrecognized values fall back to the permissive NOP policy; config
// validation is expected to have already rejected them before this is
// ever reached.
func (b *Bus) SetIllegalOpcodePolicy(policy string) {
	if policy == "halt" {
		b.CPU.SetIllegalOpcodePolicy(cpu.IllegalOpcodeHalt)
		return
	}
	b.CPU.SetIllegalOpcodePolicy(cpu.IllegalOpcodeNOP)
}

// LoadCartridge wires a loaded cartridge into both the CPU and PPU
// address spaces and replaces the PPU's VRAM mirroring to match the
// mapper's header-declared mode.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.Cartridge = cart
	b.CPUBus.SetCartridge(cart)
	b.PPUMemory = memory.NewPPUMemory(cart, memory.MirrorMode(cart.Mirroring()))
	b.PPU.SetMemory(b.PPUMemory)
	glog.V(1).Infof("cartridge loaded: mapper %d, mirroring %d", cart.MapperID(), cart.Mirroring())
}

// Reset powers the system on: CPU reset sequence, PPU/APU/shared state
// cleared, any in-flight DMA abandoned.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	*b.shared = iobus.Shared{}
	b.dma = dmaState{}
}

// triggerDMA is installed as the CPU bus's $4014 write callback. It
// starts the cycle-accurate transfer rather than performing it
// instantaneously; Tick drains it one cycle at a time.
func (b *Bus) triggerDMA(page uint8) {
	b.dma = dmaState{active: true, page: page}
	b.dma.remaining = 256
	if b.CPU.Cycles()%2 == 1 {
		b.dma.dummyRemaining = 2
	} else {
		b.dma.dummyRemaining = 1
	}
}

// stepDMA advances the in-progress OAM DMA by one CPU cycle, consuming
// the alignment stall first and then alternating a PRG/RAM read with an
// OAM write for each of the 256 bytes.
func (b *Bus) stepDMA() {
	d := &b.dma
	if d.dummyRemaining > 0 {
		d.dummyRemaining--
		return
	}
	if !d.haveByte {
		d.buffer = b.CPUBus.Read(uint16(d.page)<<8 | uint16(d.addrLo))
		d.haveByte = true
		return
	}
	b.PPU.DMAWrite(d.buffer)
	d.haveByte = false
	d.addrLo++
	d.remaining--
	if d.remaining == 0 {
		d.active = false
	}
}

// Tick advances the system by exactly one CPU cycle and its three PPU
// dots, CPU first within each group, matching the NES's fixed 1:3 clock
// ratio. No shortcut batching: every dot is stepped individually so
// NMI edges, VBL timing, and sprite-0 hit land on the cycle real
// hardware would produce them.
func (b *Bus) Tick() {
	if b.dma.active {
		b.stepDMA()
	} else {
		b.CPU.Tick(b.shared)
	}
	b.APU.Step()
	b.CPU.SetIRQLine(b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ())

	for i := 0; i < 3; i++ {
		b.PPU.Tick(b.shared)
	}

	if b.Cartridge != nil {
		b.PPUMemory.SetMirroring(memory.MirrorMode(b.Cartridge.Mirroring()))
	}
}

// RunFrame ticks the system until one PPU frame completes.
func (b *Bus) RunFrame() {
	startFrame := b.PPU.GetFrameCount()
	for b.PPU.GetFrameCount() == startFrame {
		b.Tick()
	}
}

// SetButtons1 feeds controller 1's live button state.
func (b *Bus) SetButtons1(buttons [8]bool) { b.Input.SetButtons1(buttons) }

// SetButtons2 feeds controller 2's live button state.
func (b *Bus) SetButtons2(buttons [8]bool) { b.Input.SetButtons2(buttons) }

// SetControllerButtons feeds one controller's live button state;
// controller 0 is port 1, controller 1 is port 2.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	if controller == 0 {
		b.Input.SetButtons1(buttons)
	} else {
		b.Input.SetButtons2(buttons)
	}
}

// GetInputState exposes both controller ports for host input glue that
// needs to read back currently-latched buttons (e.g. change detection).
func (b *Bus) GetInputState() *input.InputState { return b.Input }

// FrameBuffer returns the most recently completed frame's pixels.
func (b *Bus) FrameBuffer() [256 * 240]uint32 { return b.PPU.GetFrameBuffer() }
