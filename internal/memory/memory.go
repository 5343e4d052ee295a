// Package memory implements the NES CPU address bus and the PPU's
// 14-bit VRAM address space, including nametable mirroring and palette
// RAM mirroring.
package memory

// CPUBus is the 64 KiB CPU address space: 2 KiB internal RAM mirrored
// eight times, the eight PPU registers mirrored every 8 bytes, APU/IO
// registers, and the mapper's PRG window.
type CPUBus struct {
	ram [0x800]uint8

	ppu   PPUPort
	apu   APUInterface
	input InputInterface
	cart  CartridgeInterface

	dmaCallback func(uint8)

	// openBus is the last value that appeared on the data bus; reads of
	// unmapped or write-only addresses return it instead of zero.
	openBus uint8

	// busCycle counts CPU bus accesses one-for-one: the CPU core issues
	// exactly one Read or Write per cycle, so this is equivalent to a
	// CPU cycle counter without the memory package needing to import
	// the cpu package. Mapper001 uses it to detect the two writes a
	// read-modify-write opcode issues on consecutive cycles.
	busCycle uint64
}

// PPUPort is how the CPU bus reaches the PPU's registers. Reads are
// immediate and direct (hardware register reads are not delayed).
// Writes are staged through the shared write-delay buffer so they land
// at the PPU on the correct dot of the 1-CPU:3-PPU interleaving; the
// bus package implements StageRegisterWrite on top of that buffer.
type PPUPort interface {
	ReadRegister(address uint16) uint8
	StageRegisterWrite(address uint16, value uint8)
}

// APUInterface defines the interface for APU register access.
type APUInterface interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputInterface defines the interface for controller register access.
type InputInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CartridgeInterface defines the interface the CPU/PPU buses need from
// a loaded cartridge; cartridge.Cartridge and cartridge.MockCartridge
// both satisfy it.
type CartridgeInterface interface {
	ReadPRG(address uint16) uint8
	WritePRG(address uint16, value uint8, cycle uint64)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
}

// NewCPUBus creates a new CPU bus instance.
func NewCPUBus(ppu PPUPort, apu APUInterface, cart CartridgeInterface) *CPUBus {
	m := &CPUBus{ppu: ppu, apu: apu, cart: cart}
	m.initializePowerUpRAM()
	return m
}

// SetInputSystem wires the controller port in after construction, since
// the bus package builds controllers after the memory bus in some
// wiring orders.
func (m *CPUBus) SetInputSystem(input InputInterface) { m.input = input }

// SetDMACallback installs the callback invoked on a $4014 write; the
// bus package uses this to schedule the cycle-accurate OAM DMA sequence
// rather than performing it instantaneously.
func (m *CPUBus) SetDMACallback(callback func(uint8)) { m.dmaCallback = callback }

// SetCartridge wires (or replaces) the loaded cartridge after
// construction, since the bus builds the address space before a ROM
// file is selected.
func (m *CPUBus) SetCartridge(cart CartridgeInterface) { m.cart = cart }

// initializePowerUpRAM seeds RAM with the non-zero, semi-deterministic
// pattern real NES hardware exhibits on power-up, rather than all
// zeros; several commercial ROMs rely on this not being uniform.
func (m *CPUBus) initializePowerUpRAM() {
	for i := 0; i < 0x800; i++ {
		switch {
		case i < 0x100:
			if i%2 == 0 {
				m.ram[i] = 0x00
			} else {
				m.ram[i] = 0xFF
			}
		case i < 0x200:
			if i%16 < 2 {
				m.ram[i] = 0xFF
			} else {
				m.ram[i] = 0x00
			}
		case i < 0x300:
			if (i/8)%2 == (i%8)/4 {
				m.ram[i] = 0xAA
			} else {
				m.ram[i] = 0x55
			}
		case i < 0x400:
			if i%8 == 0 {
				m.ram[i] = 0x00
			} else {
				m.ram[i] = 0xFF
			}
		default:
			switch i % 4 {
			case 0:
				m.ram[i] = 0x00
			case 1:
				m.ram[i] = 0xFF
			case 2:
				m.ram[i] = 0xAA
			case 3:
				m.ram[i] = 0x55
			}
		}
	}
}

// Read reads a byte from the CPU address space, updating the open-bus
// shadow with whatever value the read produced.
func (m *CPUBus) Read(address uint16) uint8 {
	m.busCycle++
	var value uint8

	switch {
	case address < 0x2000:
		value = m.ram[address&0x07FF]

	case address < 0x4000:
		value = m.ppu.ReadRegister(0x2000 + (address & 0x0007))

	case address < 0x4020:
		switch {
		case address == 0x4015:
			value = m.apu.ReadStatus()
		case address == 0x4016 || address == 0x4017:
			if m.input != nil {
				value = m.input.Read(address)
			} else {
				value = m.openBus
			}
		default:
			value = m.openBus
		}

	case address >= 0x6000 && address < 0x8000:
		if m.cart != nil {
			value = m.cart.ReadPRG(address)
		} else {
			value = m.openBus
		}

	case address < 0x8000:
		value = m.openBus

	default:
		if m.cart != nil {
			value = m.cart.ReadPRG(address)
		} else {
			value = m.openBus
		}
	}

	m.openBus = value
	return value
}

// Write writes a byte to the CPU address space.
func (m *CPUBus) Write(address uint16, value uint8) {
	m.busCycle++
	m.openBus = value

	switch {
	case address < 0x2000:
		m.ram[address&0x07FF] = value

	case address < 0x4000:
		m.ppu.StageRegisterWrite(0x2000+(address&0x0007), value)

	case address < 0x4020:
		switch {
		case address == 0x4014:
			if m.dmaCallback != nil {
				m.dmaCallback(value)
			}
		case address == 0x4016:
			if m.input != nil {
				m.input.Write(address, value)
			}
		case address <= 0x4013, address == 0x4015, address == 0x4017:
			m.apu.WriteRegister(address, value)
		}
		// $4018-$401F: CPU test-mode registers, not implemented.

	case address >= 0x6000 && address < 0x8000:
		if m.cart != nil {
			m.cart.WritePRG(address, value, m.busCycle)
		}

	case address < 0x8000:
		// Cartridge expansion area, unmapped.

	default:
		if m.cart != nil {
			m.cart.WritePRG(address, value, m.busCycle)
		}
	}
}

// OpenBus returns the current open-bus shadow value.
func (m *CPUBus) OpenBus() uint8 { return m.openBus }

// MirrorMode represents nametable mirroring mode, mirrored from the
// cartridge package's type so this package has no import dependency on
// it.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// PPUMemory is the PPU's 14-bit address space: pattern tables via the
// mapper, two physical 1 KiB nametable banks addressed through a
// mirroring-dependent indirection, and 32 bytes of palette RAM.
type PPUMemory struct {
	vram       [0x1000]uint8
	paletteRAM [32]uint8
	cartridge  CartridgeInterface
	mirroring  MirrorMode
}

// NewPPUMemory creates a new PPU memory instance with the background
// colour entries initialised black, matching hardware power-up palette
// contents closely enough for test-ROM palette checks.
func NewPPUMemory(cart CartridgeInterface, mirroring MirrorMode) *PPUMemory {
	mem := &PPUMemory{cartridge: cart, mirroring: mirroring}
	for i := 0; i < 32; i += 4 {
		mem.paletteRAM[i] = 0x0F
	}
	return mem
}

// SetMirroring updates the mirroring mode used to resolve nametable
// addresses, called whenever a mapper (e.g. MMC1) changes it at
// runtime.
func (pm *PPUMemory) SetMirroring(mode MirrorMode) { pm.mirroring = mode }

// Read reads from PPU address space ($0000-$3FFF, mirrored at $4000).
func (pm *PPUMemory) Read(address uint16) uint8 {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		return pm.cartridge.ReadCHR(address)
	case address < 0x3000:
		return pm.readNametable(address)
	case address < 0x3F00:
		return pm.readNametable(address - 0x1000)
	default:
		return pm.readPalette(address)
	}
}

// Write writes to PPU address space ($0000-$3FFF, mirrored at $4000).
func (pm *PPUMemory) Write(address uint16, value uint8) {
	address &= 0x3FFF

	switch {
	case address < 0x2000:
		pm.cartridge.WriteCHR(address, value)
	case address < 0x3000:
		pm.writeNametable(address, value)
	case address < 0x3F00:
		pm.writeNametable(address-0x1000, value)
	default:
		pm.writePalette(address, value)
	}
}

func (pm *PPUMemory) readNametable(address uint16) uint8 {
	return pm.vram[pm.getNametableIndex(address)]
}

func (pm *PPUMemory) writeNametable(address uint16, value uint8) {
	pm.vram[pm.getNametableIndex(address)] = value
}

// getNametableIndex realises the four logical 1 KiB nametables against
// two physical banks (A at 0x000, B at 0x400) per the current mirroring
// mode.
func (pm *PPUMemory) getNametableIndex(address uint16) uint16 {
	address &= 0x0FFF
	nametable := (address >> 10) & 3
	offset := address & 0x3FF

	switch pm.mirroring {
	case MirrorHorizontal:
		if nametable >= 2 {
			return 0x400 + offset
		}
		return offset
	case MirrorVertical:
		if nametable == 1 || nametable == 3 {
			return 0x400 + offset
		}
		return offset
	case MirrorSingleScreen0:
		return offset
	case MirrorSingleScreen1:
		return 0x400 + offset
	case MirrorFourScreen:
		return uint16(nametable)*0x400 + offset
	default:
		return offset
	}
}

// canonicalPaletteIndex applies the $3F10/14/18/1C -> $3F00/04/08/0C
// sprite/background colour-0 mirror so a single function governs both
// read and write instead of duplicating bytes.
func canonicalPaletteIndex(address uint16) uint16 {
	index := (address - 0x3F00) & 0x1F
	if index&0x13 == 0x10 {
		index &= 0x0F
	}
	return index
}

func (pm *PPUMemory) readPalette(address uint16) uint8 {
	return pm.paletteRAM[canonicalPaletteIndex(address)]
}

func (pm *PPUMemory) writePalette(address uint16, value uint8) {
	pm.paletteRAM[canonicalPaletteIndex(address)] = value
}
