package cartridge

// Mapper001 implements MMC1 (mapper 1): a serial-shift-register-loaded
// bank controller with switchable PRG size (16/32 KiB), switchable CHR
// size (4/8 KiB), and software-controlled nametable mirroring.
type Mapper001 struct {
	cart *Cartridge

	prgBanks uint8 // number of 16KB PRG banks
	chrBanks uint8 // number of 4KB CHR banks

	shiftRegister uint8
	shiftCount    uint8

	control uint8 // mirroring(1:0), prgMode(3:2), chrMode(4)
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgRAMEnabled bool

	// lastSerialWriteCycle and haveLastSerialWrite implement MMC1's
	// consecutive-cycle write lockout: real hardware ignores a second
	// write to the serial port landing on the CPU cycle immediately
	// after an accepted one. A read-modify-write opcode (ASL/INC/etc.)
	// targeting $8000+ triggers exactly this: the addressing mode's
	// dummy write-back of the unmodified value lands one cycle before
	// the real write, and without this guard both shift into the
	// 5-bit buffer, corrupting the serial sequence.
	lastSerialWriteCycle uint64
	haveLastSerialWrite  bool
}

// NewMapper001 creates a new MMC1 mapper in its power-on state: shift
// register cleared, PRG mode fixed to 16KB/last-bank-at-$C000.
func NewMapper001(cart *Cartridge, headerMirror MirrorMode) *Mapper001 {
	m := &Mapper001{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		chrBanks: uint8(len(cart.chrROM) / 0x1000),
	}
	if m.chrBanks == 0 {
		m.chrBanks = 2
	}
	m.resetShift()
	m.control = 0x0C // PRG mode 3 (fix last bank); mirror bits set from the header below
	switch headerMirror {
	case MirrorVertical:
		m.control = (m.control &^ 0x03) | 0x02
	default:
		m.control = (m.control &^ 0x03) | 0x03
	}
	m.prgRAMEnabled = true
	return m
}

func (m *Mapper001) resetShift() {
	m.shiftRegister = 0
	m.shiftCount = 0
}

// ReadPRG implements the PRG-ROM bank windows selected by control/prgBank,
// plus the 8KB PRG-RAM window at $6000-$7FFF.
func (m *Mapper001) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x6000 && address < 0x8000:
		if !m.prgRAMEnabled {
			return 0
		}
		return m.cart.sram[address-0x6000]
	case address >= 0x8000:
		bank, offset := m.prgWindow(address)
		idx := int(bank)*0x4000 + int(offset)
		if idx < 0 || idx >= len(m.cart.prgROM) {
			return 0
		}
		return m.cart.prgROM[idx]
	}
	return 0
}

func (m *Mapper001) prgWindow(address uint16) (bank uint16, offset uint16) {
	offset = address - 0x8000
	prgMode := (m.control >> 2) & 0x03
	switch prgMode {
	case 0, 1:
		// 32KB mode: prgBank low bits select a 32KB bank, ignoring bit 0.
		bank32 := uint16(m.prgBank&0x0E) >> 1
		if offset < 0x4000 {
			return bank32 * 2, offset
		}
		return bank32*2 + 1, offset - 0x4000
	case 2:
		// Fix first bank at $8000, switch $C000.
		if offset < 0x4000 {
			return 0, offset
		}
		return uint16(m.prgBank) % uint16(m.prgBanks), offset - 0x4000
	default: // 3
		// Switch $8000, fix last bank at $C000.
		if offset < 0x4000 {
			return uint16(m.prgBank) % uint16(m.prgBanks), offset
		}
		return uint16(m.prgBanks - 1), offset - 0x4000
	}
}

// WritePRG implements the MMC1 serial shift-register write protocol:
// bit 7 set resets the shift register and forces PRG mode 3; otherwise
// bit 0 shifts in LSB-first and the fifth write commits to one of the
// four internal registers selected by the address. cycle is the CPU
// bus's access counter; a write landing on the cycle immediately after
// the previous accepted serial write is ignored outright, since real
// MMC1 silicon can't distinguish that from a read-modify-write opcode's
// two same-target writes.
func (m *Mapper001) WritePRG(address uint16, value uint8, cycle uint64) {
	if address >= 0x6000 && address < 0x8000 {
		if m.prgRAMEnabled {
			m.cart.sram[address-0x6000] = value
		}
		return
	}
	if address < 0x8000 {
		return
	}

	if m.haveLastSerialWrite && cycle == m.lastSerialWriteCycle+1 {
		return
	}
	m.lastSerialWriteCycle = cycle
	m.haveLastSerialWrite = true

	if value&0x80 != 0 {
		m.resetShift()
		m.control |= 0x0C
		return
	}

	m.shiftRegister = (m.shiftRegister >> 1) | ((value & 0x01) << 4)
	m.shiftCount++

	if m.shiftCount == 5 {
		m.writeRegister(address, m.shiftRegister&0x1F)
		m.resetShift()
	}
}

func (m *Mapper001) writeRegister(address uint16, data uint8) {
	switch {
	case address < 0xA000:
		m.control = data
	case address < 0xC000:
		m.chrBank0 = data
	case address < 0xE000:
		m.chrBank1 = data
	default:
		m.prgBank = data & 0x0F
		// Bit 4 disables PRG-RAM when clear (active-low), the
		// widely-accepted polarity; the write-semantics-inverted
		// reading is not used here.
		m.prgRAMEnabled = data&0x10 == 0
	}
}

// ReadCHR reads pattern-table data through the 4KB or 8KB CHR window
// selected by control bit 4.
func (m *Mapper001) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	idx := m.chrIndex(address)
	if idx < 0 || idx >= len(m.cart.chrROM) {
		return 0
	}
	return m.cart.chrROM[idx]
}

// WriteCHR writes to CHR-RAM through the same bank window, ignored on
// CHR-ROM carts.
func (m *Mapper001) WriteCHR(address uint16, value uint8) {
	if address >= 0x2000 || !m.cart.hasCHRRAM {
		return
	}
	idx := m.chrIndex(address)
	if idx >= 0 && idx < len(m.cart.chrROM) {
		m.cart.chrROM[idx] = value
	}
}

func (m *Mapper001) chrIndex(address uint16) int {
	chrMode4K := m.control&0x10 != 0
	if !chrMode4K {
		bank8 := uint16(m.chrBank0 &^ 0x01)
		return int(bank8)*0x1000 + int(address)
	}
	if address < 0x1000 {
		return int(m.chrBank0)*0x1000 + int(address)
	}
	return int(m.chrBank1)*0x1000 + int(address-0x1000)
}

// Mirroring maps the control register's mirroring bits to a MirrorMode.
func (m *Mapper001) Mirroring() MirrorMode {
	switch m.control & 0x03 {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}
