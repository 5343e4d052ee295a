// Package cartridge implements iNES v1 ROM loading and the mapper
// abstraction that arbitrates the CPU and PPU address spaces on top of
// cartridge PRG/CHR memory.
package cartridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
)

// Sentinel error kinds. Load-time failures wrap one of these via %w so
// callers can branch with errors.Is without parsing message text.
var (
	// ErrInvalidROM covers bad magic, truncated PRG/CHR, and zero-sized
	// PRG ROM.
	ErrInvalidROM = errors.New("invalid rom")

	// ErrUnsupportedConfiguration covers four-screen mirroring, PAL
	// carts, and mappers other than NROM (0) and MMC1 (1).
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
)

// Cartridge owns PRG/CHR storage and delegates all addressed access to
// the selected Mapper.
type Cartridge struct {
	prgROM []uint8
	chrROM []uint8

	mapperID uint8
	mapper   Mapper

	hasBattery bool
	sram       [0x2000]uint8

	hasCHRRAM bool
}

// MirrorMode identifies which of the four logical nametables a mapper
// currently points at the two physical 1 KiB banks.
type MirrorMode uint8

const (
	MirrorHorizontal MirrorMode = iota
	MirrorVertical
	MirrorSingleScreen0
	MirrorSingleScreen1
	MirrorFourScreen
)

// Mapper owns PRG/CHR banking and reports its current nametable
// mirroring, which for mapper 1 can change at runtime.
type Mapper interface {
	ReadPRG(address uint16) uint8
	// WritePRG applies a CPU write to the PRG window. cycle is the CPU
	// bus's monotonic access counter, which mappers with a serial write
	// protocol (MMC1) use to detect two writes landing on consecutive
	// cycles, as a read-modify-write opcode's dummy write-back does.
	WritePRG(address uint16, value uint8, cycle uint64)
	ReadCHR(address uint16) uint8
	WriteCHR(address uint16, value uint8)
	Mirroring() MirrorMode
}

// iNESHeader is the 16-byte iNES v1 header, read directly via
// encoding/binary since every field is a fixed-width byte or byte array.
type iNESHeader struct {
	Magic      [4]uint8
	PRGROMSize uint8 // 16 KiB units
	CHRROMSize uint8 // 8 KiB units; 0 means CHR-RAM
	Flags6     uint8
	Flags7     uint8
	PRGRAMSize uint8 // 8 KiB units; 0 treated as 1
	TVSystem1  uint8 // bit 0: PAL flag
	TVSystem2  uint8
	Padding    [5]uint8
}

// LoadFromFile opens filename and parses it as an iNES v1 ROM image.
func LoadFromFile(filename string) (*Cartridge, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidROM, err)
	}
	defer file.Close()

	return LoadFromReader(file)
}

// LoadFromReader parses an iNES v1 image from r.
func LoadFromReader(r io.Reader) (*Cartridge, error) {
	var header iNESHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrInvalidROM, err)
	}

	if string(header.Magic[:]) != "NES\x1A" {
		return nil, fmt.Errorf("%w: bad magic", ErrInvalidROM)
	}

	if header.PRGROMSize == 0 {
		return nil, fmt.Errorf("%w: PRG ROM size cannot be zero", ErrInvalidROM)
	}

	if header.Flags6&0x08 != 0 {
		return nil, fmt.Errorf("%w: four-screen mirroring", ErrUnsupportedConfiguration)
	}
	if header.TVSystem1&0x01 != 0 {
		return nil, fmt.Errorf("%w: PAL cartridges are not supported, NTSC timing only", ErrUnsupportedConfiguration)
	}

	cart := &Cartridge{
		mapperID:   (header.Flags6 >> 4) | (header.Flags7 & 0xF0),
		hasBattery: (header.Flags6 & 0x02) != 0,
	}

	mirror := MirrorHorizontal
	if header.Flags6&0x01 != 0 {
		mirror = MirrorVertical
	}

	if header.Flags6&0x04 != 0 {
		trainer := make([]uint8, 512)
		if _, err := io.ReadFull(r, trainer); err != nil {
			return nil, fmt.Errorf("%w: truncated trainer: %v", ErrInvalidROM, err)
		}
	}

	prgSize := int(header.PRGROMSize) * 16384
	cart.prgROM = make([]uint8, prgSize)
	if _, err := io.ReadFull(r, cart.prgROM); err != nil {
		return nil, fmt.Errorf("%w: truncated PRG ROM: %v", ErrInvalidROM, err)
	}

	chrSize := int(header.CHRROMSize) * 8192
	if chrSize > 0 {
		cart.chrROM = make([]uint8, chrSize)
		if _, err := io.ReadFull(r, cart.chrROM); err != nil {
			return nil, fmt.Errorf("%w: truncated CHR ROM: %v", ErrInvalidROM, err)
		}
	} else {
		cart.chrROM = make([]uint8, 8192)
		cart.hasCHRRAM = true
	}

	mapper, err := createMapper(cart.mapperID, cart, mirror)
	if err != nil {
		return nil, err
	}
	cart.mapper = mapper

	glog.V(1).Infof("cartridge: mapper=%d prg=%dKiB chr=%dKiB chrRAM=%v mirror=%v",
		cart.mapperID, len(cart.prgROM)/1024, len(cart.chrROM)/1024, cart.hasCHRRAM, mirror)

	return cart, nil
}

// ReadPRG reads from PRG ROM/RAM via the mapper.
func (c *Cartridge) ReadPRG(address uint16) uint8 { return c.mapper.ReadPRG(address) }

// WritePRG writes to PRG ROM/RAM via the mapper.
func (c *Cartridge) WritePRG(address uint16, value uint8, cycle uint64) {
	c.mapper.WritePRG(address, value, cycle)
}

// ReadCHR reads from CHR ROM/RAM via the mapper.
func (c *Cartridge) ReadCHR(address uint16) uint8 { return c.mapper.ReadCHR(address) }

// WriteCHR writes to CHR ROM/RAM via the mapper.
func (c *Cartridge) WriteCHR(address uint16, value uint8) { c.mapper.WriteCHR(address, value) }

// Mirroring returns the mapper's current nametable mirroring mode.
func (c *Cartridge) Mirroring() MirrorMode { return c.mapper.Mirroring() }

// MapperID returns the iNES mapper number selected by the header.
func (c *Cartridge) MapperID() uint8 { return c.mapperID }

func createMapper(id uint8, cart *Cartridge, headerMirror MirrorMode) (Mapper, error) {
	switch id {
	case 0:
		return NewMapper000(cart, headerMirror), nil
	case 1:
		return NewMapper001(cart, headerMirror), nil
	default:
		return nil, fmt.Errorf("%w: mapper %d not implemented", ErrUnsupportedConfiguration, id)
	}
}

// MockCartridge is a minimal in-memory cartridge used by bus/memory/ppu
// tests that need to exercise address decoding without parsing a ROM
// file.
type MockCartridge struct {
	prgROM    [0x8000]uint8
	chrROM    [0x2000]uint8
	prgRAM    [0x2000]uint8
	chrRAM    [0x2000]uint8
	mirroring MirrorMode

	prgReads  []uint16
	prgWrites []uint16
	chrReads  []uint16
	chrWrites []uint16
}

// NewMockCartridge creates a new mock cartridge for testing.
func NewMockCartridge() *MockCartridge {
	return &MockCartridge{mirroring: MirrorHorizontal}
}

func (c *MockCartridge) ReadPRG(address uint16) uint8 {
	c.prgReads = append(c.prgReads, address)
	if address < 0x8000 {
		return 0
	}
	index := address - 0x8000
	if len(c.prgROM) == 0x4000 {
		index %= 0x4000
	}
	return c.prgROM[index]
}

func (c *MockCartridge) WritePRG(address uint16, value uint8, _ uint64) {
	c.prgWrites = append(c.prgWrites, address)
	if address >= 0x6000 && address < 0x8000 {
		c.prgRAM[address-0x6000] = value
	}
}

func (c *MockCartridge) ReadCHR(address uint16) uint8 {
	c.chrReads = append(c.chrReads, address)
	if address < 0x2000 {
		return c.chrROM[address]
	}
	return 0
}

func (c *MockCartridge) WriteCHR(address uint16, value uint8) {
	c.chrWrites = append(c.chrWrites, address)
	if address < 0x2000 {
		c.chrRAM[address] = value
	}
}

func (c *MockCartridge) Mirroring() MirrorMode { return c.mirroring }

// LoadPRG loads data into PRG ROM.
func (c *MockCartridge) LoadPRG(data []uint8) { copy(c.prgROM[:], data) }

// LoadCHR loads data into CHR ROM.
func (c *MockCartridge) LoadCHR(data []uint8) { copy(c.chrROM[:], data) }

// SetMirroring sets the nametable mirroring mode.
func (c *MockCartridge) SetMirroring(mode MirrorMode) { c.mirroring = mode }

// ClearLogs clears all access logs.
func (c *MockCartridge) ClearLogs() {
	c.prgReads = c.prgReads[:0]
	c.prgWrites = c.prgWrites[:0]
	c.chrReads = c.chrReads[:0]
	c.chrWrites = c.chrWrites[:0]
}
