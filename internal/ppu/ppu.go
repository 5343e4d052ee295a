// Package ppu implements the NES Picture Processing Unit (2C02): an
// explicit dot-by-dot state machine covering the 341x262 frame
// geometry, register read/write side effects, and VBlank/NMI/sprite
// flag timing precisely enough that software relying on their exact
// timing (raster effects, sprite-0 polling) behaves correctly.
//
// Background pixels come from the real hardware pipeline: two 16-bit
// pattern shift registers and two 1-bit-per-pixel attribute shift
// registers, reloaded every 8 dots by the same NT/AT/pattern-low/
// pattern-high fetch sequence the 2C02 runs, and shifted once per dot.
// Sprites use the analogous per-slot 8-bit pattern shift registers and
// x-position counters, loaded at dot 257 from the sprites
// found by evaluation and stepped down one dot at a time during the
// next scanline's visible dots. Scroll updates (copyX/copyY/incrementX/
// incrementY) land on the exact dots real hardware updates them,
// including the horizontal copy at dot 257 that a purely per-pixel
// renderer has no use for.
package ppu

import (
	"github.com/rng999/nescore/internal/iobus"
	"github.com/rng999/nescore/internal/memory"
)

// nmiDelayDots approximates the 2C02's "one CPU instruction" NMI
// recognition delay when a PPUCTRL write (not the natural VBlank-start
// edge) turns NMI generation on while the VBlank flag is already set.
// The PPU has no visibility into CPU instruction boundaries, so this
// models the delay as a fixed dot count instead; see DESIGN.md's Open
// Questions for the reasoning.
const nmiDelayDots = 3

// PPU is the NES's 2C02 picture generator.
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16
	t uint16
	x uint8
	w bool

	memory *memory.PPUMemory

	scanline int
	cycle    int

	frameCount uint64
	oddFrame   bool
	readBuffer uint8

	oam               [256]uint8
	secondaryOAM      [32]uint8
	spriteIndexes     [8]uint8
	spriteCount       uint8
	sprite0OnScanline bool
	sprite0Hit        bool
	spriteOverflow    bool
	lastEvalScanline  int

	// Per-slot sprite shift pipeline, loaded at dot 257 for the next
	// scanline and stepped one dot at a time across dots 1-256.
	spritePatternLo [8]uint8
	spritePatternHi [8]uint8
	spriteAttr      [8]uint8
	spriteXCounter  [8]uint8

	// Background fetch latches, reloaded by the 8-dot NT/AT/pattern
	// sequence, and the shift registers they feed every 8th dot.
	ntByte           uint8
	atByte           uint8
	patternLo        uint8
	patternHi        uint8
	bgShiftPatternLo uint16
	bgShiftPatternHi uint16
	bgShiftAttrLo    uint16
	bgShiftAttrHi    uint16

	frameBuffer [256 * 240]uint32

	frameCompleteCallback func()

	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool

	cycleCount uint64

	// NMI edge-case state. nmiOutputPrev/nmiCtrlEnabledPrev track the
	// previous dot's (PPUCTRL.bit7, VBlank flag) pair so an edge is only
	// recognized once; suppressNMIFlag and ignoreNMI implement the
	// $2002-read VBL race (a read landing one dot before the flag sets
	// cancels it outright for the frame; a read landing on or one dot
	// after the set still reads the flag but cancels the NMI);
	// nmiLookahead/nmiCyclesLeft implement the PPUCTRL-write delay
	// above.
	nmiOutputPrev      bool
	nmiCtrlEnabledPrev bool
	suppressNMIFlag    bool
	ignoreNMI          bool
	nmiLookahead       bool
	nmiCyclesLeft      int
}

// New creates a PPU at the pre-render scanline, represented as -1.
func New() *PPU {
	return &PPU{scanline: -1, lastEvalScanline: -999}
}

// Reset restores power-up register state.
func (p *PPU) Reset() {
	p.ppuCtrl = 0
	p.ppuMask = 0
	p.ppuStatus = 0xA0
	p.oamAddr = 0
	p.v, p.t, p.x = 0, 0, 0
	p.w = false
	p.scanline, p.cycle = -1, 0
	p.oddFrame = false
	p.readBuffer = 0
	p.spriteCount, p.sprite0Hit, p.spriteOverflow = 0, false, false
	p.backgroundEnabled, p.spritesEnabled, p.renderingEnabled = false, false, false
	p.lastEvalScanline = -999
	p.nmiOutputPrev = false
	p.nmiCtrlEnabledPrev = false
	p.suppressNMIFlag = false
	p.ignoreNMI = false
	p.nmiLookahead = false
	p.nmiCyclesLeft = 0
	p.ntByte, p.atByte, p.patternLo, p.patternHi = 0, 0, 0, 0
	p.bgShiftPatternLo, p.bgShiftPatternHi = 0, 0
	p.bgShiftAttrLo, p.bgShiftAttrHi = 0, 0
	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0
	}
	for i := range p.spriteXCounter {
		p.spriteXCounter[i] = 0
	}
}

// SetMemory wires in the PPU's 14-bit address space.
func (p *PPU) SetMemory(m *memory.PPUMemory) { p.memory = m }

// SetFrameCompleteCallback installs a callback fired once per frame, at
// dot 0 of scanline 240, right after the last visible scanline.
func (p *PPU) SetFrameCompleteCallback(callback func()) { p.frameCompleteCallback = callback }

// ReadRegister reads one of the eight CPU-visible PPU registers.
// Hardware register reads are immediate, unlike writes which are
// staged through the shared write-delay buffer.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		status := p.ppuStatus
		if p.scanline == 241 {
			switch p.cycle {
			case 0:
				// One dot before the flag would set: the read wins the
				// race outright. The flag never sets this frame and no
				// NMI fires for it.
				p.suppressNMIFlag = true
				status &^= 0x80
			case 1, 2:
				// Same dot, or one dot after: the read observes the
				// flag as whatever it already is, but clearing it here
				// races NMI generation and the pending interrupt (if
				// any) is retracted for the rest of this VBlank.
				p.ignoreNMI = true
			}
		}
		p.ppuStatus &= 0x7F
		p.w = false
		return status
	case 0x2004:
		value := p.oam[p.oamAddr]
		if p.oamAddr&0x03 == 2 {
			value &= 0xE3 // attribute byte: bits 2-4 don't exist in OAM
		}
		return value
	case 0x2007:
		return p.readPPUData()
	default:
		// $2000/$2001/$2003/$2005/$2006 are write-only; a read exposes
		// whatever was last on the bus, which the caller's open-bus
		// shadow supplies. The PPU itself has nothing useful to return.
		return 0
	}
}

// WriteRegister applies a CPU write to a PPU register. The bus package
// calls this once the write's staged delay has elapsed, not on the
// cycle the CPU issued it.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case 0x2000:
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
	case 0x2001:
		p.ppuMask = value
		p.updateRenderingFlags()
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writePPUScroll(value)
	case 0x2006:
		p.writePPUAddr(value)
	case 0x2007:
		p.writePPUData(value)
	}
}

// DMAWrite is the $4014 OAM DMA path: one byte per call, landing at the
// current OAMADDR and auto-incrementing, exactly like a $2004 write.
func (p *PPU) DMAWrite(value uint8) {
	p.oam[p.oamAddr] = value
	p.oamAddr++
}

// Tick advances the PPU by exactly one dot. shared carries the staged
// MMIO write buffer (applied here once its delay elapses) and the NMI
// request line this PPU raises on VBlank's rising edge.
func (p *PPU) Tick(shared *iobus.Shared) {
	p.cycleCount++

	if address, value, ready := shared.TickWriteBuffer(); ready {
		p.WriteRegister(address, value)
	}

	p.advanceDot()
	p.updateNMILine(shared)

	if p.scanline >= -1 && p.scanline < 240 {
		p.renderDot()
	}
}

func (p *PPU) advanceDot() {
	p.cycle++

	// Odd-frame skip: with rendering enabled, the pre-render line's
	// last dot is skipped on odd frames, shortening the frame by one
	// PPU cycle.
	if p.scanline == -1 && p.cycle == 340 && p.oddFrame && p.renderingEnabled {
		p.cycle = 341
	}

	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline == 240 && p.frameCompleteCallback != nil {
			p.frameCompleteCallback()
		}
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			p.suppressNMIFlag = false
			p.ignoreNMI = false
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		if !p.suppressNMIFlag {
			p.ppuStatus |= 0x80
		}
	}
	if p.scanline == -1 && p.cycle == 1 {
		p.ppuStatus &= 0x7F
		p.ppuStatus &^= 0x40 // sprite 0 hit
		p.ppuStatus &^= 0x20 // sprite overflow
		p.sprite0Hit = false
		p.spriteOverflow = false
	}

	if !p.renderingEnabled {
		return
	}
	onRenderLine := p.scanline == -1 || p.scanline < 240
	if !onRenderLine {
		return
	}

	if (p.cycle >= 1 && p.cycle <= 256) || (p.cycle >= 321 && p.cycle <= 336) {
		p.shiftBackgroundRegisters()
		p.backgroundFetchCycle()
	}
	if p.cycle == 256 {
		p.incrementY()
	}
	if p.cycle == 257 {
		p.copyX()
		p.fetchSpritePatterns()
	}
	if p.scanline == -1 && p.cycle >= 280 && p.cycle <= 304 {
		p.copyY()
	}
}

// updateNMILine raises shared.NMIPending on the rising edge of
// (PPUCTRL NMI-enable && VBlank flag). A rising edge caused by the
// natural VBlank-start transition fires immediately; one caused by a
// PPUCTRL write landing while the flag is already set is delayed by
// nmiDelayDots, approximating the hardware's one-instruction lag. A
// falling edge (either side turning off) retracts any NMI the CPU
// hasn't yet consumed, covering both "PPUCTRL bit 7 cleared cancels a
// pending NMI" and the $2002-read race.
func (p *PPU) updateNMILine(shared *iobus.Shared) {
	ctrlEnabled := p.ppuCtrl&0x80 != 0
	statusSet := p.ppuStatus&0x80 != 0
	level := ctrlEnabled && statusSet

	if p.nmiCyclesLeft > 0 {
		p.nmiCyclesLeft--
		if p.nmiCyclesLeft == 0 {
			p.nmiLookahead = false
			if !p.ignoreNMI && level {
				shared.NMIPending = true
			}
		}
	}

	if level && !p.nmiOutputPrev {
		if ctrlEnabled && !p.nmiCtrlEnabledPrev && statusSet {
			p.nmiLookahead = true
			p.nmiCyclesLeft = nmiDelayDots
		} else if !p.ignoreNMI {
			shared.NMIPending = true
		}
	} else if !level && p.nmiOutputPrev {
		shared.NMIPending = false
		p.nmiCyclesLeft = 0
		p.nmiLookahead = false
	}

	p.nmiOutputPrev = level
	p.nmiCtrlEnabledPrev = ctrlEnabled
}

func (p *PPU) renderDot() {
	if p.spritesEnabled && p.scanline >= 0 && p.scanline < 240 && p.cycle == 1 {
		if p.lastEvalScanline != p.scanline {
			p.evaluateSprites()
		}
	}

	if p.cycle < 1 || p.cycle > 256 || p.scanline < 0 {
		return
	}
	if p.memory == nil {
		return
	}

	pixelX := p.cycle - 1
	pixelY := p.scanline

	bgColorIndex, bgPaletteIndex := uint8(0), uint8(0)
	if p.backgroundEnabled && (pixelX >= 8 || p.ppuMask&0x02 != 0) {
		bgColorIndex, bgPaletteIndex = p.backgroundPixel()
	}

	var spriteColorIndex, spritePaletteIndex uint8
	var spritePriority, spriteIsZero bool
	if p.spritesEnabled && (pixelX >= 8 || p.ppuMask&0x04 != 0) {
		spriteColorIndex, spritePaletteIndex, spritePriority, spriteIsZero = p.stepSprites()
	} else if p.spritesEnabled {
		p.stepSpritesNoOutput()
	}

	if spriteIsZero && bgColorIndex != 0 && spriteColorIndex != 0 && !p.sprite0Hit && pixelX < 255 {
		p.sprite0Hit = true
		p.ppuStatus |= 0x40
	}

	p.frameBuffer[pixelY*256+pixelX] = p.compositePixel(bgColorIndex, bgPaletteIndex, spriteColorIndex, spritePaletteIndex, spritePriority)
}

func (p *PPU) backgroundPixel() (colorIndex, paletteIndex uint8) {
	bit := uint16(0x8000) >> p.x
	if p.bgShiftPatternLo&bit != 0 {
		colorIndex |= 1
	}
	if p.bgShiftPatternHi&bit != 0 {
		colorIndex |= 2
	}
	if p.bgShiftAttrLo&bit != 0 {
		paletteIndex |= 1
	}
	if p.bgShiftAttrHi&bit != 0 {
		paletteIndex |= 2
	}
	return
}

func (p *PPU) compositePixel(bgColor, bgPalette, spriteColor, spritePalette uint8, spritePriority bool) uint32 {
	if spriteColor == 0 {
		if bgColor == 0 {
			return p.lookupColor(0x3F00, 0)
		}
		return p.lookupColor(0x3F00, uint16(bgPalette)*4+uint16(bgColor))
	}
	if bgColor == 0 {
		return p.lookupColor(0x3F10, uint16(spritePalette)*4+uint16(spriteColor))
	}
	if spritePriority {
		return p.lookupColor(0x3F00, uint16(bgPalette)*4+uint16(bgColor))
	}
	return p.lookupColor(0x3F10, uint16(spritePalette)*4+uint16(spriteColor))
}

func (p *PPU) lookupColor(base uint16, offset uint16) uint32 {
	nesColor := p.memory.Read(base + offset)
	if p.ppuMask&0x01 != 0 {
		nesColor &= 0x30 // greyscale: collapse to the grey column
	}
	return NESColorToRGB(nesColor)
}

func (p *PPU) shiftBackgroundRegisters() {
	p.bgShiftPatternLo <<= 1
	p.bgShiftPatternHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

// backgroundFetchCycle runs the 2C02's 8-dot NT/AT/pattern-low/
// pattern-high fetch sequence, spanning dots 1-256 and 321-336.
func (p *PPU) backgroundFetchCycle() {
	switch (p.cycle - 1) % 8 {
	case 0:
		p.reloadBackgroundShifters()
		p.ntByte = p.memory.Read(0x2000 | (p.v & 0x0FFF))
	case 2:
		addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
		at := p.memory.Read(addr)
		shift := ((p.v >> 4) & 4) | (p.v & 2)
		p.atByte = (at >> shift) & 0x03
	case 4:
		p.patternLo = p.memory.Read(p.backgroundPatternAddr())
	case 6:
		p.patternHi = p.memory.Read(p.backgroundPatternAddr() + 8)
	case 7:
		p.incrementCoarseX()
	}
}

func (p *PPU) backgroundPatternAddr() uint16 {
	base := uint16(0)
	if p.ppuCtrl&0x10 != 0 {
		base = 0x1000
	}
	fineY := (p.v >> 12) & 0x07
	return base + uint16(p.ntByte)*16 + fineY
}

func (p *PPU) reloadBackgroundShifters() {
	p.bgShiftPatternLo = (p.bgShiftPatternLo & 0xFF00) | uint16(p.patternLo)
	p.bgShiftPatternHi = (p.bgShiftPatternHi & 0xFF00) | uint16(p.patternHi)
	if p.atByte&0x01 != 0 {
		p.bgShiftAttrLo = (p.bgShiftAttrLo & 0xFF00) | 0x00FF
	} else {
		p.bgShiftAttrLo &= 0xFF00
	}
	if p.atByte&0x02 != 0 {
		p.bgShiftAttrHi = (p.bgShiftAttrHi & 0xFF00) | 0x00FF
	} else {
		p.bgShiftAttrHi &= 0xFF00
	}
}

// evaluateSprites implements the dots-1-64/dots-65-256 two-phase
// protocol as a single computation: nothing a CPU program can observe
// depends on sub-window timing as long as the dot-256 result (secondary
// OAM contents, overflow flag, sprite count) is correct, so this runs
// the whole scan at dot 1 instead of stepping across 192 dots.
func (p *PPU) evaluateSprites() {
	p.lastEvalScanline = p.scanline
	p.sprite0OnScanline = false

	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	for i := range p.spriteIndexes {
		p.spriteIndexes[i] = 0xFF
	}

	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}

	found := 0
	n := 0
	m := 0
	for n < 64 {
		y := int(p.oam[n*4+m])
		inRange := p.scanline >= y+1 && p.scanline < y+1+spriteHeight

		if found < 8 {
			if inRange {
				base := n * 4
				dst := found * 4
				copy(p.secondaryOAM[dst:dst+4], p.oam[base:base+4])
				p.spriteIndexes[found] = uint8(n)
				if n == 0 {
					p.sprite0OnScanline = true
				}
				found++
			}
			n++
			continue
		}

		if inRange {
			p.spriteOverflow = true
			p.ppuStatus |= 0x20
			break
		}
		// The overflow-bug diagonal scan: hardware increments both n
		// and m here instead of resetting m to 0, since the evaluation
		// logic no longer distinguishes "start of a new sprite" once
		// eight have already been found.
		n++
		m = (m + 1) % 4
	}
	p.spriteCount = uint8(found)
}

// fetchSpritePatterns loads the per-slot shift registers and x-counters
// for the sprites evaluateSprites found, approximating dots 257-320 as
// a single fetch at dot 257. The result is consumed starting the next
// scanline's dot 1, matching the one-line pipeline latency real
// hardware has between evaluation and rendering.
func (p *PPU) fetchSpritePatterns() {
	spriteHeight := 8
	if p.ppuCtrl&0x20 != 0 {
		spriteHeight = 16
	}

	for i := 0; i < int(p.spriteCount); i++ {
		base := i * 4
		y := int(p.secondaryOAM[base])
		tile := p.secondaryOAM[base+1]
		attr := p.secondaryOAM[base+2]
		x := p.secondaryOAM[base+3]

		row := p.scanline - (y + 1)
		if row < 0 {
			row = 0
		}
		if attr&0x80 != 0 {
			row = spriteHeight - 1 - row
		}

		var patternBase uint16
		patternTile := tile
		if spriteHeight == 8 {
			if p.ppuCtrl&0x08 != 0 {
				patternBase = 0x1000
			}
		} else {
			if tile&0x01 != 0 {
				patternBase = 0x1000
			}
			patternTile = tile &^ 0x01
			if row >= 8 {
				patternTile++
				row -= 8
			}
		}

		addr := patternBase + uint16(patternTile)*16 + uint16(row)
		lo := p.memory.Read(addr)
		hi := p.memory.Read(addr + 8)
		if attr&0x40 != 0 {
			lo = reverseBits(lo)
			hi = reverseBits(hi)
		}

		p.spritePatternLo[i] = lo
		p.spritePatternHi[i] = hi
		p.spriteAttr[i] = attr
		p.spriteXCounter[i] = x
	}
}

func reverseBits(b uint8) uint8 {
	var r uint8
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// stepSprites advances every active sprite slot by one dot, returning
// the highest-priority (lowest slot index) opaque sprite pixel found.
func (p *PPU) stepSprites() (colorIndex, paletteIndex uint8, priority, isSpriteZero bool) {
	for i := 0; i < int(p.spriteCount); i++ {
		if p.spriteXCounter[i] > 0 {
			p.spriteXCounter[i]--
			continue
		}
		pixel := (p.spritePatternHi[i]&0x80)>>6 | (p.spritePatternLo[i]&0x80)>>7
		p.spritePatternLo[i] <<= 1
		p.spritePatternHi[i] <<= 1
		if pixel != 0 && colorIndex == 0 {
			colorIndex = pixel
			paletteIndex = p.spriteAttr[i] & 0x03
			priority = p.spriteAttr[i]&0x20 != 0
			isSpriteZero = p.spriteIndexes[i] == 0
		}
	}
	return
}

// stepSpritesNoOutput advances the sprite pipeline's counters/shift
// registers without producing a visible pixel, for the left-edge
// clipping window where sprites are still being consumed but masked.
func (p *PPU) stepSpritesNoOutput() {
	for i := 0; i < int(p.spriteCount); i++ {
		if p.spriteXCounter[i] > 0 {
			p.spriteXCounter[i]--
			continue
		}
		p.spritePatternLo[i] <<= 1
		p.spritePatternHi[i] <<= 1
	}
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = p.ppuMask&0x08 != 0
	p.spritesEnabled = p.ppuMask&0x10 != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

func (p *PPU) writePPUScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(value) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(value) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writePPUAddr(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(value) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.memory == nil {
		data = 0
	} else if p.v >= 0x3F00 {
		data = p.memory.Read(p.v)
		p.readBuffer = p.memory.Read(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.memory.Read(p.v)
	}
	p.incrementV()
	return data
}

func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}
	p.incrementV()
}

// incrementV applies a $2007 access's address-increment side effect.
// Outside rendering this is the documented +1/+32 per PPUCTRL bit 2;
// during rendering (on a visible or pre-render scanline with rendering
// enabled) the access instead glitches into the same coarse-X/Y
// increment the background fetch pipeline performs on its own, a
// well-known quirk of accessing $2007 while the PPU is also using v.
func (p *PPU) incrementV() {
	onRenderLine := p.scanline == -1 || p.scanline < 240
	if p.renderingEnabled && onRenderLine {
		p.incrementCoarseX()
		p.incrementY()
		return
	}
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}

// GetFrameBuffer returns the current frame's pixel buffer (0x00RRGGBB).
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

// GetFrameCount returns the number of completed frames.
func (p *PPU) GetFrameCount() uint64 { return p.frameCount }

// Scanline returns the current scanline (-1 for pre-render).
func (p *PPU) Scanline() int { return p.scanline }

// Cycle returns the current dot within the scanline.
func (p *PPU) Cycle() int { return p.cycle }

// IsRenderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) IsRenderingEnabled() bool { return p.renderingEnabled }

// IsVBlank reports the current state of the VBlank flag.
func (p *PPU) IsVBlank() bool { return p.ppuStatus&0x80 != 0 }

// Scroll helper methods, operating on the internal v/t VRAM address
// latches per the well-known loopy register layout.

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyX() {
	p.v = (p.v &^ 0x041F) | (p.t & 0x041F)
}

func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}

// NES 2C02 NTSC palette, in 0xAARRGGBB form.
var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a 2C02 palette index to 0x00RRGGBB.
func NESColorToRGB(colorIndex uint8) uint32 {
	if colorIndex >= 64 {
		return 0
	}
	return nesColorPalette[colorIndex] & 0x00FFFFFF
}
