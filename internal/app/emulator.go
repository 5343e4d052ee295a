// Package app wires configuration, the system bus, and a graphics
// backend into a runnable host application.
package app

import (
	"time"

	"github.com/rng999/nescore/internal/bus"
	"github.com/rng999/nescore/internal/config"
)

// Emulator drives the bus one NTSC frame at a time on a fixed 60Hz
// timestep, independent of however fast the host can actually render.
type Emulator struct {
	bus    *bus.Bus
	config *config.Config

	targetFrameTime time.Duration
	lastUpdateTime  time.Time

	frameCount uint64
	running    bool
}

// NewEmulator creates an emulator driving bus under cfg's policy.
func NewEmulator(b *bus.Bus, cfg *config.Config) *Emulator {
	e := &Emulator{
		bus:             b,
		config:          cfg,
		targetFrameTime: time.Second / 60,
	}
	e.Reset()
	return e
}

// Reset restarts frame pacing from now; it does not touch the bus.
func (e *Emulator) Reset() {
	e.lastUpdateTime = time.Now()
	e.frameCount = 0
}

// Start marks the emulator as running.
func (e *Emulator) Start() { e.running = true; e.lastUpdateTime = time.Now() }

// Stop marks the emulator as stopped.
func (e *Emulator) Stop() { e.running = false }

// IsRunning reports whether Start has been called without a matching Stop.
func (e *Emulator) IsRunning() bool { return e.running }

// Update runs exactly one NTSC frame's worth of bus ticks. The caller
// (the host run loop) is responsible for pacing calls at 60Hz; Update
// itself performs no sleeping so it behaves identically under a
// throttled interactive loop and an unthrottled headless/frame-capped
// run.
func (e *Emulator) Update() error {
	if !e.running {
		return nil
	}
	if cap := e.config.Emulation.FrameCap; cap > 0 && e.frameCount >= uint64(cap) {
		e.running = false
		return nil
	}

	e.bus.RunFrame()
	e.frameCount++
	return nil
}

// FrameCount returns the number of frames run since the last Reset.
func (e *Emulator) FrameCount() uint64 { return e.frameCount }

// TargetFrameTime returns the fixed 60Hz frame budget, for callers that
// pace their own run loop (e.g. non-Ebitengine backends sleeping
// between frames).
func (e *Emulator) TargetFrameTime() time.Duration { return e.targetFrameTime }
