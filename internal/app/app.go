package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/rng999/nescore/internal/bus"
	"github.com/rng999/nescore/internal/cartridge"
	"github.com/rng999/nescore/internal/config"
	"github.com/rng999/nescore/internal/graphics"
	"github.com/rng999/nescore/internal/input"
)

// Application wires a system bus, a graphics backend, and the fixed
// timestep Emulator into a runnable host program.
type Application struct {
	bus *bus.Bus

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	config   *config.Config
	emulator *Emulator

	running     bool
	initialized bool
	headless    bool

	romPath   string
	cartridge *cartridge.Cartridge

	lastController1State [8]bool
	lastController2State [8]bool
}

// Error reports an application-level failure, naming the component and
// operation that failed.
type Error struct {
	Component string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an application from configPath (empty for defaults) in
// interactive mode.
func New(configPath string) (*Application, error) {
	return NewWithMode(configPath, false)
}

// NewWithMode creates an application, optionally forcing headless mode
// regardless of the configured video backend.
func NewWithMode(configPath string, headless bool) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, &Error{Component: "config", Operation: "load", Err: err}
	}

	app := &Application{config: cfg, headless: headless}
	if err := app.initializeComponents(headless); err != nil {
		return nil, &Error{Component: "initialization", Operation: "component setup", Err: err}
	}
	return app, nil
}

func (app *Application) initializeComponents(headless bool) error {
	app.bus = bus.New()
	app.bus.SetIllegalOpcodePolicy(app.config.Emulation.IllegalOpcodePolicy)

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.emulator = NewEmulator(app.bus, app.config)
	app.initialized = true
	return nil
}

func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	switch {
	case headless:
		backendType = graphics.BackendHeadless
	default:
		switch app.config.Video.Backend {
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "nescore",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		AspectRatio:  app.config.Video.AspectRatio,
		Headless:     headless,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %w", err)
		}
		glog.Warningf("ebitengine backend failed (%v), falling back to headless", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return fmt.Errorf("failed to create fallback headless backend: %w", err)
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	if !headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(
			graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness, app.config.Video.Contrast, app.config.Video.Saturation)
	return nil
}

// LoadROM loads romPath's cartridge into the bus and starts emulation.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &Error{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.bus.LoadCartridge(cart)
	app.bus.Reset()

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("nescore - %s", filepath.Base(romPath)))
	}

	app.emulator.Start()
	return nil
}

// Run starts the host run loop: Ebitengine drives it via its own
// callback-based game loop, every other backend gets a plain
// poll/update/render loop paced to the emulator's 60Hz frame budget.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	app.running = true

	if app.graphicsBackend.GetName() == "Ebitengine" && app.window != nil {
		if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
			ebitengineWindow.SetEmulatorUpdateFunc(func() error {
				if err := app.processInput(); err != nil {
					glog.Warningf("input processing error: %v", err)
				}
				if err := app.updateEmulator(); err != nil {
					return err
				}
				if err := app.render(); err != nil {
					return err
				}
				if app.window.ShouldClose() {
					app.Stop()
				}
				return nil
			})
			return ebitengineWindow.Run()
		}
	}

	for app.running {
		if err := app.processInput(); err != nil {
			glog.Warningf("input processing error: %v", err)
		}
		if err := app.updateEmulator(); err != nil {
			glog.Warningf("emulator update error: %v", err)
		}
		if err := app.render(); err != nil {
			glog.Warningf("render error: %v", err)
		}
		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}
		if !app.emulator.IsRunning() {
			app.Stop()
		}
		time.Sleep(app.emulator.TargetFrameTime())
	}
	return nil
}

func (app *Application) updateEmulator() error {
	if app.cartridge == nil {
		return nil
	}
	return app.emulator.Update()
}

func (app *Application) render() error {
	if app.window == nil || app.cartridge == nil {
		return nil
	}

	frameBuffer := app.bus.FrameBuffer()
	processed := app.videoProcessor.ProcessFrame(frameBuffer[:])

	var out [256 * 240]uint32
	copy(out[:], processed)
	if err := app.window.RenderFrame(out); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	app.window.SwapBuffers()
	return nil
}

// processInput polls the window for events and forwards the resulting
// button state to the bus, only touching the bus when something
// actually changed.
func (app *Application) processInput() error {
	if app.window == nil || app.cartridge == nil {
		return nil
	}

	events := app.window.PollEvents()
	if len(events) == 0 {
		return nil
	}

	controller1 := app.lastController1State
	controller2 := app.lastController2State
	var changed1, changed2 bool

	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return nil

		case graphics.InputEventTypeButton:
			if is2PButton(event.Button) {
				if idx := get2PButtonIndex(event.Button); idx >= 0 {
					controller2[idx] = event.Pressed
					changed2 = true
				}
				continue
			}
			if idx := buttonIndex(graphicsButtonToInputButton(event.Button)); idx >= 0 {
				controller1[idx] = event.Pressed
				changed1 = true
			}
		}
	}

	if changed1 && controller1 != app.lastController1State {
		app.bus.SetControllerButtons(0, controller1)
		app.lastController1State = controller1
	}
	if changed2 && controller2 != app.lastController2State {
		app.bus.SetControllerButtons(1, controller2)
		app.lastController2State = controller2
	}
	return nil
}

// buttonIndex maps an input.Button to its position in the NES
// A/B/Select/Start/Up/Down/Left/Right button array, or -1 if unknown.
func buttonIndex(b input.Button) int {
	switch b {
	case input.A:
		return 0
	case input.B:
		return 1
	case input.Select:
		return 2
	case input.Start:
		return 3
	case input.Up:
		return 4
	case input.Down:
		return 5
	case input.Left:
		return 6
	case input.Right:
		return 7
	default:
		return -1
	}
}

func is2PButton(gButton graphics.Button) bool {
	switch gButton {
	case graphics.Button2A, graphics.Button2B, graphics.Button2Select, graphics.Button2Start,
		graphics.Button2Up, graphics.Button2Down, graphics.Button2Left, graphics.Button2Right:
		return true
	default:
		return false
	}
}

func get2PButtonIndex(gButton graphics.Button) int {
	switch gButton {
	case graphics.Button2A:
		return 0
	case graphics.Button2B:
		return 1
	case graphics.Button2Select:
		return 2
	case graphics.Button2Start:
		return 3
	case graphics.Button2Up:
		return 4
	case graphics.Button2Down:
		return 5
	case graphics.Button2Left:
		return 6
	case graphics.Button2Right:
		return 7
	default:
		return -1
	}
}

func graphicsButtonToInputButton(gButton graphics.Button) input.Button {
	switch gButton {
	case graphics.ButtonA:
		return input.A
	case graphics.ButtonB:
		return input.B
	case graphics.ButtonSelect:
		return input.Select
	case graphics.ButtonStart:
		return input.Start
	case graphics.ButtonUp:
		return input.Up
	case graphics.ButtonDown:
		return input.Down
	case graphics.ButtonLeft:
		return input.Left
	case graphics.ButtonRight:
		return input.Right
	default:
		return 0
	}
}

// Stop ends the run loop.
func (app *Application) Stop() { app.running = false; app.emulator.Stop() }

// IsRunning reports whether the run loop is active.
func (app *Application) IsRunning() bool { return app.running }

// Reset resets the loaded system to power-on state.
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
}

// GetBus returns the underlying bus for direct inspection or control.
func (app *Application) GetBus() *bus.Bus { return app.bus }

// GetConfig returns the application's configuration.
func (app *Application) GetConfig() *config.Config { return app.config }

// GetROMPath returns the currently loaded ROM's path.
func (app *Application) GetROMPath() string { return app.romPath }

// GetFrameCount returns the number of frames the emulator has run.
func (app *Application) GetFrameCount() uint64 { return app.emulator.FrameCount() }

// Cleanup releases graphics resources.
func (app *Application) Cleanup() error {
	var lastErr error
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			glog.Errorf("window cleanup error: %v", err)
		}
	}
	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			glog.Errorf("graphics backend cleanup error: %v", err)
		}
	}
	app.initialized = false
	return lastErr
}
