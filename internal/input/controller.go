// Package input implements the NES's two standard controller ports,
// each a serial shift register latched and clocked through $4016/$4017.
package input

// Button identifies one of the eight standard controller buttons.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases for call sites (key-mapping tables, host input glue)
// that read better without the Button prefix repeated at every use.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller is one NES controller: an 8-bit button latch feeding a
// shift register that $4016/$4017 reads one bit at a time.
type Controller struct {
	buttons       uint8
	shiftRegister uint8
	strobe        bool
}

// New creates a controller with no buttons held.
func New() *Controller { return &Controller{} }

// SetButton sets or clears a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight buttons at once, in A/B/Select/Start/Up/Down/Left/Right order.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	bits := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(bits[i])
		}
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool { return c.buttons&uint8(button) != 0 }

// Write handles a write to the controller's strobe line. A write with
// bit 0 set latches the current button state into the shift register;
// button changes after that write are not seen until the next one.
func (c *Controller) Write(value uint8) {
	c.strobe = value&1 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read returns the next bit of the shift register in bit 0, with bit 6
// set. While strobe is held high, every read returns the latched state
// of button A without shifting.
func (c *Controller) Read() uint8 {
	if c.strobe {
		return c.shiftRegister&1 | 0x40
	}
	bit := c.shiftRegister & 1
	c.shiftRegister = c.shiftRegister>>1 | 0x80
	return bit | 0x40
}

// Reset clears all latched state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}

// InputState owns both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates both controller ports.
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset resets both controllers.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets controller 1's button state.
func (is *InputState) SetButtons1(buttons [8]bool) { is.Controller1.SetButtons(buttons) }

// SetButtons2 sets controller 2's button state.
func (is *InputState) SetButtons2(buttons [8]bool) { is.Controller2.SetButtons(buttons) }

// Read reads $4016 (controller 1) or $4017 (controller 2). Bit 6 of
// both reads is always set, matching the open-bus behaviour real
// hardware exposes on these ports.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write strobes both controller ports; $4016 is the only writable
// address, and the strobe line is physically wired to both.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
