// Package actuator abstracts the input-simulation backend. The
// recorder only needs these four best-effort operations; a failed
// focus or click is reported, never fatal.
package actuator

// Actuator is the capability set the automation layer drives the
// desktop with.
type Actuator interface {
	// FocusTargetWindow brings the IDE window to the foreground.
	FocusTargetWindow() bool
	// Click presses and releases the primary button at screen
	// coordinates.
	Click(x, y int)
	// Scroll issues a wheel gesture at screen coordinates. Negative
	// ticks scroll down.
	Scroll(x, y, ticks int)
	// PressKey taps a named key ("enter", "escape", ...). Unknown
	// names are ignored.
	PressKey(name string)
}

// Nop is an actuator that does nothing. Used headless and as the
// default when no backend is available for the platform.
type Nop struct{}

func (Nop) FocusTargetWindow() bool { return false }
func (Nop) Click(x, y int)          {}
func (Nop) Scroll(x, y, ticks int)  {}
func (Nop) PressKey(name string)    {}
