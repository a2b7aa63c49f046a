//go:build windows
// +build windows

package actuator

import (
	"strings"
	"syscall"
	"time"
	"unsafe"
)

var (
	user32                    = syscall.NewLazyDLL("user32.dll")
	procSetCursorPos          = user32.NewProc("SetCursorPos")
	procMouseEvent            = user32.NewProc("mouse_event")
	procKeybdEvent            = user32.NewProc("keybd_event")
	procFindWindowW           = user32.NewProc("FindWindowW")
	procGetWindowTextW        = user32.NewProc("GetWindowTextW")
	procEnumWindows           = user32.NewProc("EnumWindows")
	procSetForegroundWindow   = user32.NewProc("SetForegroundWindow")
	procShowWindow            = user32.NewProc("ShowWindow")
	procIsWindowVisible       = user32.NewProc("IsWindowVisible")
)

const (
	MOUSEEVENTF_LEFTDOWN = 0x0002
	MOUSEEVENTF_LEFTUP   = 0x0004
	MOUSEEVENTF_WHEEL    = 0x0800
	WHEEL_DELTA          = 120

	KEYEVENTF_KEYUP = 0x0002

	SW_SHOWMAXIMIZED = 3
)

// Virtual-key codes for the keys the automation layer uses.
var virtualKeys = map[string]byte{
	"enter":  0x0D,
	"escape": 0x1B,
	"tab":    0x09,
	"end":    0x23,
	"pgdn":   0x22,
}

// ForPlatform returns the input backend for this platform.
func ForPlatform(titlePattern string) Actuator {
	return NewWindows(titlePattern)
}

// Windows drives input through user32. The target window is found by
// partial title match, the same way the capture side locates its
// window handle.
type Windows struct {
	TitlePattern string
}

// NewWindows creates an actuator targeting windows whose title
// contains pattern.
func NewWindows(pattern string) *Windows {
	return &Windows{TitlePattern: pattern}
}

// FocusTargetWindow finds the target window, maximizes it and brings
// it to the foreground.
func (w *Windows) FocusTargetWindow() bool {
	hwnd := findWindowByTitle(w.TitlePattern)
	if hwnd == 0 {
		return false
	}

	procShowWindow.Call(hwnd, SW_SHOWMAXIMIZED)
	ret, _, _ := procSetForegroundWindow.Call(hwnd)
	return ret != 0
}

// Click moves the cursor and presses the left button.
func (w *Windows) Click(x, y int) {
	procSetCursorPos.Call(uintptr(x), uintptr(y))
	procMouseEvent.Call(MOUSEEVENTF_LEFTDOWN, 0, 0, 0, 0)
	time.Sleep(20 * time.Millisecond)
	procMouseEvent.Call(MOUSEEVENTF_LEFTUP, 0, 0, 0, 0)
}

// Scroll moves the cursor and rolls the wheel. Negative ticks scroll
// down.
func (w *Windows) Scroll(x, y, ticks int) {
	procSetCursorPos.Call(uintptr(x), uintptr(y))
	delta := uintptr(int32(ticks * WHEEL_DELTA))
	procMouseEvent.Call(MOUSEEVENTF_WHEEL, 0, 0, delta, 0)
}

// PressKey taps a named key. Unknown names are ignored.
func (w *Windows) PressKey(name string) {
	vk, ok := virtualKeys[strings.ToLower(name)]
	if !ok {
		return
	}
	procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	procKeybdEvent.Call(uintptr(vk), 0, KEYEVENTF_KEYUP, 0)
}

// findWindowByTitle enumerates top-level windows looking for a title
// containing pattern (case-insensitive).
func findWindowByTitle(pattern string) uintptr {
	var match uintptr
	lowered := strings.ToLower(pattern)

	cb := syscall.NewCallback(func(hwnd uintptr, lparam uintptr) uintptr {
		visible, _, _ := procIsWindowVisible.Call(hwnd)
		if visible == 0 {
			return 1 // continue enumeration
		}

		buf := make([]uint16, 256)
		procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		title := syscall.UTF16ToString(buf)
		if title != "" && strings.Contains(strings.ToLower(title), lowered) {
			match = hwnd
			return 0 // stop enumeration
		}
		return 1
	})

	procEnumWindows.Call(cb, 0)
	return match
}
