//go:build !windows
// +build !windows

package actuator

// ForPlatform returns the input backend for this platform. Only the
// Windows backend is implemented; elsewhere automation degrades to
// no-ops and the recorder still captures.
func ForPlatform(titlePattern string) Actuator {
	return Nop{}
}
