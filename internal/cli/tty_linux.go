package cli

import "golang.org/x/sys/unix"

// IsTerminal returns true if fd refers to a terminal.
func IsTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
