//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package cli

// IsTerminal reports false where terminals cannot be detected.
func IsTerminal(uintptr) bool { return false }
