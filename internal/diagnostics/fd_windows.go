//go:build windows

package diagnostics

// CountFDs returns the number of open file descriptors and the maximum allowed.
// Windows has no /proc/self/fd or /dev/fd equivalent, so this returns 0, 0 to
// indicate FD monitoring is unavailable.
func CountFDs() (open, limit int) {
	return 0, 0
}
