//go:build !linux && !darwin && !windows

package diagnostics

// CountFDs is not implemented on this platform and reports 0, 0.
func CountFDs() (open, limit int) {
	return 0, 0
}
