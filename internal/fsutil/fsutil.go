// Package fsutil holds small filesystem helpers shared by the log readers.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// OpenScoped opens a file for reading through a root at the file's directory,
// so the open cannot escape that directory through symlinks or "..".
func OpenScoped(path string) (*os.File, error) {
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file path: %q", path)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	return root.Open(base)
}

// ReadFileScoped reads a whole file opened with OpenScoped.
func ReadFileScoped(path string) ([]byte, error) {
	file, err := OpenScoped(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
