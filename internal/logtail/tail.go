package logtail

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/fsutil"
)

const tailChunk = 8 * 1024

// Tail returns up to n of the last lines of the file at path, oldest first.
// An unterminated final line is included.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := fsutil.OpenScoped(path)
	if err != nil {
		return nil, unavailable(path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, unavailable(path, err)
	}

	var buf []byte
	pos := info.Size()
	for pos > 0 && bytes.Count(buf, []byte{'\n'}) <= n {
		step := min(int64(tailChunk), pos)
		pos -= step
		part := make([]byte, step)
		if _, err := f.ReadAt(part, pos); err != nil && !errors.Is(err, io.EOF) {
			return nil, unavailable(path, err)
		}
		buf = append(part, buf...)
	}

	text := strings.TrimSuffix(string(buf), "\n")
	if text == "" {
		return nil, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
