// Package logtail reads the game server's append-only log: incrementally
// from a line cursor, or backwards from the end of the file.
package logtail

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/fsutil"
)

// RotationSignal reports, once, that the log file was replaced since the
// last call. RotationWatcher implements it.
type RotationSignal interface {
	Rotated() bool
}

// Reader exposes the lines appended to a log file since a cursor.
//
// A cursor is a count of complete lines. The Reader remembers the byte offset
// reached by its last read so that reading from the same cursor again seeks
// instead of rescanning the whole file. A trailing line without a newline is
// not counted until it is completed. The seek is trusted only while the bytes
// just before the remembered offset are unchanged, so a file truncated in
// place and regrown past that offset is still read from the start.
type Reader struct {
	path     string
	rotation RotationSignal

	valid  bool
	offset int64
	lines  int
	info   os.FileInfo
	tail   []byte
}

// fingerprintSize is how many bytes before the remembered offset must match.
const fingerprintSize = 256

// NewReader creates a Reader for the log at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the log path.
func (r *Reader) Path() string {
	return r.path
}

// SetRotationSignal attaches an external rotation detector.
func (r *Reader) SetRotationSignal(sig RotationSignal) {
	r.rotation = sig
}

// NewLinesSince returns the lines after cursor and the new cursor.
// When the log holds fewer lines than cursor, or the file was replaced, the
// log is treated as rotated: every line is new and the cursor restarts at 0.
func (r *Reader) NewLinesSince(cursor int) ([]string, int, error) {
	if cursor < 0 {
		cursor = 0
	}
	rotated := r.rotation != nil && r.rotation.Rotated()

	f, info, err := r.open()
	if err != nil {
		return nil, cursor, err
	}
	defer f.Close()

	if r.valid && r.info != nil && !os.SameFile(r.info, info) {
		rotated = true
	}

	if !rotated && r.valid && r.lines == cursor && info.Size() >= r.offset &&
		bytes.Equal(fingerprint(f, r.offset), r.tail) {
		if _, err := f.Seek(r.offset, io.SeekStart); err != nil {
			return nil, cursor, unavailable(r.path, err)
		}
		lines, n, err := readComplete(f)
		if err != nil {
			return nil, cursor, unavailable(r.path, err)
		}
		r.remember(f, info, r.offset+n, r.lines+len(lines))
		return lines, r.lines, nil
	}

	all, n, err := readComplete(f)
	if err != nil {
		return nil, cursor, unavailable(r.path, err)
	}
	r.remember(f, info, n, len(all))

	if rotated || len(all) < cursor {
		return all, len(all), nil
	}
	return all[cursor:], len(all), nil
}

// LineCount returns the number of complete lines currently in the log.
func (r *Reader) LineCount() (int, error) {
	f, info, err := r.open()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	all, n, err := readComplete(f)
	if err != nil {
		return 0, unavailable(r.path, err)
	}
	r.remember(f, info, n, len(all))
	return len(all), nil
}

func (r *Reader) remember(f io.ReaderAt, info os.FileInfo, offset int64, lines int) {
	r.valid = true
	r.info = info
	r.offset = offset
	r.lines = lines
	r.tail = fingerprint(f, offset)
}

// fingerprint returns up to fingerprintSize bytes ending at offset, or nil
// when they cannot be read.
func fingerprint(f io.ReaderAt, offset int64) []byte {
	start := max(offset-fingerprintSize, 0)
	buf := make([]byte, offset-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return nil
	}
	return buf
}

func (r *Reader) open() (*os.File, os.FileInfo, error) {
	f, err := fsutil.OpenScoped(r.path)
	if err != nil {
		return nil, nil, unavailable(r.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, unavailable(r.path, err)
	}
	return f, info, nil
}

// readComplete reads newline-terminated lines and returns them with the
// number of bytes they occupied.
func readComplete(rd io.Reader) ([]string, int64, error) {
	br := bufio.NewReader(rd)
	var (
		lines []string
		n     int64
	)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, n, nil
			}
			return nil, 0, err
		}
		n += int64(len(line))
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}
}

func unavailable(path string, err error) error {
	return core.ErrTransient(core.CodeLogUnavailable, fmt.Sprintf("log %s unavailable", path)).
		WithCause(err)
}
