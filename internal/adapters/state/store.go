// Package state persists monitor state as small plain-text files, one
// logical value per file. Every file is human readable and can be deleted
// to force-reset that piece of state.
package state

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// File names inside the state directory.
const (
	FileBallot       = "ballot"
	FileAcknowledged = "ballot_acked"
	FileCursor       = "log_cursor"
	fileLock         = "monitor.lock"
	cooldownPrefix   = "cooldown_"
)

// Store gives typed access to the persisted monitor state.
// It is owned by a single monitor process; see Lock.
type Store struct {
	dir  string
	lock *processLock
}

// NewStore creates the state directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &Store{
		dir:  dir,
		lock: newProcessLock(filepath.Join(dir, fileLock)),
	}, nil
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// CooldownFile returns the file name backing a cooldown scope.
func CooldownFile(scope core.Scope) string {
	return cooldownPrefix + string(scope)
}

// LastRestart returns the last restart time recorded for scope.
// ok is false when no record exists.
func (s *Store) LastRestart(scope core.Scope) (t time.Time, ok bool, err error) {
	raw, ok, err := s.read(CooldownFile(scope))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err = parseTime(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false, corrupted(CooldownFile(scope), err)
	}
	return t, true, nil
}

// SetLastRestart records t as the last restart for scope.
func (s *Store) SetLastRestart(scope core.Scope, t time.Time) error {
	return s.write(CooldownFile(scope), formatTime(t)+"\n")
}

// Ballot loads the current ballot. A missing file yields an empty ballot.
func (s *Store) Ballot() (core.Ballot, error) {
	raw, ok, err := s.read(FileBallot)
	if err != nil || !ok {
		return core.Ballot{}, err
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return core.Ballot{}, nil
	}
	created, err := parseTime(lines[0])
	if err != nil {
		return core.Ballot{}, corrupted(FileBallot, err)
	}
	return core.Ballot{Voters: lines[1:], CreatedAt: created}, nil
}

// SaveBallot persists b. An empty ballot removes the file.
func (s *Store) SaveBallot(b core.Ballot) error {
	if b.Empty() {
		return s.remove(FileBallot)
	}
	var sb strings.Builder
	sb.WriteString(formatTime(b.CreatedAt))
	sb.WriteByte('\n')
	for _, v := range b.Voters {
		sb.WriteString(v)
		sb.WriteByte('\n')
	}
	return s.write(FileBallot, sb.String())
}

// Acknowledged loads the voters already announced for the current ballot.
func (s *Store) Acknowledged() ([]string, error) {
	raw, ok, err := s.read(FileAcknowledged)
	if err != nil || !ok {
		return nil, err
	}
	return splitLines(raw), nil
}

// SaveAcknowledged persists the acknowledged voter set.
func (s *Store) SaveAcknowledged(voters []string) error {
	if len(voters) == 0 {
		return s.remove(FileAcknowledged)
	}
	return s.write(FileAcknowledged, strings.Join(voters, "\n")+"\n")
}

// ClearBallot removes the ballot together with its acknowledgements.
func (s *Store) ClearBallot() error {
	return errors.Join(s.remove(FileBallot), s.remove(FileAcknowledged))
}

// Cursor returns the persisted log cursor. ok is false when none exists.
func (s *Store) Cursor() (cursor int, ok bool, err error) {
	raw, ok, err := s.read(FileCursor)
	if err != nil || !ok {
		return 0, false, err
	}
	cursor, err = strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || cursor < 0 {
		if err == nil {
			err = fmt.Errorf("negative cursor %d", cursor)
		}
		return 0, false, corrupted(FileCursor, err)
	}
	return cursor, true, nil
}

// SetCursor persists the log cursor.
func (s *Store) SetCursor(cursor int) error {
	return s.write(FileCursor, strconv.Itoa(cursor)+"\n")
}

// Reset deletes the named state file. Missing files are not an error.
func (s *Store) Reset(name string) error {
	return s.remove(name)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) read(name string) (string, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), true, nil
}

func (s *Store) write(name, content string) error {
	if err := atomicWriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

func corrupted(name string, cause error) error {
	return core.ErrState(core.CodeStateCorrupted, fmt.Sprintf("%s is unreadable; delete it to reset", name)).
		WithCause(cause)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts RFC 3339 or bare unix seconds, which is what an operator
// is likely to type by hand.
func parseTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func splitLines(raw string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out
}
