package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestStore_LastRestart_Missing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.LastRestart(core.ScopeGlobal)
	if err != nil {
		t.Fatalf("LastRestart() error = %v", err)
	}
	if ok {
		t.Error("LastRestart() ok = true for a fresh store")
	}
}

func TestStore_LastRestart_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	when := time.Date(2024, 5, 1, 12, 30, 15, 500, time.UTC)

	for _, scope := range core.Scopes() {
		if err := s.SetLastRestart(scope, when); err != nil {
			t.Fatalf("SetLastRestart(%s) error = %v", scope, err)
		}
		got, ok, err := s.LastRestart(scope)
		if err != nil || !ok {
			t.Fatalf("LastRestart(%s) = %v, %v, %v", scope, got, ok, err)
		}
		if !got.Equal(when) {
			t.Errorf("LastRestart(%s) = %v, want %v", scope, got, when)
		}
	}
}

func TestStore_LastRestart_UnixSeconds(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), CooldownFile(core.ScopeVote))
	if err := os.WriteFile(path, []byte("1700000000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.LastRestart(core.ScopeVote)
	if err != nil || !ok {
		t.Fatalf("LastRestart() = %v, %v, %v", got, ok, err)
	}
	if got.Unix() != 1700000000 {
		t.Errorf("LastRestart() = %d, want 1700000000", got.Unix())
	}
}

func TestStore_LastRestart_Corrupted(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.Dir(), CooldownFile(core.ScopeGlobal))
	if err := os.WriteFile(path, []byte("yesterday"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := s.LastRestart(core.ScopeGlobal)
	if !core.IsCategory(err, core.ErrCatState) {
		t.Errorf("LastRestart() error = %v, want state error", err)
	}
}

func TestStore_Ballot(t *testing.T) {
	s := newTestStore(t)

	b, err := s.Ballot()
	if err != nil {
		t.Fatalf("Ballot() error = %v", err)
	}
	if !b.Empty() {
		t.Errorf("Ballot() on fresh store = %+v, want empty", b)
	}

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	want := core.Ballot{Voters: []string{"Alex", "steve_2"}, CreatedAt: created}
	if err := s.SaveBallot(want); err != nil {
		t.Fatalf("SaveBallot() error = %v", err)
	}

	got, err := s.Ballot()
	if err != nil {
		t.Fatalf("Ballot() error = %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if len(got.Voters) != 2 || got.Voters[0] != "Alex" || got.Voters[1] != "steve_2" {
		t.Errorf("Voters = %v, want [Alex steve_2]", got.Voters)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), FileBallot))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "2024-05-01T12:00:00Z\nAlex\nsteve_2\n" {
		t.Errorf("ballot file = %q", data)
	}
}

func TestStore_SaveEmptyBallotRemovesFile(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveBallot(core.Ballot{Voters: []string{"a"}, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBallot(core.Ballot{}); err != nil {
		t.Fatalf("SaveBallot(empty) error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), FileBallot)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ballot file still present: %v", err)
	}
}

func TestStore_ClearBallot(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveBallot(core.Ballot{Voters: []string{"a", "b"}, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveAcknowledged([]string{"a"}); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearBallot(); err != nil {
		t.Fatalf("ClearBallot() error = %v", err)
	}

	b, _ := s.Ballot()
	acked, _ := s.Acknowledged()
	if !b.Empty() || len(acked) != 0 {
		t.Errorf("after ClearBallot: ballot=%v acked=%v", b, acked)
	}

	// Clearing twice is harmless.
	if err := s.ClearBallot(); err != nil {
		t.Errorf("second ClearBallot() error = %v", err)
	}
}

func TestStore_Acknowledged(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveAcknowledged([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Acknowledged()
	if err != nil {
		t.Fatalf("Acknowledged() error = %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Acknowledged() = %v", got)
	}
}

func TestStore_Cursor(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.Cursor(); ok || err != nil {
		t.Fatalf("Cursor() on fresh store ok=%v err=%v", ok, err)
	}
	if err := s.SetCursor(42); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Cursor()
	if err != nil || !ok || got != 42 {
		t.Errorf("Cursor() = %d, %v, %v; want 42", got, ok, err)
	}

	if err := os.WriteFile(filepath.Join(s.Dir(), FileCursor), []byte("-3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Cursor(); !core.IsCategory(err, core.ErrCatState) {
		t.Errorf("Cursor() with negative value error = %v, want state error", err)
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCursor(7); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(FileCursor); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, ok, _ := s.Cursor(); ok {
		t.Error("cursor survived Reset()")
	}
	if err := s.Reset(FileCursor); err != nil {
		t.Errorf("Reset() on missing file error = %v", err)
	}
}

func TestStore_Lock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	first, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := first.Lock(); err != nil {
		t.Fatalf("first Lock() error = %v", err)
	}
	if err := second.Lock(); !errors.Is(err, core.ErrLockHeld) {
		t.Errorf("second Lock() error = %v, want ErrLockHeld", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if err := second.Lock(); err != nil {
		t.Errorf("Lock() after release error = %v", err)
	}
	_ = second.Unlock()
}
