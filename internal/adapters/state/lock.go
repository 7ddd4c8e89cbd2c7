package state

import (
	"fmt"

	"github.com/gofrs/flock"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// processLock guarantees a single monitor owns the state directory.
type processLock struct {
	fl *flock.Flock
}

func newProcessLock(path string) *processLock {
	return &processLock{fl: flock.New(path)}
}

// Lock acquires exclusive ownership of the state directory without blocking.
// It fails with core.ErrLockHeld when another monitor is running.
func (s *Store) Lock() error {
	locked, err := s.lock.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring state lock: %w", err)
	}
	if !locked {
		return core.ErrState(core.CodeLockHeld,
			fmt.Sprintf("state directory %s is owned by another monitor", s.dir))
	}
	return nil
}

// Unlock releases the state directory.
func (s *Store) Unlock() error {
	return s.lock.fl.Unlock()
}
