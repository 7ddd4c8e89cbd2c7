package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
)

// DefaultCrashDumpDir is used when no directory is configured.
const DefaultCrashDumpDir = ".tickwarden/crashdumps"

// ErrNoCrashDumps is returned by LoadLatestCrashDump when the directory holds none.
var ErrNoCrashDumps = errors.New("no crash dumps found")

// CrashDump contains all information captured when a monitor operation panics.
type CrashDump struct {
	Timestamp time.Time `json:"timestamp"`
	ProcessID int       `json:"process_id"`
	GoVersion string    `json:"go_version"`
	GOOS      string    `json:"goos"`
	GOARCH    string    `json:"goarch"`

	// Operation is the monitor step that panicked, e.g. "vote_scan".
	Operation  string `json:"operation"`
	PanicValue string `json:"panic_value"`
	StackTrace string `json:"stack_trace,omitempty"`

	ResourceState   ResourceSnapshot   `json:"resource_state"`
	ResourceHistory []ResourceSnapshot `json:"resource_history,omitempty"`
	Host            *HostSnapshot      `json:"host,omitempty"`
}

// CrashDumpWriter handles crash dump generation and persistence.
type CrashDumpWriter struct {
	dir          string
	maxFiles     int
	includeStack bool
	logger       *logging.Logger
	monitor      *ResourceMonitor
	host         *HostCollector

	mu sync.Mutex // Protects file operations
}

// NewCrashDumpWriter creates a crash dump writer. monitor and host may be nil.
func NewCrashDumpWriter(
	dir string,
	maxFiles int,
	includeStack bool,
	logger *logging.Logger,
	monitor *ResourceMonitor,
	host *HostCollector,
) *CrashDumpWriter {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	if dir == "" {
		dir = DefaultCrashDumpDir
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CrashDumpWriter{
		dir:          dir,
		maxFiles:     maxFiles,
		includeStack: includeStack,
		logger:       logger.WithComponent("crashdump"),
		monitor:      monitor,
		host:         host,
	}
}

// Dir returns the crash dump directory.
func (w *CrashDumpWriter) Dir() string {
	return w.dir
}

// WriteCrashDump generates and writes a crash dump for a panic in op.
func (w *CrashDumpWriter) WriteCrashDump(op string, panicValue interface{}) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	dump := CrashDump{
		Timestamp:  time.Now().UTC(),
		ProcessID:  os.Getpid(),
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Operation:  op,
		PanicValue: fmt.Sprintf("%v", panicValue),
	}

	if w.includeStack {
		dump.StackTrace = string(debug.Stack())
	}

	if w.monitor != nil {
		dump.ResourceState = w.monitor.TakeSnapshot()
		dump.ResourceHistory = w.monitor.GetHistory()
	}

	if w.host != nil {
		snap := w.host.Collect()
		dump.Host = &snap
	}

	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("creating crash dump dir: %w", err)
	}

	// Nanoseconds keep two panics in the same second from colliding.
	filename := fmt.Sprintf("crash-%s.json",
		dump.Timestamp.Format("2006-01-02T15-04-05.000000000"))
	path := filepath.Join(w.dir, filename)

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling crash dump: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing crash dump: %w", err)
	}

	_ = w.cleanupOldDumps()

	return path, nil
}

// RecoverAndReturn recovers from a panic in op, writes a dump, and sets *errPtr
// instead of re-panicking.
// Usage: defer writer.RecoverAndReturn("vote_scan", &err)
//
//nolint:gocritic // ptrToRefParam: errPtr must be a pointer to modify the caller's error variable
func (w *CrashDumpWriter) RecoverAndReturn(op string, errPtr *error) {
	if r := recover(); r != nil {
		path, dumpErr := w.WriteCrashDump(op, r)
		if dumpErr != nil {
			w.logger.Error("failed to write crash dump",
				"operation", op,
				"error", dumpErr,
				"panic", r,
			)
		} else {
			w.logger.Error("crash dump written after panic",
				"operation", op,
				"path", path,
				"panic", r,
			)
		}
		*errPtr = core.ErrInternal(core.CodePanicRecovered,
			fmt.Sprintf("%s panicked: %v (dump: %s)", op, r, path))
	}
}

// Guard runs fn and converts a panic into a returned error.
func (w *CrashDumpWriter) Guard(op string, fn func() error) (err error) {
	defer w.RecoverAndReturn(op, &err)
	return fn()
}

// cleanupOldDumps removes crash dumps exceeding maxFiles.
func (w *CrashDumpWriter) cleanupOldDumps() error {
	dumps, err := listDumps(w.dir)
	if err != nil {
		return err
	}

	for len(dumps) > w.maxFiles {
		path := filepath.Join(w.dir, dumps[0])
		if err := os.Remove(path); err != nil {
			w.logger.Warn("failed to remove old crash dump",
				"path", path,
				"error", err,
			)
		}
		dumps = dumps[1:]
	}

	return nil
}

// listDumps returns crash dump file names, oldest first. File names embed
// the timestamp so lexical order is chronological.
func listDumps(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dumps []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".json") {
			dumps = append(dumps, e.Name())
		}
	}
	sort.Strings(dumps)
	return dumps, nil
}

// LoadLatestCrashDump loads the most recent crash dump from the directory.
func LoadLatestCrashDump(dir string) (*CrashDump, error) {
	dumps, err := listDumps(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCrashDumps
		}
		return nil, fmt.Errorf("reading crash dump dir: %w", err)
	}
	if len(dumps) == 0 {
		return nil, ErrNoCrashDumps
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening crash dump dir: %w", err)
	}
	defer func() { _ = root.Close() }()

	data, err := root.ReadFile(dumps[len(dumps)-1])
	if err != nil {
		return nil, fmt.Errorf("reading crash dump: %w", err)
	}

	var dump CrashDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parsing crash dump: %w", err)
	}

	return &dump, nil
}
