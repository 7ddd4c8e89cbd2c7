package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/core"
)

// MockCall records a call to a fake.
type MockCall struct {
	Method    string
	Args      interface{}
	Timestamp time.Time
}

// =============================================================================
// Clock
// =============================================================================

// FakeClock is a core.Clock whose Sleep advances virtual time instantly.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	onSleep func(time.Duration)
}

var _ core.Clock = (*FakeClock)(nil)

// NewFakeClock creates a clock starting at start.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the virtual time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep records d and advances virtual time by it.
func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(d)
	}
}

// Advance moves virtual time forward without recording a sleep.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns every recorded sleep.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration{}, c.sleeps...)
}

// Slept returns the total of all recorded sleeps.
func (c *FakeClock) Slept() time.Duration {
	var total time.Duration
	for _, d := range c.Sleeps() {
		total += d
	}
	return total
}

// OnSleep registers a hook run after every Sleep.
func (c *FakeClock) OnSleep(fn func(time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSleep = fn
}

// =============================================================================
// Console
// =============================================================================

// FakeConsole is an in-memory core.Console. Commands sent to it are recorded,
// and responders can append output lines as the game server would.
type FakeConsole struct {
	mu         sync.Mutex
	attached   bool
	sent       []string
	output     []string
	sendErr    error
	outputErr  error
	responders map[string]func() []string
}

var _ core.Console = (*FakeConsole)(nil)

// NewFakeConsole creates an attached console with no output.
func NewFakeConsole() *FakeConsole {
	return &FakeConsole{
		attached:   true,
		responders: make(map[string]func() []string),
	}
}

// Send records command and runs its responder.
func (c *FakeConsole) Send(_ context.Context, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return core.ErrTransient(core.CodeNotAttached, "fake session not attached")
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, command)
	if fn, ok := c.responders[command]; ok {
		c.output = append(c.output, fn()...)
	}
	return nil
}

// RecentOutput returns the newest maxLines output lines.
func (c *FakeConsole) RecentOutput(_ context.Context, maxLines int) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputErr != nil {
		return nil, c.outputErr
	}
	start := max(len(c.output)-maxLines, 0)
	return append([]string{}, c.output[start:]...), nil
}

// Attached reports the configured liveness.
func (c *FakeConsole) Attached(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

// SetAttached toggles liveness.
func (c *FakeConsole) SetAttached(attached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attached = attached
}

// FailSend makes every Send return err.
func (c *FakeConsole) FailSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// FailOutput makes RecentOutput return err.
func (c *FakeConsole) FailOutput(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputErr = err
}

// Respond appends the lines returned by fn whenever command is sent.
func (c *FakeConsole) Respond(command string, fn func() []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responders[command] = fn
}

// AppendOutput adds lines to the visible output.
func (c *FakeConsole) AppendOutput(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = append(c.output, lines...)
}

// Sent returns every command sent.
func (c *FakeConsole) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.sent...)
}

// SentWithPrefix returns the sent commands starting with prefix.
func (c *FakeConsole) SentWithPrefix(prefix string) []string {
	var out []string
	for _, s := range c.Sent() {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// Restarter
// =============================================================================

// FakeRestarter counts restart calls.
type FakeRestarter struct {
	mu    sync.Mutex
	calls []MockCall
	err   error
	clock core.Clock
}

var _ core.Restarter = (*FakeRestarter)(nil)

// NewFakeRestarter creates a restarter that always succeeds.
func NewFakeRestarter() *FakeRestarter {
	return &FakeRestarter{}
}

// WithError makes every restart fail with err.
func (r *FakeRestarter) WithError(err error) *FakeRestarter {
	r.err = err
	return r
}

// WithClock stamps recorded calls with clock time.
func (r *FakeRestarter) WithClock(clock core.Clock) *FakeRestarter {
	r.clock = clock
	return r
}

// Restart records the call.
func (r *FakeRestarter) Restart(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.clock != nil {
		now = r.clock.Now()
	}
	r.calls = append(r.calls, MockCall{Method: "Restart", Timestamp: now})
	return r.err
}

// Calls returns recorded calls.
func (r *FakeRestarter) Calls() []MockCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MockCall{}, r.calls...)
}

// CallCount returns the number of restart calls.
func (r *FakeRestarter) CallCount() int {
	return len(r.Calls())
}

// =============================================================================
// Runner
// =============================================================================

// FakeRunner records external commands instead of executing them.
type FakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(name string, args []string) (string, error)
}

// NewFakeRunner creates a runner whose commands all succeed with no output.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Handle sets the function answering every command.
func (r *FakeRunner) Handle(fn func(name string, args []string) (string, error)) *FakeRunner {
	r.handler = fn
	return r
}

// Run records the command line and answers it.
func (r *FakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	handler := r.handler
	r.mu.Unlock()

	if handler == nil {
		return "", nil
	}
	return handler(name, args)
}

// Calls returns every recorded command line, name first.
func (r *FakeRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = slices.Clone(c)
	}
	return out
}

// =============================================================================
// Journal
// =============================================================================

// FakeJournal keeps restart events in memory.
type FakeJournal struct {
	mu     sync.Mutex
	events []core.RestartEvent
	err    error
}

var _ core.Journal = (*FakeJournal)(nil)

// NewFakeJournal creates an empty journal.
func NewFakeJournal() *FakeJournal {
	return &FakeJournal{}
}

// WithError makes Record fail with err.
func (j *FakeJournal) WithError(err error) *FakeJournal {
	j.err = err
	return j
}

// Record stores event.
func (j *FakeJournal) Record(_ context.Context, event core.RestartEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.events = append(j.events, event)
	return nil
}

// Recent returns up to limit events, newest first.
func (j *FakeJournal) Recent(_ context.Context, limit int) ([]core.RestartEvent, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]core.RestartEvent, 0, len(j.events))
	for i := len(j.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, j.events[i])
	}
	return out, nil
}

// Events returns every recorded event in insertion order.
func (j *FakeJournal) Events() []core.RestartEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]core.RestartEvent{}, j.events...)
}
