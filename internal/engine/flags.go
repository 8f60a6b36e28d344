package engine

import (
	"sync"
	"sync/atomic"
)

// Flags holds the engine's shared writable cells: the boolean option
// flags toggled by modifiers and read by the watcher and driver, plus
// the counter mapping (§3, §5). Every flag is a single atomic cell;
// set-to-constant needs no stronger synchronization. Flags implements
// link.RebootHooks so the link manager can drive the telnet
// reboot-aware policy without importing this package.
type Flags struct {
	runTriggers  atomic.Bool
	ignoreStates atomic.Bool
	randomExec   atomic.Bool
	timeCmd      atomic.Bool

	mu      sync.Mutex
	counter map[string]int
}

// NewFlags creates the runtime flag set with the engine's initial
// values: triggers on, states watched, test_loop at 1, and
// test_timeouts seeded from the description's budget.
func NewFlags(testMaxTimeouts int) *Flags {
	f := &Flags{counter: make(map[string]int)}
	f.runTriggers.Store(true)
	f.counter["test_loop"] = 1
	f.counter["test_timeouts"] = testMaxTimeouts
	return f
}

func (f *Flags) RunTriggers() bool  { return f.runTriggers.Load() }
func (f *Flags) IgnoreStates() bool { return f.ignoreStates.Load() }
func (f *Flags) RandomExec() bool   { return f.randomExec.Load() }
func (f *Flags) TimeCmd() bool      { return f.timeCmd.Load() }

// SetRunTriggers and SetIgnoreStates satisfy link.RebootHooks.
func (f *Flags) SetRunTriggers(v bool)  { f.runTriggers.Store(v) }
func (f *Flags) SetIgnoreStates(v bool) { f.ignoreStates.Store(v) }

// swapRunTriggers, swapIgnoreStates, swapRandomExec, and swapTimeCmd
// report whether the value actually changed, which is how modifier
// dispatch honors the no-op-must-not-log rule (§4.6).
func (f *Flags) swapRunTriggers(v bool) bool  { return f.runTriggers.Swap(v) != v }
func (f *Flags) swapIgnoreStates(v bool) bool { return f.ignoreStates.Swap(v) != v }
func (f *Flags) swapRandomExec(v bool) bool   { return f.randomExec.Swap(v) != v }
func (f *Flags) swapTimeCmd(v bool) bool      { return f.timeCmd.Swap(v) != v }

func (f *Flags) ClearTimeCmd() { f.timeCmd.Store(false) }

// IncCounter increments a user-chosen counter (COUNT modifier target)
// and returns its new value.
func (f *Flags) IncCounter(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter[key]++
	return f.counter[key]
}

func (f *Flags) Counter(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counter[key]
}

func (f *Flags) SetCounter(key string, v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter[key] = v
}

// Snapshot returns a copy of the full counter mapping, for logging.
func (f *Flags) Snapshot() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.counter))
	for k, v := range f.counter {
		out[k] = v
	}
	return out
}
