package engine

import (
	"strings"
	"sync/atomic"

	"github.com/embedwatch/overwatcher/internal/testdesc"
)

// Watcher classifies lines from rx against the active marker table
// and fires per-state triggers (§4.4). The active table switches once,
// from the config-phase union to the test-phase table alone, when the
// driver finishes the config walk; SetMarkers makes that swap safe to
// perform from a different goroutine than Run.
type Watcher struct {
	e       *Engine
	markers atomic.Pointer[testdesc.MarkerTable]
	rx      *Queue[string]
	state   *Queue[string]
}

// NewWatcher builds a Watcher over the given marker table (the
// config-phase union or the plain test-phase table per §3).
func NewWatcher(e *Engine, markers testdesc.MarkerTable, rx, state *Queue[string]) *Watcher {
	w := &Watcher{e: e, rx: rx, state: state}
	w.SetMarkers(markers)
	return w
}

// SetMarkers replaces the active marker table.
func (w *Watcher) SetMarkers(markers testdesc.MarkerTable) {
	w.markers.Store(&markers)
}

// Run classifies lines until rx is closed.
func (w *Watcher) Run() {
	for {
		line, ok := w.rx.Pop()
		if !ok {
			return
		}
		w.classify(line)
	}
}

// classify scans the marker table in declaration order — observable
// and load-bearing, per §4.4 — and dispatches on the first match.
func (w *Watcher) classify(line string) {
	markers := *w.markers.Load()
	for _, m := range markers {
		if !matches(line, m, w.e.desc.Prompts) {
			continue
		}

		state := m.State
		tokens := w.e.desc.Triggers[state]
		w.e.metrics.ObserveState(state)
		w.e.runlog.Logf("FOUND %s state in %q", state, line)

		runCritical(w.e, tokens, state)

		w.state.Push(state)

		if w.e.flags.RunTriggers() {
			runRemaining(w.e, tokens, state)
		}
		return
	}
}

// matches applies the substring rule for ordinary states and the
// empty-trailing-segment rule for prompts (§4.4, property 2): a
// prompt marker must end the line, not merely appear inside it (so a
// command echo like "router# show config" does not re-trigger a "#"
// prompt).
func matches(line string, m testdesc.MarkerEntry, prompts map[string]bool) bool {
	if prompts[m.State] {
		parts := strings.Split(line, m.Substring)
		return len(parts) >= 2 && parts[len(parts)-1] == ""
	}
	return strings.Contains(line, m.Substring)
}

// runCritical executes WATCH_STATES/TRIGGER_START tokens from tokens,
// in declared order, unconditionally — they are the only way to
// re-enable globally-disabled triggers or resume watching states.
func runCritical(e *Engine, tokens []string, state string) {
	for _, tok := range tokens {
		mod, ok := LookupModifier(tok)
		if ok && mod.Critical() {
			e.invokeModifier(mod, state)
		}
	}
}

// runRemaining walks tokens again, running every non-critical
// modifier and sending every literal command.
func runRemaining(e *Engine, tokens []string, state string) {
	for _, tok := range tokens {
		mod, ok := LookupModifier(tok)
		if ok {
			if mod.Critical() {
				continue // already run by runCritical
			}
			e.invokeModifier(mod, state)
			continue
		}
		e.metrics.ObserveTrigger(state)
		e.tx.Push(tok)
	}
}
