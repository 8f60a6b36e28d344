package engine

import (
	"math/rand"
	"regexp"
	"time"
)

// Modifier is the tagged variant for the named side-effect tokens
// valid inside triggers, actions, or sequences (§4.6). The source
// dispatches on these by name through a runtime mapping; here the
// token string is resolved once, at registry lookup, into this
// compile-time enum.
type Modifier int

const (
	ModIgnoreStates Modifier = iota
	ModWatchStates
	ModTriggerStart
	ModTriggerStop
	ModSleepRandom
	ModRandomStart
	ModRandomStop
	ModCount
	ModTimeCmd
)

var modifierNames = map[string]Modifier{
	"IGNORE_STATES": ModIgnoreStates,
	"WATCH_STATES":  ModWatchStates,
	"TRIGGER_START": ModTriggerStart,
	"TRIGGER_STOP":  ModTriggerStop,
	"SLEEP_RANDOM":  ModSleepRandom,
	"RANDOM_START":  ModRandomStart,
	"RANDOM_STOP":   ModRandomStop,
	"COUNT":         ModCount,
	"TIMECMD":       ModTimeCmd,
}

// criticalModifiers is the compile-time set that must run even when
// triggers are globally disabled or states are ignored — the only
// way to re-enable them (§4.4).
var criticalModifiers = map[Modifier]bool{
	ModWatchStates:  true,
	ModTriggerStart: true,
}

// LookupModifier resolves a token to its modifier variant.
func LookupModifier(token string) (Modifier, bool) {
	m, ok := modifierNames[token]
	return m, ok
}

// Critical reports whether m must run regardless of the global
// trigger/ignore flags.
func (m Modifier) Critical() bool { return criticalModifiers[m] }

func (m Modifier) String() string {
	for name, v := range modifierNames {
		if v == m {
			return name
		}
	}
	return "UNKNOWN"
}

// modifierTokenShape matches the ALL_CAPS_WITH_UNDERSCORES spelling
// every real modifier uses, at least two characters long so it never
// catches the single-key Y/N commands §4.3 sends raw. A trigger/action
// token in this shape that does not resolve through LookupModifier is
// almost certainly a typo for a modifier name rather than a literal
// device command, and is treated as the fatal "missing modifier
// implementation" condition (§7) rather than silently sent to the
// device.
var modifierTokenShape = regexp.MustCompile(`^[A-Z][A-Z_]+$`)

// looksLikeModifier reports whether token is shaped like a modifier
// name (and is therefore a validation candidate), regardless of
// whether it actually resolves.
func looksLikeModifier(token string) bool {
	return modifierTokenShape.MatchString(token)
}

// invokeModifier runs the effect for mod, observing the current
// state name (unused by most modifiers; COUNT keys its counter on
// it). Setting a flag to its already-current value is a no-op and
// must not log (§4.6, property 7).
func (e *Engine) invokeModifier(mod Modifier, state string) {
	e.metrics.ObserveModifier(mod.String())
	switch mod {
	case ModIgnoreStates:
		if e.flags.swapIgnoreStates(true) {
			e.runlog.Logf("IGNORE STATES=true")
		}
		if e.telnet {
			if conn := e.link.Conn(); conn != nil {
				_ = conn.Close()
			}
		}
	case ModWatchStates:
		if e.flags.swapIgnoreStates(false) {
			e.runlog.Logf("IGNORE STATES=false")
		}
	case ModTriggerStart:
		if e.flags.swapRunTriggers(true) {
			e.runlog.Logf("RUN TRIGGERS=true")
		}
	case ModTriggerStop:
		if e.flags.swapRunTriggers(false) {
			e.runlog.Logf("RUN TRIGGERS=false")
		}
	case ModSleepRandom:
		lo, hi := e.desc.Options.SleepMin, e.desc.Options.SleepMax
		secs := lo
		if hi > lo {
			secs = lo + rand.Float64()*(hi-lo)
		}
		d := time.Duration(secs * float64(time.Second))
		e.runlog.Logf("SLEEP_RANDOM %s", d)
		time.Sleep(d)
	case ModRandomStart:
		if e.flags.swapRandomExec(true) {
			e.runlog.Logf("RANDOM_START")
		}
	case ModRandomStop:
		if e.flags.swapRandomExec(false) {
			e.runlog.Logf("RANDOM_STOP")
		}
	case ModCount:
		n := e.flags.IncCounter(state)
		e.runlog.Logf("COUNT %s=%d counters=%v", state, n, e.flags.Snapshot())
	case ModTimeCmd:
		if e.flags.swapTimeCmd(true) {
			e.runlog.Logf("TIMECMD armed")
		}
	}
}

// tossCoin implements random-execution gating for action commands
// (§4.5). It always returns true unless opt_RandomExec is set, in
// which case it is a fair coin: false skips the command this time.
func (e *Engine) tossCoin() bool {
	if !e.flags.RandomExec() {
		return true
	}
	return rand.Float64() < 0.5
}
