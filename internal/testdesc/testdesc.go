// Package testdesc holds the immutable test description loaded from a
// YAML file: markers, states, triggers, actions, and the sequences the
// driver walks. It is the engine's only external input besides the
// link endpoint and CLI flags.
package testdesc

// MarkerEntry is one row of an ordered marker table: a substring to
// look for in a device output line and the state name it signals.
// Iteration order is observable (the watcher scans markers in
// declaration order) so the table is a slice, never a map.
type MarkerEntry struct {
	Substring string
	State     string
}

// Options holds the scalar tunables recognized under the test
// description's "options" key. Load fills every option the document
// leaves unset with its default; an option set explicitly, even to
// zero, keeps its value.
type Options struct {
	Timeout          float64 // seconds, per-step deadline
	InfiniteTest     bool    // loop test_seq forever
	SleepMin         float64 // seconds, SLEEP_RANDOM lower bound
	SleepMax         float64 // seconds, SLEEP_RANDOM upper bound
	TestMaxTimeouts  int     // per-run soft-timeout budget
	Sendendr         bool    // append CR LF instead of LF on serial
	WaitPromptEnter  int     // poll iterations before a nudge send
	WaitPromptReturn int     // poll iterations before giving up
}

// Default option values per the description format, applied by Load
// to any option the document leaves unset.
const (
	DefaultTimeout          = 300.0
	DefaultSleepMin         = 30.0
	DefaultSleepMax         = 120.0
	DefaultTestMaxTimeouts  = 2
	DefaultWaitPromptEnter  = 1000
	DefaultWaitPromptReturn = 2000
)

// Description is the full, immutable test description. Field names
// mirror the YAML document's top-level keys (§6.1): info, markers,
// prompts, triggers, actions, initconfig (ConfigSeq), test (TestSeq),
// options, and the optional markers_cfg and user_inp.
type Description struct {
	Name     string
	FullName string

	Info map[string]any

	// Markers is the table used during the normal test phase.
	Markers MarkerTable
	// MarkersCfg is unioned with Markers only during the config walk.
	MarkersCfg MarkerTable

	// Prompts is the set of state names matched by the "empty
	// trailing segment" rule instead of plain substring containment.
	Prompts map[string]bool

	// Triggers maps a state name to its ordered token list: each
	// token is a literal command or a modifier name.
	Triggers map[string][]string

	// Actions maps a pseudo-state name to its ordered command list.
	Actions map[string][]string

	// UserInp maps a pseudo-state name to the prompt text shown to
	// the operator when the driver reaches it.
	UserInp map[string]string

	ConfigSeq []string
	TestSeq   []string

	Options Options
}

// MarkerTable is an ordered substring -> state mapping.
type MarkerTable []MarkerEntry

// Union returns a new table with the receiver's entries first,
// followed by other's entries whose substring is not already present.
// Used to build the config-phase active marker table from
// markers_cfg unioned with markers (§3).
func (t MarkerTable) Union(other MarkerTable) MarkerTable {
	seen := make(map[string]bool, len(t))
	out := make(MarkerTable, 0, len(t)+len(other))
	for _, e := range t {
		seen[e.Substring] = true
		out = append(out, e)
	}
	for _, e := range other {
		if seen[e.Substring] {
			continue
		}
		seen[e.Substring] = true
		out = append(out, e)
	}
	return out
}

// RevisionRequired extracts the "overwatcher revision required"
// integer from Info, if present.
func (d *Description) RevisionRequired() (int, bool) {
	v, ok := d.Info["overwatcher revision required"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
