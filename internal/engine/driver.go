package engine

import "time"

// promptWaitPeriod is the poll period of the prompt-wait helper
// (§4.5).
const promptWaitPeriod = 200 * time.Millisecond

// Driver walks a sequence using the shared stepping algorithm of
// §4.5. The same instance runs both the config walk and the test
// walk; they differ only in which sequence is consumed and which
// outcome a mismatch produces.
type Driver struct {
	e *Engine
}

// NewDriver builds a Driver bound to e.
func NewDriver(e *Engine) *Driver {
	return &Driver{e: e}
}

// RunConfigWalk executes config_seq against the config-phase marker
// table, which must already be active on the watcher. An empty
// config_seq is treated as a no-op step: the source's equivalent
// helper returns a sentinel value for an empty sequence and the
// caller enqueues it regardless, which the state watcher then
// mistakes for a shutdown signal. Skipping the walk entirely avoids
// replicating that ambiguity (§9 Design Notes).
func (d *Driver) RunConfigWalk() Outcome {
	if len(d.e.desc.ConfigSeq) == 0 {
		return OutcomeOK
	}
	return d.walk(d.e.desc.ConfigSeq, OutcomeConfigFailed)
}

// RunTestWalk executes test_seq once, or forever when infiniteTest is
// set — each loop refills the per-run timeout budget and increments
// test_loop.
func (d *Driver) RunTestWalk() Outcome {
	for {
		outcome := d.walk(d.e.desc.TestSeq, OutcomeFailed)
		if outcome != OutcomeOK || !d.e.desc.Options.InfiniteTest {
			return outcome
		}
		d.e.flags.IncCounter("test_loop")
		d.e.flags.SetCounter("test_timeouts", d.e.desc.Options.TestMaxTimeouts)
	}
}

// walk steps through seq in the priority-dispatch order of §4.5:
// user-input pseudo-state, action pseudo-state, modifier token, then
// plain state name. The first match wins; mismatchOutcome is the
// outcome recorded when a state-name step observes something else
// with no tolerating modifier (OutcomeConfigFailed for the config
// walk, OutcomeFailed for the test walk).
func (d *Driver) walk(seq []string, mismatchOutcome Outcome) Outcome {
	e := d.e
	e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))

	i := 0
	for i < len(seq) {
		token := seq[i]

		switch {
		case hasEntry(e.desc.UserInp, token):
			i = d.stepUserInput(token, i)

		case hasEntry(e.desc.Actions, token):
			i = d.stepAction(token, i)
			e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))

		default:
			if mod, ok := LookupModifier(token); ok {
				e.timer.Stop()
				e.invokeModifier(mod, token)
				e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))
				i++
				continue
			}

			next, done, outcome := d.stepState(token, i, mismatchOutcome)
			i = next
			if done {
				return outcome
			}
			e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))
		}
	}

	e.timer.Stop()
	return OutcomeOK
}

// stepUserInput blocks the walk on an operator-supplied line: the
// main timer is stopped for the duration of the wait so the prompt
// does not compete with the per-step deadline, per §4.5 rule 1. Lines
// arriving on rx from the device are still classified normally while
// this blocks (§9 Design Notes, open question).
func (d *Driver) stepUserInput(token string, i int) int {
	e := d.e
	e.timer.Stop()
	e.runlog.Logf("%s", e.desc.UserInp[token])
	if e.stdin != nil {
		e.stdin()
	}
	e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))
	return i + 1
}

// stepAction runs every command in the pseudo-state's ordered list: a
// modifier name is invoked directly, anything else is gated by
// tossCoin and, if sent, followed by a prompt wait (§4.5 rule 2).
func (d *Driver) stepAction(token string, i int) int {
	e := d.e
	for _, cmd := range e.desc.Actions[token] {
		if mod, ok := LookupModifier(cmd); ok {
			e.invokeModifier(mod, token)
			continue
		}
		if !e.tossCoin() {
			continue
		}
		e.tx.Push(cmd)
		d.promptWait()
	}
	return i + 1
}

// stepState blocks for the next observed state (§4.5 rule 4). While
// opt_IgnoreStates is set, observed states are discarded and the wait
// continues. A mismatch is tolerated — the step simply retries — when
// the observed state's own trigger list contains a modifier, since
// that means the mismatch is itself meaningful (e.g. a reboot
// notification); otherwise it is recorded as mismatchOutcome and the
// walk ends. done is true once either the step has nothing left to
// wait for (shutdown in progress) or the final outcome is decided.
func (d *Driver) stepState(expected string, i int, mismatchOutcome Outcome) (next int, done bool, outcome Outcome) {
	e := d.e
	for {
		observed, ok := e.state.Pop()
		if !ok {
			return i, true, e.resultVal()
		}
		if e.flags.IgnoreStates() {
			continue
		}
		if observed == expected {
			e.runlog.Logf("MOVED TO STATE= %s", expected)
			return i + 1, false, ""
		}
		if containsModifier(e.desc.Triggers[observed]) {
			continue
		}
		e.setResult(mismatchOutcome)
		return i, true, mismatchOutcome
	}
}

// promptWait polls state non-blockingly after an action send, looking
// for a prompt state (§4.5, "Prompt wait"). States that are not
// prompts are passed back through the queue so the driver's own
// sequence-walk still observes them.
func (d *Driver) promptWait() {
	e := d.e
	if e.flags.IgnoreStates() {
		return
	}

	timing := e.flags.TimeCmd()
	var start time.Time
	if timing {
		start = time.Now()
	}

	nudged := false
	for iter := 0; iter < e.desc.Options.WaitPromptReturn; iter++ {
		if iter == e.desc.Options.WaitPromptEnter && !nudged {
			e.tx.Push("")
			nudged = true
		}

		if observed, ok := e.state.TryPop(); ok {
			if e.desc.Prompts[observed] {
				break
			}
			e.state.Push(observed)
		}

		time.Sleep(promptWaitPeriod)
	}

	if timing {
		e.runlog.Logf("TIMECMD elapsed=%s", time.Since(start))
		e.flags.ClearTimeCmd()
	}
}

func timeoutDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func hasEntry[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}

func containsModifier(tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := LookupModifier(tok); ok {
			return true
		}
	}
	return false
}
