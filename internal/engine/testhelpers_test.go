package engine

import (
	"bytes"
	"testing"

	"github.com/embedwatch/overwatcher/internal/logging"
	"github.com/embedwatch/overwatcher/internal/testdesc"
)

// newTestEngine builds an Engine wired up enough to exercise the
// driver, watcher, flags, and timer in isolation -- no link manager,
// no background goroutines. Individual tests call driver/watcher
// methods directly and drive the queues themselves.
func newTestEngine(t *testing.T, desc *testdesc.Description) *Engine {
	t.Helper()

	dir := t.TempDir()
	rl, err := logging.Open(dir+"/run", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("logging.Open: %v", err)
	}
	t.Cleanup(func() { _ = rl.Close() })

	e := &Engine{
		desc:   desc,
		telnet: false,
		flags:  NewFlags(desc.Options.TestMaxTimeouts),
		rx:     NewQueue[string](),
		tx:     NewQueue[string](),
		state:  NewQueue[string](),
		result: NewQueue[Outcome](),
		runlog: rl,
	}
	e.timer = NewTimer(e.onTimerFire)
	return e
}

// baseOptions returns a minimal, fast Options value for tests that
// don't care about the real defaults.
func baseOptions() testdesc.Options {
	return testdesc.Options{
		Timeout:          300,
		SleepMin:         30,
		SleepMax:         120,
		TestMaxTimeouts:  2,
		WaitPromptEnter:  1000,
		WaitPromptReturn: 2000,
	}
}
