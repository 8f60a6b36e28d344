// Package engine implements the concurrent state-observation and
// test-driving core: the link manager, reader, writer, state watcher,
// and test driver cooperating over bounded-blocking queues and a
// single shared main timer (§2).
package engine

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/embedwatch/overwatcher/internal/buildinfo"
	"github.com/embedwatch/overwatcher/internal/link"
	"github.com/embedwatch/overwatcher/internal/logging"
	"github.com/embedwatch/overwatcher/internal/telemetry"
	"github.com/embedwatch/overwatcher/internal/testdesc"
)

// errResultDrainFailed is surfaced when the result queue closes before
// ever delivering a value — the generic "blocked read failed" case of
// §4.7, mapped by the CLI to exit code -99.
var errResultDrainFailed = errors.New("engine: result queue closed without a value")

// ErrResultDrainFailed reports whether err is the result-drain
// failure condition.
func ErrResultDrainFailed(err error) bool {
	return errors.Is(err, errResultDrainFailed)
}

// Config bundles the CLI-level options the engine needs (§6.2).
type Config struct {
	Server        string
	Port          int
	Telnet        bool // bare-CR terminator and telnet reopen policy
	Endr          bool // append CR LF instead of LF on serial
	Listener      bool // "fake" server variant: bind+accept instead of dial
	SleepSockWait time.Duration // telnet reboot-aware reopen quiet window; zero means use link's default
}

// Engine wires the five activities together and owns the shared
// runtime state (§2, §5).
type Engine struct {
	desc   *testdesc.Description
	cfg    Config
	telnet bool

	link  *link.Manager
	flags *Flags
	timer *Timer

	rx     *Queue[string]
	tx     *Queue[string]
	state  *Queue[string]
	result *Queue[Outcome]

	watcher *Watcher

	runlog  *logging.RunLog
	log     *slog.Logger
	metrics *telemetry.Collector
	stdin   func()

	resultOnce   sync.Once
	resultMu     sync.Mutex
	finalOutcome Outcome
}

// New constructs an Engine for desc. stdin is called once per
// user-input pseudo-state to block for an operator acknowledgment; it
// may be nil outside interactive runs (the step then advances
// immediately).
func New(desc *testdesc.Description, cfg Config, runlog *logging.RunLog, log *slog.Logger, metrics *telemetry.Collector, stdin func()) (*Engine, error) {
	if err := validateModifierTokens(desc); err != nil {
		return nil, err
	}

	e := &Engine{
		desc:    desc,
		cfg:     cfg,
		telnet:  cfg.Telnet,
		flags:   NewFlags(desc.Options.TestMaxTimeouts),
		rx:      NewQueue[string](),
		tx:      NewQueue[string](),
		state:   NewQueue[string](),
		result:  NewQueue[Outcome](),
		runlog:  runlog,
		log:     log,
		metrics: metrics,
		stdin:   stdin,
	}
	e.timer = NewTimer(e.onTimerFire)

	if cfg.Listener {
		e.link = link.NewListener(cfg.Server, cfg.Port, log)
	} else {
		e.link = link.New(cfg.Server, cfg.Port, log)
	}
	if cfg.SleepSockWait > 0 {
		e.link.SetSleepSockWait(cfg.SleepSockWait)
	}

	if metrics != nil {
		metrics.SetBuildInfo(buildinfo.Version, runtime.Version())
	}

	// The revision check is informational only, per fakeOverwatcher.py:
	// a mismatch never fails the run, only logs (§12).
	if rev, ok := desc.RevisionRequired(); ok && rev != buildinfo.Revision() {
		if log != nil {
			log.Warn("overwatcher revision mismatch",
				"required", rev, "actual", buildinfo.Revision())
		}
	}

	return e, nil
}

// Run opens the link, starts the four supporting activities, drives
// the config walk then the test walk, and blocks for the final
// outcome. Once the link is open, it always cleans up (closing queues,
// the socket, and the result log) before returning, whether it returns
// an outcome or an error. If the link cannot be opened, Run returns
// that error at once, before any activity is started and without
// closing anything.
func (e *Engine) Run() (Outcome, error) {
	if err := e.link.Open(); err != nil {
		return "", err
	}

	e.writeHeader()

	configMarkers := e.desc.MarkersCfg.Union(e.desc.Markers)
	e.watcher = NewWatcher(e, configMarkers, e.rx, e.state)

	reader := NewReader(e.link, e.rx, e.log, e.telnet, e.flags, e.metrics)
	writer := NewWriter(e.link, e.tx, e.log, e.telnet, e.desc.Options.Sendendr || e.cfg.Endr, e.metrics)
	driver := NewDriver(e)

	stopReader := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); reader.Run(stopReader) }()
	go func() { defer wg.Done(); writer.Run() }()
	go func() { defer wg.Done(); e.watcher.Run() }()
	go func() {
		defer wg.Done()
		if outcome := driver.RunConfigWalk(); outcome != OutcomeOK {
			e.setResult(outcome)
			return
		}
		e.watcher.SetMarkers(e.desc.Markers)
		e.setResult(driver.RunTestWalk())
	}()

	outcome, ok := e.result.Pop()
	e.cleanAll(stopReader, &wg)
	if !ok {
		return "", errResultDrainFailed
	}
	return outcome, nil
}

// setResult records the first outcome delivered, dropping any later
// ones — the result queue must receive at most one value before
// cleanup begins (§3 invariants).
func (e *Engine) setResult(o Outcome) {
	e.resultOnce.Do(func() {
		e.resultMu.Lock()
		e.finalOutcome = o
		e.resultMu.Unlock()
		if e.runlog != nil {
			e.runlog.Logf("RESULT=%s", o)
		}
		if e.metrics != nil {
			e.metrics.ObserveOutcome(string(o))
		}
		e.result.Push(o)
	})
}

func (e *Engine) resultVal() Outcome {
	e.resultMu.Lock()
	defer e.resultMu.Unlock()
	return e.finalOutcome
}

// onTimerFire is the main timer's fire handler (§4.7): while the
// per-run timeout budget has entries left, it is spent as a recovery
// allowance rather than an outcome — on serial links a bare CR is
// sent to nudge the device in case the socket itself stalled.
func (e *Engine) onTimerFire() {
	remaining := e.flags.Counter("test_timeouts")
	if remaining > 0 {
		e.flags.SetCounter("test_timeouts", remaining-1)
		if e.metrics != nil {
			e.metrics.IncTimeoutConsumed()
		}
		e.timer.Reset(timeoutDuration(e.desc.Options.Timeout))
		if !e.telnet {
			e.tx.Push("\r") // bare CR nudge (§4.7); a 1-char command is sent raw, untouched by the terminator
		}
		return
	}
	e.setResult(OutcomeTimeout)
}

// cleanAll flips every activity's shutdown signal, joins them, and
// closes the link and the result log (§5). The socket itself is
// closed exactly once, by the reader as it exits. Joining is
// best-effort: the reader's blocked read unblocks at its next
// read-timeout boundary rather than being forced closed mid-call.
func (e *Engine) cleanAll(stopReader chan struct{}, wg *sync.WaitGroup) {
	e.timer.Stop()
	close(stopReader)
	e.rx.Close()
	e.tx.Close()
	e.state.Close()
	e.result.Close()
	wg.Wait()
	_ = e.link.Close()
	if e.runlog != nil {
		_ = e.runlog.Close()
	}
}

func (e *Engine) writeHeader() {
	if e.runlog == nil {
		return
	}
	e.runlog.WriteHeader(logging.HeaderInfo{
		Name:            e.desc.Name,
		FullName:        e.desc.FullName,
		Info:            e.desc.Info,
		Markers:         markerMap(e.desc.Markers),
		MarkersCfg:      markerMap(e.desc.MarkersCfg),
		Triggers:        e.desc.Triggers,
		ConfigSeq:       e.desc.ConfigSeq,
		TestSeq:         e.desc.TestSeq,
		UserInp:         e.desc.UserInp,
		Actions:         e.desc.Actions,
		InitialRunTrig:  e.flags.RunTriggers(),
		InitialIgnoreSt: e.flags.IgnoreStates(),
	})
}

func markerMap(t testdesc.MarkerTable) map[string]string {
	m := make(map[string]string, len(t))
	for _, e := range t {
		m[e.Substring] = e.State
	}
	return m
}
