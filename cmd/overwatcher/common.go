package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/embedwatch/overwatcher/internal/config"
	"github.com/embedwatch/overwatcher/internal/engine"
	"github.com/embedwatch/overwatcher/internal/logging"
	"github.com/embedwatch/overwatcher/internal/telemetry"
	"github.com/embedwatch/overwatcher/internal/testdesc"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// endpointFlags are the server/port/config-file flags common to both
// run and fake (§6.2). CLI flags always override a loaded settings
// file.
type endpointFlags struct {
	server       string
	port         int
	settingsTOML string
	logLevel     string
	logFormat    string
	metricsAddr  string
}

func addEndpointFlags(cmd *cobra.Command, f *endpointFlags) {
	cmd.Flags().StringVar(&f.server, "server", "", "device endpoint host (default localhost, or from --config)")
	cmd.Flags().IntVar(&f.port, "port", 0, "device endpoint port (default 3000, or from --config)")
	cmd.Flags().StringVar(&f.settingsTOML, "config", "", "optional engine settings TOML file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "diagnostic log format: text, json")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "optional address to serve Prometheus metrics on, e.g. :9120")
}

// resolveEndpoint applies the settings file (if any), then lets
// explicit flags win. sleepSockWait is zero unless a settings file
// overrides the link manager's default reboot-aware reopen window.
func resolveEndpoint(f *endpointFlags) (server string, port int, sleepSockWait time.Duration, err error) {
	server, port = config.DefaultServer, config.DefaultPort

	if f.settingsTOML != "" {
		cfg, warnings, lerr := config.Load(f.settingsTOML)
		if lerr != nil {
			return "", 0, 0, lerr
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		server, port = cfg.Server, cfg.Port
		sleepSockWait = time.Duration(cfg.SleepSockWait * float64(time.Second))
	}

	if f.server != "" {
		server = f.server
	}
	if f.port != 0 {
		port = f.port
	}
	return server, port, sleepSockWait, nil
}

// startMetrics optionally serves the Prometheus handler in the
// background and returns a collector; both are nil if metricsAddr is
// empty.
func startMetrics(metricsAddr string) *telemetry.Collector {
	if metricsAddr == "" {
		return nil
	}
	collector := telemetry.New()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		_ = http.ListenAndServe(metricsAddr, mux)
	}()
	return collector
}

// stdinWaiter returns a function the engine calls to block for a
// single operator-acknowledgment line (§4.5 user-input pseudo-state).
// Device bytes keep arriving and being classified on the reader
// goroutine while this blocks (§9 Design Notes, open question). When
// stdin is an interactive terminal a cue is printed before blocking;
// piped input (e.g. scripted acknowledgments) reads silently.
func stdinWaiter() func() {
	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(os.Stdin)
	return func() {
		if interactive {
			fmt.Fprint(os.Stdout, "> ")
		}
		scanner.Scan()
	}
}

func runEngine(descPath string, cfg engine.Config, ef *endpointFlags) (engine.Outcome, error) {
	desc, err := testdesc.Load(descPath)
	if err != nil {
		return "", err
	}

	diagLog, cleanup, err := logging.DiagnosticLogger(ef.logLevel, ef.logFormat, "")
	if err != nil {
		return "", err
	}
	if cleanup != nil {
		defer cleanup()
	}

	runlog, err := logging.Open(desc.Name, os.Stdout)
	if err != nil {
		return "", err
	}

	metrics := startMetrics(ef.metricsAddr)

	eng, err := engine.New(desc, cfg, runlog, diagLog, metrics, stdinWaiter())
	if err != nil {
		return "", err
	}

	return eng.Run()
}

func toExitErr(outcome engine.Outcome, err error) error {
	if err != nil {
		if engine.ErrResultDrainFailed(err) {
			return &exitCodeError{code: engine.ExitCodeResultReadFailure}
		}
		return err
	}
	code := engine.ExitCode(outcome)
	if code == 0 {
		return nil
	}
	return &exitCodeError{code: code}
}
