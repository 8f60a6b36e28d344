package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// RunLog is the per-run result log described in overwatcher.py's
// print_test/log/logNoPrint trio: a single line-buffered file, opened
// for write (truncating any previous run), every line prefixed with
// an ISO timestamp, mirrored to the console. It is the log file named
// <test name>_testresults.log in the spec.
type RunLog struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	color   bool
}

// HeaderInfo carries the fields printed once at startup, matching
// print_test's header block.
type HeaderInfo struct {
	Name             string
	FullName         string
	Info             map[string]any
	Markers          map[string]string
	MarkersCfg       map[string]string
	Triggers         map[string][]string
	ConfigSeq        []string
	TestSeq          []string
	UserInp          map[string]string
	Actions          map[string][]string
	InitialRunTrig   bool
	InitialIgnoreSt  bool
}

// Open creates (truncating) the result log file for the given test
// name and wires console mirroring to w.
func Open(testName string, w io.Writer) (*RunLog, error) {
	path := testName + "_testresults.log"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot open result log: %s: %w", path, err)
	}
	return &RunLog{
		file:    f,
		console: w,
		color:   isTerminalWriter(w),
	}, nil
}

// Path returns the conventional log file name for a test.
func Path(testName string) string {
	return testName + "_testresults.log"
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// WriteHeader writes the one-time header block, mirroring print_test.
func (l *RunLog) WriteHeader(h HeaderInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", h.Name)
	fmt.Fprintf(&b, "FULL NAME:\n%v\n", h.FullName)
	fmt.Fprintf(&b, "INFO:\n%v\n", h.Info)
	fmt.Fprintf(&b, "MARKERS:\n%v\n", h.Markers)
	fmt.Fprintf(&b, "MARKERS_CFG:\n%v\n", h.MarkersCfg)
	fmt.Fprintf(&b, "TRIGGERS:\n%v\n", h.Triggers)
	fmt.Fprintf(&b, "CONFIG SEQ:\n%v\n", h.ConfigSeq)
	fmt.Fprintf(&b, "TEST SEQ:\n%v\n", h.TestSeq)
	fmt.Fprintf(&b, "USER_INP:\n%v\n", h.UserInp)
	fmt.Fprintf(&b, "ACTIONS:\n%v\n", h.Actions)
	fmt.Fprintf(&b, "RUN TRIGGERS=%v\n", h.InitialRunTrig)
	fmt.Fprintf(&b, "IGNORE STATES=%v\n", h.InitialIgnoreSt)
	fmt.Fprintf(&b, "\n\nTEST START:\n\n")

	_, _ = l.file.Write([]byte(b.String()))
	_, _ = io.WriteString(l.console, b.String())
}

// Logf appends an ISO-timestamped "+++> ..." line to the file and
// mirrors it to the console, matching log()/logNoPrint() in the
// original. The message is built from format and args with
// fmt.Sprintf.
func (l *RunLog) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("2006-01-02 15:04:05.000000")
	line := fmt.Sprintf("%s - +++> %s\n", ts, msg)

	_, _ = l.file.Write([]byte(line))

	if l.color {
		_, _ = io.WriteString(l.console, "\x1b[2m"+ts+"\x1b[0m +++> "+msg+"\n")
	} else {
		_, _ = io.WriteString(l.console, line)
	}
}

// Close closes the underlying file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
