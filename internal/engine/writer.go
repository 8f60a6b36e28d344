package engine

import (
	"io"
	"log/slog"
	"time"

	"github.com/embedwatch/overwatcher/internal/link"
	"github.com/embedwatch/overwatcher/internal/telemetry"
)

// Pacing constants for the writer (§4.3). Some devices echo or
// process slowly and drop characters on long pastes, hence the
// chunking threshold; the inter-command gap is the minimum spacing
// between any two commands on the wire.
const (
	chunkThreshold  = 45
	firstChunkSize  = 40
	chunkPause      = 500 * time.Millisecond
	interCommandGap = 400 * time.Millisecond
	sendRetryPause  = 500 * time.Millisecond
)

// Writer pulls commands off tx, paces, and chunks them onto the link.
// It shares the link manager's current connection with the Reader; a
// reconnect performed by either is visible to both.
type Writer struct {
	mgr      *link.Manager
	tx       *Queue[string]
	log      *slog.Logger
	telnet   bool
	sendendr bool
	metrics  *telemetry.Collector
}

// NewWriter builds a Writer. telnet forces a bare CR terminator;
// otherwise sendendr selects CR LF over a plain LF on serial. metrics
// may be nil.
func NewWriter(mgr *link.Manager, tx *Queue[string], log *slog.Logger, telnet, sendendr bool, metrics *telemetry.Collector) *Writer {
	return &Writer{mgr: mgr, tx: tx, log: log, telnet: telnet, sendendr: sendendr, metrics: metrics}
}

// Run drains tx until it is closed, pacing every send with the
// inter-command gap.
func (w *Writer) Run() {
	for {
		cmd, ok := w.tx.Pop()
		if !ok {
			return
		}
		w.send(cmd)
		time.Sleep(interCommandGap)
	}
}

// payload builds the bytes to put on the wire for cmd. A one-character
// command is sent verbatim (Y/N prompts). Otherwise the terminator is
// appended first; if that yields a single byte (an empty command on
// telnet, i.e. a bare CR nudge), it too goes out untouched.
func (w *Writer) payload(cmd string) []byte {
	if len(cmd) == 1 {
		return []byte(cmd)
	}

	var term string
	switch {
	case w.telnet:
		term = "\r"
	case w.sendendr:
		term = "\r\n"
	default:
		term = "\n"
	}
	return []byte(cmd + term)
}

func (w *Writer) send(cmd string) {
	payload := w.payload(cmd)
	split := len(cmd) > chunkThreshold

	for {
		conn := w.mgr.Conn()
		if conn == nil {
			time.Sleep(sendRetryPause)
			continue
		}

		if err := writeChunked(conn, payload, split); err == nil {
			w.metrics.IncCommandSent()
			return
		} else if w.log != nil {
			w.log.Warn("write failed, retrying", "cmd", cmd, "err", err)
		}
		time.Sleep(sendRetryPause)
	}
}

// writeChunked sends payload whole unless split is set, in which case
// it splits into a firstChunkSize write, a pause, and the remainder
// (§4.3, property 6). The split decision is made by the caller on the
// raw command length (before the terminator is appended): a 45-byte
// command is sent whole even though its payload with terminator is 46
// bytes, while a 46-byte command splits.
func writeChunked(w io.Writer, payload []byte, split bool) error {
	if len(payload) <= 1 || !split {
		_, err := w.Write(payload)
		return err
	}

	if _, err := w.Write(payload[:firstChunkSize]); err != nil {
		return err
	}
	time.Sleep(chunkPause)
	_, err := w.Write(payload[firstChunkSize:])
	return err
}
