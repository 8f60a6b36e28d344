package engine

import (
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/embedwatch/overwatcher/internal/link"
	"github.com/embedwatch/overwatcher/internal/telemetry"
)

// Reader frames inbound bytes from the link into stripped lines and
// pushes them onto rx (§4.2). The per-byte read timeout is what lets
// quiet-but-waiting conditions (a login prompt with no terminator)
// still produce a line to match against markers.
type Reader struct {
	mgr     *link.Manager
	rx      *Queue[string]
	log     *slog.Logger
	telnet  bool
	hooks   link.RebootHooks
	metrics *telemetry.Collector
}

// NewReader builds a Reader. hooks is passed through to the link
// manager's reopen policy (nil is fine outside telnet mode). metrics
// may be nil.
func NewReader(mgr *link.Manager, rx *Queue[string], log *slog.Logger, telnet bool, hooks link.RebootHooks, metrics *telemetry.Collector) *Reader {
	return &Reader{mgr: mgr, rx: rx, log: log, telnet: telnet, hooks: hooks, metrics: metrics}
}

// Run frames bytes until stop is closed, then closes the socket
// before returning (§4.2, §5). A blocked read unblocks at the next
// read-timeout boundary, so shutdown here is best-effort rather than
// instantaneous.
func (r *Reader) Run(stop <-chan struct{}) {
	defer func() { _ = r.mgr.Close() }()

	var buf []byte
	one := make([]byte, 1)

	for {
		select {
		case <-stop:
			return
		default:
		}

		conn := r.mgr.Conn()
		if conn == nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(link.ReadTimeout))
		n, err := conn.Read(one)

		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				r.flush(&buf)
				continue
			}
			if r.log != nil {
				r.log.Warn("link read fault, reopening", "err", err)
			}
			if rerr := r.mgr.Reopen(r.telnet, r.hooks); rerr != nil {
				if r.log != nil {
					r.log.Error("link reopen failed", "err", rerr)
				}
				return
			}
			r.metrics.IncLinkReopen()
			buf = buf[:0]
			continue
		}
		if n == 0 {
			continue
		}

		switch one[0] {
		case '\r', '\n':
			r.flush(&buf)
		default:
			if one[0] < 0x80 {
				buf = append(buf, one[0])
			}
			// Non-ASCII bytes that do not decode are silently dropped.
		}
	}
}

func (r *Reader) flush(buf *[]byte) {
	line := strings.TrimSpace(string(*buf))
	*buf = (*buf)[:0]
	if line == "" {
		return
	}
	r.rx.Push(line)
}
