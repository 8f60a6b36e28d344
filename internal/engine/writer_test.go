package engine

import (
	"bytes"
	"strings"
	"testing"
)

func TestPayloadSingleCharUnterminated(t *testing.T) {
	w := &Writer{}
	if got := w.payload("Y"); string(got) != "Y" {
		t.Errorf("payload(%q) = %q, want %q", "Y", got, "Y")
	}
}

func TestPayloadTerminators(t *testing.T) {
	cases := []struct {
		telnet, sendendr bool
		want             string
	}{
		{telnet: true, sendendr: false, want: "cmd\r"},
		{telnet: false, sendendr: true, want: "cmd\r\n"},
		{telnet: false, sendendr: false, want: "cmd\n"},
	}
	for _, tc := range cases {
		w := &Writer{telnet: tc.telnet, sendendr: tc.sendendr}
		if got := string(w.payload("cmd")); got != tc.want {
			t.Errorf("payload(telnet=%v,sendendr=%v) = %q, want %q", tc.telnet, tc.sendendr, got, tc.want)
		}
	}
}

// TestChunkingThreshold is testable property 6: a 46-character raw
// command is split into two writes; a 45-character command is sent
// whole, even though its terminated payload is also 46 bytes.
func TestChunkingThreshold(t *testing.T) {
	cmd45 := strings.Repeat("a", 45)
	cmd46 := strings.Repeat("a", 46)

	var buf bytes.Buffer
	w := &Writer{}
	payload45 := w.payload(cmd45)
	if len(payload45) != 46 {
		t.Fatalf("payload45 len = %d, want 46", len(payload45))
	}
	if err := writeChunked(&buf, payload45, len(cmd45) > chunkThreshold); err != nil {
		t.Fatalf("writeChunked: %v", err)
	}
	if buf.String() != cmd45+"\n" {
		t.Errorf("45-char command should be written whole")
	}

	countingWriter := &chunkCounter{}
	payload46 := w.payload(cmd46)
	if err := writeChunked(countingWriter, payload46, len(cmd46) > chunkThreshold); err != nil {
		t.Fatalf("writeChunked: %v", err)
	}
	if countingWriter.writes != 2 {
		t.Errorf("46-char command should split into 2 writes, got %d", countingWriter.writes)
	}
	if countingWriter.buf.String() != cmd46+"\n" {
		t.Errorf("split writes should reassemble to the full payload, got %q", countingWriter.buf.String())
	}
}

type chunkCounter struct {
	buf    bytes.Buffer
	writes int
}

func (c *chunkCounter) Write(p []byte) (int, error) {
	c.writes++
	return c.buf.Write(p)
}
