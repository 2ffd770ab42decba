package supervisor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCaptureTailBounded(t *testing.T) {
	w := newCaptureWriter(zerolog.Nop(), "stderr", 16)
	if _, err := w.Write(bytes.Repeat([]byte("x"), 10)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := w.Write([]byte("tail ends here")); err != nil {
		t.Fatalf("write: %v", err)
	}
	tail := w.Tail()
	if len(tail) > 16 {
		t.Fatalf("tail length = %d, want <= 16", len(tail))
	}
	if !strings.HasSuffix(tail, "tail ends here") {
		t.Fatalf("tail = %q, want it to keep the newest bytes", tail)
	}
}

func TestCaptureLogsCompleteLines(t *testing.T) {
	var sink bytes.Buffer
	log := zerolog.New(&sink)
	w := newCaptureWriter(log, "stdout", 0)

	if _, err := w.Write([]byte("first line\r\npartial")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(sink.String(), "first line") {
		t.Fatalf("complete line not logged: %s", sink.String())
	}
	if strings.Contains(sink.String(), "partial") {
		t.Fatalf("partial line logged early: %s", sink.String())
	}
	if !strings.Contains(sink.String(), `"stream":"stdout"`) {
		t.Fatalf("stream field missing: %s", sink.String())
	}

	w.Flush()
	if !strings.Contains(sink.String(), "partial") {
		t.Fatalf("partial line not flushed: %s", sink.String())
	}
}

func TestCaptureTailIncludesPartialLine(t *testing.T) {
	w := newCaptureWriter(zerolog.Nop(), "stderr", 0)
	if _, err := w.Write([]byte("error: no trailing newline")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := w.Tail(); got != "error: no trailing newline" {
		t.Fatalf("tail = %q", got)
	}
}
