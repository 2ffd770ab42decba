package supervisor

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// captureWriter forwards complete lines from a child stream to the
// logger at debug level and retains a bounded tail for diagnostics.
// It is safe for the single writer (the exec pipe) plus concurrent
// Tail readers.
type captureWriter struct {
	log    zerolog.Logger
	stream string

	mu      sync.Mutex
	pending []byte // partial line not yet logged
	tail    []byte // bounded rolling tail of everything written
	max     int
}

func newCaptureWriter(log zerolog.Logger, stream string, max int) *captureWriter {
	if max <= 0 {
		max = stderrTailLimit
	}
	return &captureWriter{log: log, stream: stream, max: max}
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.tail = append(w.tail, p...)
	if over := len(w.tail) - w.max; over > 0 {
		w.tail = append(w.tail[:0:0], w.tail[over:]...)
	}
	w.pending = append(w.pending, p...)
	var lines [][]byte
	for {
		i := bytes.IndexByte(w.pending, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimRight(w.pending[:i], "\r")
		lines = append(lines, append([]byte(nil), line...))
		w.pending = w.pending[i+1:]
	}
	w.mu.Unlock()

	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		w.log.Debug().Str("stream", w.stream).Msg(string(line))
	}
	return len(p), nil
}

// Flush logs any trailing partial line. Called once after the child
// exits.
func (w *captureWriter) Flush() {
	w.mu.Lock()
	line := bytes.TrimRight(w.pending, "\r\n")
	w.pending = nil
	w.mu.Unlock()
	if len(line) > 0 {
		w.log.Debug().Str("stream", w.stream).Msg(string(line))
	}
}

// Tail returns the retained end of the stream, including any partial
// final line.
func (w *captureWriter) Tail() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.tail)
}
