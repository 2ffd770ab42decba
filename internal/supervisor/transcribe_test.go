package supervisor

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/b2tsrl/openwhispr/pkg/types"
)

// fakeWAV returns n bytes with a RIFF/WAVE header so the payload
// passes the format sniff.
func fakeWAV(n int) []byte {
	b := make([]byte, n)
	copy(b, "RIFF")
	copy(b[8:], "WAVE")
	return b
}

// newServingSupervisor wires a supervisor to an httptest server as if
// it were the spawned child, so the client path can be exercised
// without a real subprocess.
func newServingSupervisor(t *testing.T, handler http.Handler, canConvert bool, mutate func(*Config)) *Supervisor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("test server port: %v", err)
	}
	cfg := Config{Host: u.Hostname(), ResourcesDir: t.TempDir()}
	if mutate != nil {
		mutate(&cfg)
	}
	sup := New(cfg, zerolog.Nop())
	sup.child = &child{
		cmd:        &exec.Cmd{},
		port:       port,
		canConvert: canConvert,
		stdout:     newCaptureWriter(zerolog.Nop(), "stdout", 0),
		stderr:     newCaptureWriter(zerolog.Nop(), "stderr", 0),
		done:       make(chan struct{}),
	}
	sup.state = StateReady
	return sup
}

func TestTranscribeMultipartLayout(t *testing.T) {
	type received struct {
		path        string
		contentType string
		body        []byte
	}
	got := make(chan received, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), body: body}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello world \n","language":"en"}`))
	})
	sup := newServingSupervisor(t, handler, false, nil)

	tr, err := sup.Transcribe(context.Background(), fakeWAV(64), TranscribeOptions{
		Language: "en",
		Prompt:   "jargon",
		Filename: "note.wav",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "hello world" {
		t.Fatalf("text = %q, want trimmed %q", tr.Text, "hello world")
	}
	if tr.Language != "en" {
		t.Fatalf("language = %q, want en", tr.Language)
	}

	req := <-got
	if req.path != "/inference" {
		t.Fatalf("path = %s, want /inference", req.path)
	}
	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("content type = %q: %v", req.contentType, err)
	}
	mr := multipart.NewReader(strings.NewReader(string(req.body)), params["boundary"])

	type partInfo struct {
		name, filename, contentType, value string
	}
	var parts []partInfo
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("read part: %v", err)
		}
		val, _ := io.ReadAll(p)
		parts = append(parts, partInfo{
			name:        p.FormName(),
			filename:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			value:       string(val),
		})
	}
	want := []partInfo{
		{name: "file", filename: "note.wav", contentType: "audio/wav"},
		{name: "language", value: "en"},
		{name: "prompt", value: "jargon"},
		{name: "response_format", value: "json"},
	}
	if len(parts) != len(want) {
		t.Fatalf("parts = %d, want %d: %+v", len(parts), len(want), parts)
	}
	for i, w := range want {
		got := parts[i]
		if got.name != w.name {
			t.Fatalf("part %d name = %q, want %q", i, got.name, w.name)
		}
		if w.filename != "" && got.filename != w.filename {
			t.Fatalf("part %d filename = %q, want %q", i, got.filename, w.filename)
		}
		if w.contentType != "" && got.contentType != w.contentType {
			t.Fatalf("part %d content type = %q, want %q", i, got.contentType, w.contentType)
		}
		if w.value != "" && got.value != w.value {
			t.Fatalf("part %d value = %q, want %q", i, got.value, w.value)
		}
	}
	if len(parts[0].value) != 64 {
		t.Fatalf("file part carried %d bytes, want 64", len(parts[0].value))
	}
}

func TestTranscribeOmitsEmptyOptionalFields(t *testing.T) {
	got := make(chan []string, 1)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var names []string
		_, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			names = append(names, p.FormName())
			_, _ = io.Copy(io.Discard, p)
		}
		got <- names
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	})
	sup := newServingSupervisor(t, handler, false, nil)

	if _, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	names := <-got
	want := []string{"file", "response_format"}
	if len(names) != len(want) {
		t.Fatalf("field names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field names = %v, want %v", names, want)
		}
	}
}

func TestTranscribeServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory during decode", http.StatusInternalServerError)
	})
	sup := newServingSupervisor(t, handler, false, nil)

	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsInference(err) {
		t.Fatalf("err = %v, want inference error", err)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "out of memory") {
		t.Fatalf("error lacks status/body: %v", err)
	}
}

func TestTranscribeMalformedJSON(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	})
	sup := newServingSupervisor(t, handler, false, nil)

	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsMalformedResponse(err) {
		t.Fatalf("err = %v, want malformed-response", err)
	}
}

func TestTranscribeResponseWithoutText(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})
	sup := newServingSupervisor(t, handler, false, nil)

	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsMalformedResponse(err) {
		t.Fatalf("err = %v, want malformed-response", err)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	sup := newServingSupervisor(t, handler, false, func(cfg *Config) {
		cfg.InferenceTimeout = 100 * time.Millisecond
	})

	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsRequestTimedOut(err) {
		t.Fatalf("err = %v, want request-timed-out", err)
	}
}

func TestTranscribeCallerCancel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	sup := newServingSupervisor(t, handler, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := sup.Transcribe(ctx, fakeWAV(32), TranscribeOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestTranscribeAfterChildDied(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	sup := newServingSupervisor(t, handler, false, nil)
	// Simulate a reaped child whose port no longer answers.
	close(sup.child.done)
	sup.child.port = 1 // nothing listens there

	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsProcessCrashed(err) {
		t.Fatalf("err = %v, want process-crashed", err)
	}
}

func TestTranscribeRejectsNonWAVWithoutTranscoder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	})
	sup := newServingSupervisor(t, handler, false, nil)

	_, err := sup.Transcribe(context.Background(), []byte("OggS not a wav"), TranscribeOptions{})
	if !IsUnsupportedFormat(err) {
		t.Fatalf("err = %v, want unsupported-format", err)
	}
}

func TestTranscribeWhenStopped(t *testing.T) {
	sup := New(Config{ResourcesDir: t.TempDir()}, zerolog.Nop())
	_, err := sup.Transcribe(context.Background(), fakeWAV(32), TranscribeOptions{})
	if !IsServerNotRunning(err) {
		t.Fatalf("err = %v, want server-not-running", err)
	}
}

func TestDecodeTranscriptionSegments(t *testing.T) {
	raw := []byte(`{"text":"one two","language":"en","segments":[{"text":"one","start":0,"end":0.8},{"text":"two","start":0.8,"end":1.4}]}`)
	tr, err := decodeTranscription(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(tr.Segments))
	}
	if tr.Segments[1].Start != 0.8 || tr.Segments[1].End != 1.4 {
		t.Fatalf("segment timing wrong: %+v", tr.Segments[1])
	}
}

func TestTranscribeEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	rig := newTestRig(t, 31216, 31225, nil)
	ctx := context.Background()
	if err := rig.sup.Start(ctx, types.StartRequest{ModelPath: rig.model}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tr, err := rig.sup.Transcribe(ctx, fakeWAV(2048), TranscribeOptions{
		Language: "en",
		Prompt:   "greetings",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	for _, want := range []string{"bytes=2048", "type=audio/wav", "prompt=greetings"} {
		if !strings.Contains(tr.Text, want) {
			t.Fatalf("text = %q, want it to contain %q", tr.Text, want)
		}
	}
	if tr.Language != "en" {
		t.Fatalf("language = %q, want en", tr.Language)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].End != 1.5 {
		t.Fatalf("segments = %+v", tr.Segments)
	}
}

func TestTranscribeNonWAVWithTranscoder(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	rig := newTestRig(t, 31226, 31235, nil)
	// Bundle a transcoder next to the server so non-WAV input passes
	// the gate. It is never executed by the fake server.
	script := filepath.Join(rig.resources, "ffmpeg")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}

	ctx := context.Background()
	if err := rig.sup.Start(ctx, types.StartRequest{ModelPath: rig.model}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if st := rig.sup.Status(ctx); !st.CanConvert {
		t.Fatalf("transcoder not detected: %+v", st)
	}
	tr, err := rig.sup.Transcribe(ctx, []byte("OggS fake opus payload"), TranscribeOptions{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(tr.Text, "type=application/octet-stream") {
		t.Fatalf("text = %q, want octet-stream upload", tr.Text)
	}
}
