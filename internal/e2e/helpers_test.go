package e2e

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/b2tsrl/openwhispr/internal/daemon"
	"github.com/b2tsrl/openwhispr/internal/httpapi"
	"github.com/b2tsrl/openwhispr/internal/supervisor"
)

// buildFakeServer compiles the fake whisper-server from the supervisor
// package's test data and returns the binary path.
func buildFakeServer(t *testing.T) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "fake_whisper_server")
	cmd := exec.Command("go", "build", "-o", bin, "../supervisor/testdata/fake_whisper_server.go")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build fake server: %v: %s", err, string(out))
	}
	return bin
}

func installFile(t *testing.T, src, dst string) {
	t.Helper()
	b, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	if err := os.WriteFile(dst, b, 0o755); err != nil {
		t.Fatalf("write %s: %v", dst, err)
	}
}

type rig struct {
	srv    *httptest.Server
	daemon *daemon.Daemon
	models string
	model  string
}

// newRig stands up the whole daemon behind an httptest server: the
// fake whisper-server installed as the CPU binary, a temp models dir
// holding one model file and a sqlite history database. Each caller
// gets its own port range so concurrently running packages cannot
// collide on child listeners.
func newRig(t *testing.T, portStart, portEnd int) *rig {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subprocess tests rely on POSIX signals")
	}
	bin := buildFakeServer(t)
	resources := t.TempDir()
	installFile(t, bin, filepath.Join(resources, "whisper-server-cpu"))

	models := t.TempDir()
	model := filepath.Join(models, "ggml-tiny.en.bin")
	if err := os.WriteFile(model, []byte("fake model weights"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	srv, d := newServerForConfig(t, daemon.Config{
		ModelsDir: models,
		HistoryDB: filepath.Join(t.TempDir(), "history.db"),
		Supervisor: supervisor.Config{
			PortStart:         portStart,
			PortEnd:           portEnd,
			ResourcesDir:      resources,
			StartupTimeout:    10 * time.Second,
			ReadinessInterval: 20 * time.Millisecond,
			HealthInterval:    time.Hour,
			StopGrace:         2 * time.Second,
		},
	})
	return &rig{srv: srv, daemon: d, models: models, model: model}
}

// newServerForConfig builds a daemon for cfg and serves its API from an
// httptest server. Cleanup closes both.
func newServerForConfig(t *testing.T, cfg daemon.Config) (*httptest.Server, *daemon.Daemon) {
	t.Helper()
	d, err := daemon.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(d))
	t.Cleanup(func() {
		srv.Close()
		_ = d.Close()
	})
	return srv, d
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// postWAV uploads wav as the "file" part of a multipart form, plus any
// extra fields, to a transcription endpoint.
func postWAV(t *testing.T, url string, wav []byte, fields map[string]string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "clip.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(wav); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// makeWAV builds a minimal 16-bit PCM WAV payload at 16 kHz mono so
// uploads pass the container sniff.
func makeWAV(t *testing.T, samples int) []byte {
	t.Helper()
	const (
		sampleRate    = 16000
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := samples * channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
