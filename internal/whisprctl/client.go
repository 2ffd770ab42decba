package whisprctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Client is a small HTTP client for the whisprd API.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient accepts "host:port" or a full URL and normalizes it into
// a base URL.
func NewClient(addr string, timeout time.Duration) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{base: base, hc: &http.Client{Timeout: timeout}}
}

// Status fetches the supervisor snapshot.
func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var st types.StatusResponse
	err := c.getJSON(ctx, "/api/server/status", &st)
	return st, err
}

// Models lists the model files the daemon can serve.
func (c *Client) Models(ctx context.Context) ([]types.Model, error) {
	var mr types.ModelsResponse
	if err := c.getJSON(ctx, "/api/models", &mr); err != nil {
		return nil, err
	}
	return mr.Models, nil
}

// Start asks the daemon to bring up (or replace) the managed server
// and returns the resulting status snapshot.
func (c *Client) Start(ctx context.Context, req types.StartRequest) (types.StatusResponse, error) {
	var st types.StatusResponse
	err := c.postJSON(ctx, "/api/server/start", req, &st)
	return st, err
}

// Stop shuts the managed server down.
func (c *Client) Stop(ctx context.Context) (types.StatusResponse, error) {
	var st types.StatusResponse
	err := c.postJSON(ctx, "/api/server/stop", nil, &st)
	return st, err
}

// History returns recent transcriptions, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	path := "/api/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var hr types.HistoryResponse
	if err := c.getJSON(ctx, path, &hr); err != nil {
		return nil, err
	}
	return hr.Entries, nil
}

// InvalidateBinaries drops the daemon's cached accelerated-binary path.
func (c *Client) InvalidateBinaries(ctx context.Context) error {
	return c.postJSON(ctx, "/api/binaries/invalidate", nil, nil)
}

// Transcribe uploads the audio file as a multipart form and returns
// the daemon's transcription.
func (c *Client) Transcribe(ctx context.Context, filePath, language, prompt string) (*types.TranscriptionResponse, error) {
	audio, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, err
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, err
		}
	}
	if prompt != "" {
		if err := mw.WriteField("prompt", prompt); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/transcribe", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var tr types.TranscriptionResponse
	if err := c.do(req, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError turns a non-2xx response into an error, preferring the
// daemon's JSON error payload over the raw body.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return fmt.Errorf("%s (http %d)", er.Error, resp.StatusCode)
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
