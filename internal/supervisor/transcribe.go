package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/b2tsrl/openwhispr/internal/audiofmt"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

const inferenceBodyLimit = 4096

// Transcribe sends audio to the running server's /inference endpoint
// and decodes the result. Non-WAV payloads are only accepted when the
// server was started with transcoding support; otherwise the caller
// gets an unsupported-format error without a round trip.
func (s *Supervisor) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*types.Transcription, error) {
	s.mu.Lock()
	c := s.child
	st := s.state
	s.mu.Unlock()
	if c == nil || (st != StateReady && st != StateDegraded) {
		return nil, ErrServerNotRunning(st)
	}

	isWAV := audiofmt.IsWAV(audio)
	if !isWAV && !c.canConvert {
		return nil, ErrUnsupportedFormat()
	}

	body, contentType, err := encodeInferenceForm(audio, isWAV, opts)
	if err != nil {
		return nil, ErrRequestFailed(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()
	url := "http://" + net.JoinHostPort(s.cfg.Host, strconv.Itoa(c.port)) + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, ErrRequestFailed(err)
	}
	req.Header.Set("Content-Type", contentType)

	began := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		metricTranscriptions.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrRequestTimedOut(s.cfg.InferenceTimeout)
		}
		if cErr := ctx.Err(); cErr != nil && errors.Is(cErr, context.Canceled) {
			return nil, cErr
		}
		// A reaped child explains a refused connection better than
		// the raw transport error.
		select {
		case <-c.done:
			return nil, ErrProcessCrashed(exitCode(c), c.stderr.Tail())
		default:
		}
		return nil, ErrRequestFailed(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metricTranscriptions.WithLabelValues("error").Inc()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, inferenceBodyLimit))
		return nil, ErrInference(resp.StatusCode, strings.TrimSpace(string(b)))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metricTranscriptions.WithLabelValues("error").Inc()
		return nil, ErrRequestFailed(err)
	}
	tr, err := decodeTranscription(raw)
	if err != nil {
		metricTranscriptions.WithLabelValues("error").Inc()
		return nil, err
	}

	took := time.Since(began)
	metricTranscriptions.WithLabelValues("ok").Inc()
	metricTranscriptionSecs.Observe(took.Seconds())
	s.log.Info().
		Int("audio_bytes", len(audio)).
		Dur("took", took).
		Msg("transcription complete")
	return tr, nil
}

// decodeTranscription parses the server's JSON response. A body
// without a "text" field is malformed even when it is valid JSON,
// which is what whisper-server produces when asked for a format this
// client did not request.
func decodeTranscription(raw []byte) (*types.Transcription, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ErrMalformedResponse(err)
	}
	if _, ok := probe["text"]; !ok {
		return nil, ErrMalformedResponse(errors.New(`response has no "text" field`))
	}
	var tr types.Transcription
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, ErrMalformedResponse(err)
	}
	tr.Text = strings.TrimSpace(tr.Text)
	return &tr, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// encodeInferenceForm builds the multipart body whisper-server
// expects: the audio under "file", then optional language and prompt
// fields, then response_format=json.
func encodeInferenceForm(audio []byte, isWAV bool, opts TranscribeOptions) ([]byte, string, error) {
	filename := opts.Filename
	if filename == "" {
		if isWAV {
			filename = "audio.wav"
		} else {
			filename = "audio.dat"
		}
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	if isWAV {
		hdr.Set("Content-Type", "audio/wav")
	} else {
		hdr.Set("Content-Type", "application/octet-stream")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if opts.Language != "" {
		if err := w.WriteField("language", opts.Language); err != nil {
			return nil, "", err
		}
	}
	if opts.Prompt != "" {
		if err := w.WriteField("prompt", opts.Prompt); err != nil {
			return nil, "", err
		}
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
