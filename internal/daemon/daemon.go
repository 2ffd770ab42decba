// Package daemon composes the process supervisor, the model registry
// and the transcription history into the one service the HTTP API and
// the CLI talk to.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/b2tsrl/openwhispr/internal/audiofmt"
	"github.com/b2tsrl/openwhispr/internal/history"
	"github.com/b2tsrl/openwhispr/internal/registry"
	"github.com/b2tsrl/openwhispr/internal/supervisor"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Config carries daemon-level settings. Supervisor tunables live in
// the embedded supervisor.Config.
type Config struct {
	// ModelsDir is scanned for whisper model files on every listing.
	ModelsDir string
	// HistoryDB is the sqlite file for transcription history; empty
	// disables history.
	HistoryDB string
	// HistoryLimit caps retained history entries (0 = default).
	HistoryLimit int

	Supervisor supervisor.Config
}

// Daemon owns the supervisor and the history store.
type Daemon struct {
	cfg  Config
	log  zerolog.Logger
	sup  *supervisor.Supervisor
	hist *history.Store
}

// New builds a Daemon. The history store is opened eagerly so a broken
// database path fails at boot, not on the first transcription.
func New(cfg Config, log zerolog.Logger) (*Daemon, error) {
	d := &Daemon{
		cfg: cfg,
		log: log,
		sup: supervisor.New(cfg.Supervisor, log.With().Str("component", "supervisor").Logger()),
	}
	if cfg.HistoryDB != "" {
		st, err := history.Open(cfg.HistoryDB, cfg.HistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		d.hist = st
	}
	return d, nil
}

// SetPublisher forwards lifecycle events from the supervisor. Call
// before the first StartServer.
func (d *Daemon) SetPublisher(p supervisor.EventPublisher) { d.sup.SetPublisher(p) }

// ListModels scans the models directory. Scanning per call keeps
// freshly downloaded models visible without a restart.
func (d *Daemon) ListModels() ([]types.Model, error) {
	return registry.LoadDir(d.cfg.ModelsDir)
}

// Status reports the supervisor's view of the managed server.
func (d *Daemon) Status(ctx context.Context) types.StatusResponse {
	return d.sup.Status(ctx)
}

// StartServer brings up (or replaces) the managed whisper-server.
func (d *Daemon) StartServer(ctx context.Context, req types.StartRequest) error {
	return d.sup.Start(ctx, req)
}

// StopServer shuts the managed server down; a no-op when stopped.
func (d *Daemon) StopServer(ctx context.Context) error {
	return d.sup.Stop(ctx)
}

// Ready reports whether the managed server is serving.
func (d *Daemon) Ready() bool { return d.sup.Ready() }

// InvalidateBinaries drops the cached accelerated binary path, so a
// bundle installed mid-session is found on the next start.
func (d *Daemon) InvalidateBinaries() { d.sup.InvalidateAccelerated() }

// Transcribe runs one transcription and records it in history. History
// failures are logged, not returned: the transcript still reached the
// caller.
func (d *Daemon) Transcribe(ctx context.Context, audio []byte, opts supervisor.TranscribeOptions) (*types.TranscriptionResponse, error) {
	began := time.Now()
	tr, err := d.sup.Transcribe(ctx, audio, opts)
	if err != nil {
		return nil, err
	}
	resp := &types.TranscriptionResponse{
		Transcription: *tr,
		TookMS:        time.Since(began).Milliseconds(),
	}
	if info, err := audiofmt.Probe(audio); err == nil {
		resp.AudioSeconds = info.Duration.Seconds()
	}
	if d.hist != nil {
		stored, err := d.hist.Add(ctx, types.HistoryEntry{
			ModelPath:    d.sup.Status(ctx).ModelPath,
			Language:     tr.Language,
			AudioBytes:   int64(len(audio)),
			AudioSeconds: resp.AudioSeconds,
			TookMS:       resp.TookMS,
			Text:         tr.Text,
		})
		if err != nil {
			d.log.Warn().Err(err).Msg("failed to store history entry")
		} else {
			resp.ID = stored.ID
		}
	}
	return resp, nil
}

// History returns the most recent transcriptions, newest first. With
// history disabled it returns an empty list.
func (d *Daemon) History(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if d.hist == nil {
		return []types.HistoryEntry{}, nil
	}
	return d.hist.Recent(ctx, limit)
}

// Close stops the managed server and releases the history store.
func (d *Daemon) Close() error {
	err := d.sup.Close()
	if d.hist != nil {
		if cerr := d.hist.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
