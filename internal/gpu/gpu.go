// Package gpu detects whether an NVIDIA accelerator is usable on this
// host. Detection shells out to nvidia-smi once and caches the answer
// for the lifetime of the process.
package gpu

import (
	"context"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultTool    = "nvidia-smi"
	defaultTimeout = 3 * time.Second
)

// Prober answers "is an NVIDIA GPU present". On darwin it always
// answers false: the bundled Metal build needs no separate variant, so
// there is nothing to probe for.
type Prober struct {
	tool    string
	timeout time.Duration
	log     zerolog.Logger

	once    sync.Once
	present bool
}

// New returns a Prober using nvidia-smi with a short timeout.
func New(log zerolog.Logger) *Prober {
	return NewWithTool(defaultTool, defaultTimeout, log)
}

// NewWithTool overrides the probe command and timeout.
func NewWithTool(tool string, timeout time.Duration, log zerolog.Logger) *Prober {
	if tool == "" {
		tool = defaultTool
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{tool: tool, timeout: timeout, log: log}
}

// Present reports whether an NVIDIA GPU was detected. The first call
// runs the probe; later calls return the cached result. A hung or
// missing nvidia-smi counts as absent.
func (p *Prober) Present(ctx context.Context) bool {
	p.once.Do(func() {
		p.present = p.probe(ctx)
	})
	return p.present
}

func (p *Prober) probe(ctx context.Context) bool {
	if runtime.GOOS == "darwin" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := exec.CommandContext(ctx, p.tool).Run()
	if err != nil {
		p.log.Debug().Err(err).Str("tool", p.tool).Msg("no NVIDIA GPU detected")
		return false
	}
	p.log.Info().Str("tool", p.tool).Msg("NVIDIA GPU detected")
	return true
}
